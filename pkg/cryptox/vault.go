package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names the one-way function new digests are produced with.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrMalformedDigest  = errors.New("malformed password digest")
)

// Argon2Params is the argon2id work factor. Memory is in KiB.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultArgon2Params follows the OWASP minimum for argon2id.
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

// DefaultBcryptCost matches the cost used by accounts created before the Go
// service existed.
const DefaultBcryptCost = 10

// MaxArgon2Memory bounds the memory (KiB) of produced and accepted digests,
// so a tampered row cannot make Verify allocate gigabytes.
const MaxArgon2Memory = 1 << 20

// ErrInvalidParams reports a work factor the vault refuses to hash with.
var ErrInvalidParams = errors.New("invalid password hashing parameters")

// Validate checks p against the bounds Verify accepts, so every digest the
// vault produces can be verified later.
func (p Argon2Params) Validate() error {
	switch {
	case p.Memory == 0 || p.Memory > MaxArgon2Memory:
		return fmt.Errorf("%w: argon2 memory must be in [1, %d] KiB", ErrInvalidParams, MaxArgon2Memory)
	case p.Iterations == 0:
		return fmt.Errorf("%w: argon2 iterations must be positive", ErrInvalidParams)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: argon2 parallelism must be positive", ErrInvalidParams)
	case p.KeyLength == 0 || p.SaltLength == 0:
		return fmt.Errorf("%w: argon2 key and salt length must be positive", ErrInvalidParams)
	}
	return nil
}

// ValidateBcryptCost checks cost against the range bcrypt accepts.
func ValidateBcryptCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("%w: bcrypt cost must be in [%d, %d]", ErrInvalidParams, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Vault hashes and verifies passwords. It carries no mutable state and is safe
// for concurrent use.
type Vault struct {
	Algorithm  Algorithm
	Argon2     Argon2Params
	BcryptCost int

	// Pepper is appended to the password before argon2id hashing. Changing it
	// invalidates every argon2id digest produced with the previous value.
	Pepper string
}

type VaultOption func(*Vault)

func WithAlgorithm(a Algorithm) VaultOption { return func(v *Vault) { v.Algorithm = a } }

func WithArgon2Params(p Argon2Params) VaultOption { return func(v *Vault) { v.Argon2 = p } }

func WithBcryptCost(cost int) VaultOption { return func(v *Vault) { v.BcryptCost = cost } }

func WithPepper(pepper string) VaultOption { return func(v *Vault) { v.Pepper = pepper } }

// NewVault returns an argon2id Vault with default parameters, adjusted by opts.
func NewVault(opts ...VaultOption) *Vault {
	v := &Vault{
		Algorithm:  AlgorithmArgon2id,
		Argon2:     DefaultArgon2Params,
		BcryptCost: DefaultBcryptCost,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Hash produces a salted digest. Each call uses a fresh salt, so hashing the
// same password twice yields two different digests.
func (v *Vault) Hash(password string) (string, error) {
	switch v.Algorithm {
	case AlgorithmBcrypt:
		digest, err := bcrypt.GenerateFromPassword([]byte(password), v.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(digest), nil
	case AlgorithmArgon2id, "":
		return v.hashArgon2id(password)
	default:
		return "", fmt.Errorf("unsupported password algorithm %q", v.Algorithm)
	}
}

// Verify reports whether password produces digest. Malformed digests are
// treated as a mismatch.
func (v *Vault) Verify(password, digest string) bool {
	return v.Compare(password, digest) == nil
}

// Compare is Verify with the failure reason kept, for logging.
func (v *Vault) Compare(password, digest string) error {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return v.compareArgon2id(password, digest)
	case strings.HasPrefix(digest, "$2a$"),
		strings.HasPrefix(digest, "$2b$"),
		strings.HasPrefix(digest, "$2y$"):
		return compareBcrypt(password, digest)
	default:
		return ErrMalformedDigest
	}
}

func (v *Vault) hashArgon2id(password string) (string, error) {
	p := v.Argon2
	if err := p.Validate(); err != nil {
		return "", err
	}
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password+v.Pepper), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	// PHC string format
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (v *Vault) compareArgon2id(password, digest string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return fmt.Errorf("%w: expected 6 parts", ErrMalformedDigest)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("%w: unsupported version", ErrMalformedDigest)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %w", ErrMalformedDigest, err)
	}
	if mem == 0 || mem > MaxArgon2Memory || iters == 0 || par == 0 {
		return fmt.Errorf("%w: parameters out of range", ErrMalformedDigest)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %w", ErrMalformedDigest, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return fmt.Errorf("%w: hash", ErrMalformedDigest)
	}

	computed := argon2.IDKey(
		[]byte(password+v.Pepper),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - bounded by the decoded digest
	)
	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

func compareBcrypt(password, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("%w: %w", ErrMalformedDigest, err)
	}
}
