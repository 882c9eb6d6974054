package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/internal/auth/store"
	"github.com/aussiebroadwan/streamnest/pkg/cryptox"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// MinPasswordLength counts characters, not bytes.
const MinPasswordLength = 6

// RegisterInput is the registration form. Every field is required.
type RegisterInput struct {
	UserID          string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	OTP             string
}

// Registration confirms a created account.
type Registration struct {
	UserID    string
	Username  string
	Email     string
	CreatedAt time.Time
}

// Identity is what a successful login reveals about the user.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

type AuthService struct {
	Store        store.Store
	Vault        *cryptox.Vault
	StoreTimeout time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(s store.Store, vault *cryptox.Vault, storeTimeout time.Duration) *AuthService {
	return &AuthService{Store: s, Vault: vault, StoreTimeout: storeTimeout}
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Register validates in, checks the OTP without consuming it, then creates the
// user and clears the phone's OTPs in one transaction. The first failing check
// decides the error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	log := slogx.FromContext(ctx)

	if in.UserID == "" || in.Username == "" || in.Email == "" || in.Password == "" ||
		in.ConfirmPassword == "" || in.Phone == "" || in.OTP == "" {
		return Registration{}, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return Registration{}, ErrPasswordMismatch
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return Registration{}, ErrWeakPassword
	}

	phone := NormalizePhone(in.Phone)
	now := s.now()

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.Store.OTPCodes().FindValidOTP(ctx, phone, in.OTP, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Registration{}, ErrInvalidOrExpiredOTP
		}
		log.Error("failed to look up otp", slogx.Phone(phone), slog.Any("error", err))
		return Registration{}, fmt.Errorf("%w: find otp: %w", ErrPersistence, err)
	}

	exists, err := s.Store.Users().ExistsByEmailOrUserID(ctx, in.Email, in.UserID)
	if err != nil {
		log.Error("failed to check identity", slog.Any("error", err))
		return Registration{}, fmt.Errorf("%w: check identity: %w", ErrPersistence, err)
	}
	if exists {
		return Registration{}, ErrDuplicateIdentity
	}

	hash, err := s.Vault.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return Registration{}, fmt.Errorf("%w: %w", ErrHashing, err)
	}

	var created domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().CreateUser(ctx, domain.User{
			UserID:       in.UserID,
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			Phone:        phone,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}
		if _, err := tx.OTPCodes().DeleteAllOTPsForPhone(ctx, phone); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("registration lost uniqueness race", slog.String("user_id", in.UserID))
			return Registration{}, ErrDuplicateIdentity
		}
		log.Error("failed to create user", slog.String("user_id", in.UserID), slog.Any("error", err))
		return Registration{}, fmt.Errorf("%w: create user: %w", ErrPersistence, err)
	}

	log.Info("user registered",
		slog.String("user_id", created.UserID),
		slogx.Phone(phone),
	)

	return Registration{
		UserID:    created.UserID,
		Username:  created.Username,
		Email:     created.Email,
		CreatedAt: created.CreatedAt,
	}, nil
}

// Login checks identifier (user id or email) and password. Unknown users and
// wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (Identity, error) {
	log := slogx.FromContext(ctx)

	if identifier == "" || password == "" {
		return Identity{}, ErrMissingFields
	}

	storeCtx, cancel := s.storeCtx(ctx)
	u, err := s.Store.Users().GetUserByLoginIdentifier(storeCtx, identifier)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing cost as a real check.
			_ = s.Vault.Verify(password, s.dummy())
			log.Info("login failed")
			return Identity{}, ErrInvalidCredentials
		}
		log.Error("failed to look up user", slog.Any("error", err))
		return Identity{}, fmt.Errorf("%w: find user: %w", ErrPersistence, err)
	}

	if !s.Vault.Verify(password, u.PasswordHash) {
		log.Info("login failed")
		return Identity{}, ErrInvalidCredentials
	}

	log.Info("user logged in", slog.String("user_id", u.UserID))
	return Identity{UserID: u.UserID, Username: u.Username, Email: u.Email}, nil
}

// dummy returns a digest produced with the live vault parameters.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.Vault.Hash("streamnest-dummy-password")
		if err == nil {
			s.dummyDigest = digest
		}
	})
	return s.dummyDigest
}
