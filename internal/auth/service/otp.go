package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/delivery"
	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/internal/auth/store"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
	"github.com/pquerna/otp"
)

const (
	DefaultOTPTTL          = 10 * time.Minute
	DefaultBrand           = "STREAMNEST"
	DefaultStoreTimeout    = 5 * time.Second
	DefaultDeliveryTimeout = 10 * time.Second

	codeMin  = 100000
	codeSpan = 900000 // codes are uniform over [100000, 999999]
)

// OTPConfig tunes issuance. Zero values fall back to the defaults above.
type OTPConfig struct {
	TTL             time.Duration
	Brand           string
	DevMode         bool // return the plaintext code to the caller
	StoreTimeout    time.Duration
	DeliveryTimeout time.Duration
}

func (c OTPConfig) withDefaults() OTPConfig {
	if c.TTL <= 0 {
		c.TTL = DefaultOTPTTL
	}
	if c.Brand == "" {
		c.Brand = DefaultBrand
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = DefaultDeliveryTimeout
	}
	return c
}

// Issuance is the receipt for a sent OTP.
type Issuance struct {
	Phone     string
	ExpiresAt time.Time
	Delivered bool
	Receipt   delivery.Receipt

	// DeliveryErr wraps ErrDelivery when the channel failed. The record is
	// still stored and can be verified.
	DeliveryErr error

	// DevCode carries the plaintext code in dev mode only.
	DevCode string
}

// Verification confirms a consumed OTP.
type Verification struct {
	Phone    string
	Consumed int64 // records removed for the phone
}

type OTPService struct {
	Store   store.Store
	Channel delivery.Channel
	Config  OTPConfig

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func NewOTPService(s store.Store, ch delivery.Channel, cfg OTPConfig) *OTPService {
	return &OTPService{Store: s, Channel: ch, Config: cfg.withDefaults()}
}

func (s *OTPService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue generates, stores and sends a new code for phone.
func (s *OTPService) Issue(ctx context.Context, phone string) (Issuance, error) {
	log := slogx.FromContext(ctx)
	cfg := s.Config.withDefaults()

	phone = NormalizePhone(phone)
	if !ValidPhone(phone) {
		return Issuance{}, ErrInvalidPhoneFormat
	}

	code, err := generateCode()
	if err != nil {
		return Issuance{}, fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	storeCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	rec, err := s.Store.OTPCodes().SaveOTP(storeCtx, domain.OTPRecord{
		Phone:     phone,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(cfg.TTL),
	})
	cancel()
	if err != nil {
		log.Error("failed to save otp", slogx.Phone(phone), slog.Any("error", err))
		return Issuance{}, fmt.Errorf("%w: save otp: %w", ErrPersistence, err)
	}

	out := Issuance{Phone: phone, ExpiresAt: rec.ExpiresAt}
	if cfg.DevMode {
		out.DevCode = code
	}

	sendCtx, cancel := context.WithTimeout(ctx, cfg.DeliveryTimeout)
	receipt, err := s.Channel.Send(sendCtx, phone, FormatOTPMessage(cfg.Brand, code, cfg.TTL))
	cancel()
	if err != nil {
		out.DeliveryErr = fmt.Errorf("%w: %w", ErrDelivery, err)
		log.Error("otp stored but delivery failed",
			slogx.Phone(phone),
			slog.Any("error", err),
		)
		return out, nil
	}

	out.Delivered = true
	out.Receipt = receipt
	log.Info("otp issued",
		slogx.Phone(phone),
		slog.String("provider", receipt.Provider),
		slog.Time("expires_at", rec.ExpiresAt),
	)
	return out, nil
}

// VerifyAndConsume redeems code for phone. Success deletes every record for
// the phone, so the same inputs fail on a second call.
func (s *OTPService) VerifyAndConsume(ctx context.Context, phone, code string) (Verification, error) {
	log := slogx.FromContext(ctx)
	cfg := s.Config.withDefaults()

	phone = NormalizePhone(phone)
	if phone == "" || code == "" {
		return Verification{}, ErrMissingFields
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	if _, err := s.Store.OTPCodes().FindValidOTP(ctx, phone, code, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("otp rejected", slogx.Phone(phone))
			return Verification{}, ErrInvalidOrExpiredOTP
		}
		log.Error("failed to look up otp", slogx.Phone(phone), slog.Any("error", err))
		return Verification{}, fmt.Errorf("%w: find otp: %w", ErrPersistence, err)
	}

	n, err := s.Store.OTPCodes().DeleteAllOTPsForPhone(ctx, phone)
	if err != nil {
		log.Error("failed to consume otp", slogx.Phone(phone), slog.Any("error", err))
		return Verification{}, fmt.Errorf("%w: delete otps: %w", ErrPersistence, err)
	}
	if n == 0 {
		// A concurrent verification consumed the records first.
		log.Info("otp already consumed", slogx.Phone(phone))
		return Verification{}, ErrInvalidOrExpiredOTP
	}

	log.Info("otp verified", slogx.Phone(phone), slog.Int64("consumed", n))
	return Verification{Phone: phone, Consumed: n}, nil
}

// FormatOTPMessage renders the SMS body. Lifetimes under a minute are given
// in seconds.
func FormatOTPMessage(brand, code string, ttl time.Duration) string {
	if ttl < time.Minute {
		return fmt.Sprintf("Your %s verification code is: %s. Valid for %d seconds.",
			brand, code, int(ttl/time.Second))
	}
	return fmt.Sprintf("Your %s verification code is: %s. Valid for %d minutes.",
		brand, code, int(ttl/time.Minute))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return otp.DigitsSix.Format(int32(n.Int64() + codeMin)), nil
}
