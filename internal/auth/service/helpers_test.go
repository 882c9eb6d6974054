package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/delivery"
	"github.com/aussiebroadwan/streamnest/internal/auth/store"
	"github.com/aussiebroadwan/streamnest/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/streamnest/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testPhone = "+15551234567"

// fastArgon2 keeps tests quick; production uses cryptox.DefaultArgon2Params.
var fastArgon2 = cryptox.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sent struct {
	Phone   string
	Message string
}

// recordingChannel captures messages and optionally fails.
type recordingChannel struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (c *recordingChannel) Send(ctx context.Context, phone, message string) (delivery.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, sent{Phone: phone, Message: message})
	if c.err != nil {
		return delivery.Receipt{}, c.err
	}
	return delivery.Receipt{Provider: "test", MessageID: "m1"}, nil
}

func (c *recordingChannel) last() sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs[len(c.msgs)-1]
}

// spyStore counts access to the users repository.
type spyStore struct {
	store.Store
	userCalls atomic.Int64
}

func (s *spyStore) Users() store.Users {
	s.userCalls.Add(1)
	return s.Store.Users()
}

type fixture struct {
	store   *spyStore
	raw     *sqlite.Store
	clock   *clock
	channel *recordingChannel
	otp     *OTPService
	auth    *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	raw, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	require.NoError(t, raw.ApplyMigrations())

	f := &fixture{
		store:   &spyStore{Store: raw},
		raw:     raw,
		clock:   newClock(),
		channel: &recordingChannel{},
	}

	f.otp = NewOTPService(f.store, f.channel, OTPConfig{DevMode: true})
	f.otp.Now = f.clock.Now

	f.auth = NewAuthService(f.store, cryptox.NewVault(cryptox.WithArgon2Params(fastArgon2)), time.Second)
	f.auth.Now = f.clock.Now

	return f
}

// issue returns a fresh dev-mode code for phone.
func (f *fixture) issue(t *testing.T, phone string) string {
	t.Helper()

	iss, err := f.otp.Issue(context.Background(), phone)
	require.NoError(t, err)
	require.NotEmpty(t, iss.DevCode)
	return iss.DevCode
}

func (f *fixture) register(t *testing.T, userID, email, phone string) (Registration, error) {
	t.Helper()

	code := f.issue(t, phone)
	return f.auth.Register(context.Background(), RegisterInput{
		UserID:          userID,
		Username:        userID,
		Email:           email,
		Password:        "s3cret!",
		ConfirmPassword: "s3cret!",
		Phone:           phone,
		OTP:             code,
	})
}

var errChannelDown = errors.New("channel down")
