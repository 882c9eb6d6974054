// Package storetest holds a behavioural suite every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. The suite closes nothing; the
// factory should register its own cleanup.
type Factory func(t *testing.T) store.Store

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("OTPSaveAndFindValid", func(t *testing.T) { testOTPSaveAndFindValid(t, newStore(t)) })
	t.Run("OTPExpiryBoundary", func(t *testing.T) { testOTPExpiryBoundary(t, newStore(t)) })
	t.Run("OTPNewestWins", func(t *testing.T) { testOTPNewestWins(t, newStore(t)) })
	t.Run("OTPDeleteAllForPhone", func(t *testing.T) { testOTPDeleteAllForPhone(t, newStore(t)) })
	t.Run("OTPDeleteExpired", func(t *testing.T) { testOTPDeleteExpired(t, newStore(t)) })
	t.Run("UserCreateAndLookup", func(t *testing.T) { testUserCreateAndLookup(t, newStore(t)) })
	t.Run("UserUniqueness", func(t *testing.T) { testUserUniqueness(t, newStore(t)) })
	t.Run("UserConcurrentDuplicateEmail", func(t *testing.T) { testUserConcurrentDuplicateEmail(t, newStore(t)) })
	t.Run("UserIDMatchPreferred", func(t *testing.T) { testUserIDMatchPreferred(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func otp(phone, code string, createdAt time.Time) domain.OTPRecord {
	return domain.OTPRecord{
		Phone:     phone,
		Code:      code,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(10 * time.Minute),
	}
}

func user(userID, email string) domain.User {
	return domain.User{
		UserID:       userID,
		Username:     userID,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Phone:        "+15551234567",
		CreatedAt:    epoch,
	}
}

func testOTPSaveAndFindValid(t *testing.T, s store.Store) {
	ctx := context.Background()

	saved, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "482913", epoch))
	require.NoError(t, err)
	require.False(t, saved.ID.IsZero())

	got, err := s.OTPCodes().FindValidOTP(ctx, "+15551234567", "482913", epoch.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, saved.ID, got.ID)
	require.Equal(t, "482913", got.Code)
	require.True(t, got.ExpiresAt.Equal(epoch.Add(10*time.Minute)))

	_, err = s.OTPCodes().FindValidOTP(ctx, "+15551234567", "000000", epoch)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.OTPCodes().FindValidOTP(ctx, "+15550000000", "482913", epoch)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testOTPExpiryBoundary(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "111111", epoch))
	require.NoError(t, err)

	expiresAt := epoch.Add(10 * time.Minute)

	_, err = s.OTPCodes().FindValidOTP(ctx, "+15551234567", "111111", expiresAt.Add(-time.Millisecond))
	require.NoError(t, err)

	// expires_at must be strictly after now.
	_, err = s.OTPCodes().FindValidOTP(ctx, "+15551234567", "111111", expiresAt)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.OTPCodes().FindValidOTP(ctx, "+15551234567", "111111", expiresAt.Add(time.Second))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testOTPNewestWins(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "222222", epoch))
	require.NoError(t, err)
	newer, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "222222", epoch.Add(time.Second)))
	require.NoError(t, err)

	got, err := s.OTPCodes().FindValidOTP(ctx, "+15551234567", "222222", epoch.Add(2*time.Second))
	require.NoError(t, err)
	require.Equal(t, newer.ID, got.ID)

	// Same created_at falls back to the id ordering.
	a, err := s.OTPCodes().SaveOTP(ctx, otp("+15559999999", "333333", epoch))
	require.NoError(t, err)
	b, err := s.OTPCodes().SaveOTP(ctx, otp("+15559999999", "333333", epoch))
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	got, err = s.OTPCodes().FindValidOTP(ctx, "+15559999999", "333333", epoch)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
}

func testOTPDeleteAllForPhone(t *testing.T, s store.Store) {
	ctx := context.Background()

	for i, code := range []string{"100001", "100002", "100003"} {
		_, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", code, epoch.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}
	_, err := s.OTPCodes().SaveOTP(ctx, otp("+15550000000", "100001", epoch))
	require.NoError(t, err)

	n, err := s.OTPCodes().DeleteAllOTPsForPhone(ctx, "+15551234567")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	n, err = s.OTPCodes().DeleteAllOTPsForPhone(ctx, "+15551234567")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	// Other phones are untouched.
	_, err = s.OTPCodes().FindValidOTP(ctx, "+15550000000", "100001", epoch)
	require.NoError(t, err)
}

func testOTPDeleteExpired(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "444444", epoch.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "555555", epoch))
	require.NoError(t, err)

	n, err := s.OTPCodes().DeleteExpiredOTPs(ctx, epoch)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.OTPCodes().FindValidOTP(ctx, "+15551234567", "555555", epoch)
	require.NoError(t, err)
}

func testUserCreateAndLookup(t *testing.T, s store.Store) {
	ctx := context.Background()

	exists, err := s.Users().ExistsByEmailOrUserID(ctx, "amy@x.com", "amy")
	require.NoError(t, err)
	require.False(t, exists)

	created, err := s.Users().CreateUser(ctx, user("amy", "amy@x.com"))
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	for _, identifier := range []string{"amy", "amy@x.com"} {
		got, err := s.Users().GetUserByLoginIdentifier(ctx, identifier)
		require.NoError(t, err, identifier)
		require.Equal(t, created.ID, got.ID)
		require.Equal(t, "amy", got.UserID)
		require.Equal(t, "amy@x.com", got.Email)
		require.Equal(t, created.PasswordHash, got.PasswordHash)
		require.True(t, got.CreatedAt.Equal(epoch))
	}

	// Emails are case-sensitive as stored.
	_, err = s.Users().GetUserByLoginIdentifier(ctx, "AMY@X.COM")
	require.ErrorIs(t, err, store.ErrNotFound)

	exists, err = s.Users().ExistsByEmailOrUserID(ctx, "other@x.com", "amy")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = s.Users().ExistsByEmailOrUserID(ctx, "amy@x.com", "other")
	require.NoError(t, err)
	require.True(t, exists)
}

func testUserUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Users().CreateUser(ctx, user("amy", "amy@x.com"))
	require.NoError(t, err)

	_, err = s.Users().CreateUser(ctx, user("amy2", "amy@x.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().CreateUser(ctx, user("amy", "amy2@x.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// Usernames and phones are not unique.
	u := user("bob", "bob@x.com")
	u.Username = "amy"
	_, err = s.Users().CreateUser(ctx, u)
	require.NoError(t, err)
}

func testUserConcurrentDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users().CreateUser(ctx, user(fmt.Sprintf("racer-%d", i), "race@x.com"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrAlreadyExists):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	require.Equal(t, 1, successes)
	require.Equal(t, workers-1, conflicts)
}

func testUserIDMatchPreferred(t *testing.T, s store.Store) {
	ctx := context.Background()

	// One user's email equals another user's user_id.
	byEmail, err := s.Users().CreateUser(ctx, user("carol", "dave"))
	require.NoError(t, err)
	byUserID, err := s.Users().CreateUser(ctx, user("dave", "dave@x.com"))
	require.NoError(t, err)
	require.NotEqual(t, byEmail.ID, byUserID.ID)

	got, err := s.Users().GetUserByLoginIdentifier(ctx, "dave")
	require.NoError(t, err)
	require.Equal(t, byUserID.ID, got.ID)
}

func testTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.OTPCodes().SaveOTP(ctx, otp("+15551234567", "666666", epoch))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().CreateUser(ctx, user("erin", "erin@x.com")); err != nil {
			return err
		}
		if _, err := tx.OTPCodes().DeleteAllOTPsForPhone(ctx, "+15551234567"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByLoginIdentifier(ctx, "erin")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.OTPCodes().FindValidOTP(ctx, "+15551234567", "666666", epoch)
	require.NoError(t, err)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, user("erin", "erin@x.com"))
		return err
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByLoginIdentifier(ctx, "erin")
	require.NoError(t, err)
}
