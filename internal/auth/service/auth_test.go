package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validInput(code string) RegisterInput {
	return RegisterInput{
		UserID:          "amy",
		Username:        "Amy",
		Email:           "amy@x.com",
		Password:        "s3cret!",
		ConfirmPassword: "s3cret!",
		Phone:           testPhone,
		OTP:             code,
	}
}

func TestRegisterThenDuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reg, err := f.register(t, "amy", "amy@x.com", testPhone)
	require.NoError(t, err)
	require.Equal(t, "amy", reg.UserID)
	require.Equal(t, "amy@x.com", reg.Email)

	_, err = f.register(t, "amy2", "amy@x.com", testPhone)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
	require.Equal(t, CategoryConflict, Classify(err))

	_, err = f.register(t, "amy", "other@x.com", testPhone)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegisterConsumesOTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	code := f.issue(t, testPhone)
	_, err := f.auth.Register(ctx, validInput(code))
	require.NoError(t, err)

	_, err = f.otp.VerifyAndConsume(ctx, testPhone, code)
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)

	in := validInput(code)
	in.UserID, in.Email = "bob", "bob@x.com"
	_, err = f.auth.Register(ctx, in)
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
}

func TestRegisterDuplicateKeepsOTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.register(t, "amy", "amy@x.com", testPhone)
	require.NoError(t, err)

	code := f.issue(t, testPhone)
	in := validInput(code)
	in.UserID = "amy2"
	_, err = f.auth.Register(ctx, in)
	require.ErrorIs(t, err, ErrDuplicateIdentity)

	// The failed registration did not burn the code.
	_, err = f.otp.VerifyAndConsume(ctx, testPhone, code)
	require.NoError(t, err)
}

func TestRegisterValidationOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"MissingUserID", func(in *RegisterInput) { in.UserID = "" }, ErrMissingFields},
		{"MissingUsername", func(in *RegisterInput) { in.Username = "" }, ErrMissingFields},
		{"MissingEmail", func(in *RegisterInput) { in.Email = "" }, ErrMissingFields},
		{"MissingPassword", func(in *RegisterInput) { in.Password = "" }, ErrMissingFields},
		{"MissingConfirm", func(in *RegisterInput) { in.ConfirmPassword = "" }, ErrMissingFields},
		{"MissingPhone", func(in *RegisterInput) { in.Phone = "" }, ErrMissingFields},
		{"MissingOTP", func(in *RegisterInput) { in.OTP = "" }, ErrMissingFields},
		{"Mismatch", func(in *RegisterInput) { in.ConfirmPassword = "s3cret?" }, ErrPasswordMismatch},
		{"MismatchBeatsWeak", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc", "abd" }, ErrPasswordMismatch},
		{"Weak", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc12", "abc12" }, ErrWeakPassword},
		{"WeakMultibyte", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "日本", "日本" }, ErrWeakPassword},
		{"WeakBeatsBadOTP", func(in *RegisterInput) { in.Password, in.ConfirmPassword, in.OTP = "a", "a", "000000" }, ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			in := validInput("123456")
			tt.mutate(&in)

			_, err := f.auth.Register(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, CategoryValidation, Classify(err))
			require.Zero(t, f.store.userCalls.Load(), "validation failures never reach the user store")
		})
	}
}

func TestRegisterMinimumPasswordLength(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code := f.issue(t, testPhone)
	in := validInput(code)
	in.Password, in.ConfirmPassword = "123456", "123456"

	_, err := f.auth.Register(context.Background(), in)
	require.NoError(t, err)
}

func TestRegisterCountsCharactersNotBytes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code := f.issue(t, testPhone)
	in := validInput(code)
	in.Password, in.ConfirmPassword = "日本語パスワ", "日本語パスワ"

	_, err := f.auth.Register(context.Background(), in)
	require.NoError(t, err)
}

func TestRegisterHashFailureIsInfrastructure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	code := f.issue(t, testPhone)
	f.auth.Vault = cryptox.NewVault(
		cryptox.WithAlgorithm(cryptox.AlgorithmBcrypt),
		cryptox.WithBcryptCost(bcrypt.MaxCost+1),
	)

	_, err := f.auth.Register(ctx, validInput(code))
	require.ErrorIs(t, err, ErrHashing)
	require.Equal(t, CategoryInfrastructure, Classify(err))

	// nothing was written, so the code is still redeemable
	_, err = f.otp.VerifyAndConsume(ctx, testPhone, code)
	require.NoError(t, err)
}

func TestRegisterRejectsBadOTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	code := f.issue(t, testPhone)

	in := validInput("000000")
	if code == "000000" {
		in.OTP = "111111"
	}
	_, err := f.auth.Register(ctx, in)
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	require.Equal(t, CategoryOTP, Classify(err))

	f.clock.Advance(11 * time.Minute)
	_, err = f.auth.Register(ctx, validInput(code))
	require.ErrorIs(t, err, ErrInvalidOrExpiredOTP)
	require.Zero(t, f.store.userCalls.Load())
}

func TestRegisterStripsPhoneWhitespace(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code := f.issue(t, testPhone)
	in := validInput(code)
	in.Phone = "+1 555 123 4567"

	_, err := f.auth.Register(context.Background(), in)
	require.NoError(t, err)

	u, err := f.raw.Users().GetUserByLoginIdentifier(context.Background(), "amy")
	require.NoError(t, err)
	require.Equal(t, testPhone, u.Phone)
	require.NotEqual(t, in.Password, u.PasswordHash)
	require.True(t, u.CreatedAt.Equal(f.clock.Now()))
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	const workers = 6

	inputs := make([]RegisterInput, workers)
	for i := range workers {
		phone := fmt.Sprintf("+1555000%04d", i)
		inputs[i] = RegisterInput{
			UserID:          fmt.Sprintf("racer-%d", i),
			Username:        "racer",
			Email:           "race@x.com",
			Password:        "s3cret!",
			ConfirmPassword: "s3cret!",
			Phone:           phone,
			OTP:             f.issue(t, phone),
		}
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, workers)
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.auth.Register(context.Background(), inputs[i])
		}()
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateIdentity)
	}
	require.Equal(t, 1, successes)
}

func TestRegisterPersistenceFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code := f.issue(t, testPhone)
	require.NoError(t, f.raw.Close())

	_, err := f.auth.Register(context.Background(), validInput(code))
	require.ErrorIs(t, err, ErrPersistence)
	require.Equal(t, CategoryInfrastructure, Classify(err))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.register(t, "amy", "amy@x.com", testPhone)
	require.NoError(t, err)

	for _, identifier := range []string{"amy", "amy@x.com"} {
		id, err := f.auth.Login(ctx, identifier, "s3cret!")
		require.NoError(t, err, identifier)
		require.Equal(t, Identity{UserID: "amy", Username: "amy", Email: "amy@x.com"}, id)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.register(t, "amy", "amy@x.com", testPhone)
	require.NoError(t, err)

	_, wrongPassword := f.auth.Login(ctx, "amy", "not-the-password")
	_, unknownUser := f.auth.Login(ctx, "nobody", "s3cret!")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	require.Equal(t, wrongPassword, unknownUser)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
	require.Equal(t, CategoryAuthentication, Classify(unknownUser))
}

func TestLoginMissingFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), "", "pw")
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = f.auth.Login(context.Background(), "amy", "")
	require.ErrorIs(t, err, ErrMissingFields)
	require.Zero(t, f.store.userCalls.Load())
}

func TestLoginLegacyBcryptDigest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	digest, err := bcrypt.GenerateFromPassword([]byte("legacy-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = f.raw.Users().CreateUser(ctx, domain.User{
		UserID:       "old",
		Username:     "Old Timer",
		Email:        "old@x.com",
		PasswordHash: string(digest),
		Phone:        testPhone,
		CreatedAt:    f.clock.Now(),
	})
	require.NoError(t, err)

	id, err := f.auth.Login(ctx, "old@x.com", "legacy-pw")
	require.NoError(t, err)
	require.Equal(t, "old", id.UserID)

	_, err = f.auth.Login(ctx, "old", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginPersistenceFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.NoError(t, f.raw.Close())

	_, err := f.auth.Login(context.Background(), "amy", "s3cret!")
	require.ErrorIs(t, err, ErrPersistence)
	require.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Category
	}{
		{nil, CategoryUnknown},
		{errors.New("other"), CategoryUnknown},
		{ErrMissingFields, CategoryValidation},
		{ErrPasswordMismatch, CategoryValidation},
		{ErrWeakPassword, CategoryValidation},
		{ErrInvalidPhoneFormat, CategoryValidation},
		{ErrDuplicateIdentity, CategoryConflict},
		{ErrInvalidCredentials, CategoryAuthentication},
		{ErrInvalidOrExpiredOTP, CategoryOTP},
		{fmt.Errorf("%w: boom", ErrPersistence), CategoryInfrastructure},
		{fmt.Errorf("%w: boom", ErrDelivery), CategoryInfrastructure},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
	require.Equal(t, "otp", CategoryOTP.String())
}
