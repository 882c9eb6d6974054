package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/delivery"
	"github.com/aussiebroadwan/streamnest/pkg/cryptox"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "AUTH_STORE_DRIVER", "AUTH_DATABASE_FILE", "AUTH_PASSWORD_ALGORITHM",
		"OTP_DEV_MODE", "OTP_TTL", "OTP_BRAND", "SMS_PROVIDER", "STORE_TIMEOUT", "DELIVERY_TIMEOUT",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	require.Equal(t, "streamnest.db", cfg.DatabaseFile)
	require.Equal(t, string(cryptox.AlgorithmArgon2id), cfg.PasswordAlgorithm)
	require.Equal(t, 10*time.Minute, cfg.OTPTTL)
	require.Equal(t, "STREAMNEST", cfg.OTPBrand)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, 10*time.Second, cfg.DeliveryTimeout)
	require.False(t, cfg.OTPDevMode)
	require.NoError(t, cfg.Validate())

	// no provider configured
	require.False(t, cfg.LiveDelivery())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_STORE_DRIVER", "Postgres")
	t.Setenv("AUTH_DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("OTP_DEV_MODE", "true")
	t.Setenv("OTP_TTL", "5") // bare integers are minutes
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("AUTH_ARGON2_MEMORY_KIB", "65536")
	t.Setenv("AUTH_ARGON2_ITERATIONS", "not-a-number")

	cfg := LoadConfig()

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	require.True(t, cfg.OTPDevMode)
	require.Equal(t, 5*time.Minute, cfg.OTPTTL)
	require.Equal(t, 2*time.Second, cfg.StoreTimeout)
	require.NoError(t, cfg.Validate())

	p := cfg.Argon2Params()
	require.Equal(t, uint32(65536), p.Memory)
	require.Equal(t, cryptox.DefaultArgon2Params.Iterations, p.Iterations)
}

func TestValidate(t *testing.T) {
	valid := Config{
		StoreDriver:       StoreDriverSQLite,
		DatabaseFile:      "x.db",
		PasswordAlgorithm: "argon2id",
		SMSProvider:       SMSProviderTwilio,
		Argon2MemoryKiB:   1024,
		Argon2Iterations:  1,
		BcryptCost:        cryptox.DefaultBcryptCost,
		OTPTTL:            10 * time.Minute,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }},
		{"postgres without url", func(c *Config) { c.StoreDriver = StoreDriverPostgres }},
		{"unknown algorithm", func(c *Config) { c.PasswordAlgorithm = "md5" }},
		{"unknown provider", func(c *Config) { c.SMSProvider = "pigeon" }},
		{"zero argon2 memory", func(c *Config) { c.Argon2MemoryKiB = 0 }},
		{"argon2 memory above verify cap", func(c *Config) { c.Argon2MemoryKiB = cryptox.MaxArgon2Memory + 1024 }},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = bcrypt.MaxCost + 1 }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = bcrypt.MinCost - 1 }},
		{"sub-minute otp ttl", func(c *Config) { c.OTPTTL = 20 * time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLiveDelivery(t *testing.T) {
	twilio := delivery.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+15550000000"}

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"twilio configured", Config{SMSProvider: SMSProviderTwilio, Twilio: twilio}, true},
		{"twilio missing number", Config{SMSProvider: SMSProviderTwilio, Twilio: delivery.TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}}, false},
		{"dev mode wins", Config{SMSProvider: SMSProviderTwilio, Twilio: twilio, OTPDevMode: true}, false},
		{"sns with region", Config{SMSProvider: SMSProviderSNS, SNS: delivery.SNSConfig{Region: "ap-southeast-2"}}, true},
		{"sns without region", Config{SMSProvider: SMSProviderSNS}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cfg.LiveDelivery())
		})
	}
}

func TestNewChannel(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	ctx := context.Background()
	logger := slogx.Discard()

	ch, live, err := newChannel(ctx, Config{SMSProvider: SMSProviderTwilio}, logger)
	require.NoError(t, err)
	require.False(t, live)
	require.IsType(t, &delivery.LogChannel{}, ch)

	ch, live, err = newChannel(ctx, Config{
		SMSProvider: SMSProviderTwilio,
		Twilio:      delivery.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+15550000000"},
	}, logger)
	require.NoError(t, err)
	require.True(t, live)
	require.IsType(t, &delivery.TwilioChannel{}, ch)

	ch, live, err = newChannel(ctx, Config{
		SMSProvider: SMSProviderSNS,
		SNS:         delivery.SNSConfig{Region: "ap-southeast-2", AccessKeyID: "AKIA", SecretAccessKey: "secret"},
	}, logger)
	require.NoError(t, err)
	require.True(t, live)
	require.IsType(t, &delivery.SNSChannel{}, ch)
}

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	return Config{
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
		StoreDriver:          StoreDriverSQLite,
		DatabaseFile:         filepath.Join(dir, "streamnest.db"),
		StoreTimeout:         time.Second,
		PepperFile:           filepath.Join(dir, "pepper"),
		PasswordAlgorithm:    string(cryptox.AlgorithmArgon2id),
		BcryptCost:           cryptox.DefaultBcryptCost,
		Argon2MemoryKiB:      1024,
		Argon2Iterations:     1,
		OTPTTL:               10 * time.Minute,
		OTPBrand:             "STREAMNEST",
		DeliveryTimeout:      time.Second,
		SMSProvider:          SMSProviderTwilio,
	}
}
