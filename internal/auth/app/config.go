package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/delivery"
	"github.com/aussiebroadwan/streamnest/pkg/cryptox"
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"

	SMSProviderTwilio = "twilio"
	SMSProviderSNS    = "sns"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired OTP purge interval (default: 1h)

	StoreDriver  string // sqlite or postgres (default: sqlite)
	DatabaseFile string // SQLite database file (default: ./streamnest.db)
	DatabaseURL  string // Postgres connection URL, required for the postgres driver
	StoreTimeout time.Duration

	PepperFile        string // File holding the password pepper (default: ./pepper)
	PasswordAlgorithm string // argon2id or bcrypt (default: argon2id)
	BcryptCost        int
	Argon2MemoryKiB   int
	Argon2Iterations  int

	OTPDevMode      bool          // Log codes and return them to the caller instead of texting
	OTPTTL          time.Duration // Code lifetime (default: 10m)
	OTPBrand        string        // Brand in the SMS body (default: STREAMNEST)
	DeliveryTimeout time.Duration

	SMSProvider string // twilio or sns (default: twilio)
	Twilio      delivery.TwilioConfig
	SNS         delivery.SNSConfig
}

func LoadConfig() Config {
	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		StoreDriver:  strings.ToLower(getEnvOrDefault("AUTH_STORE_DRIVER", StoreDriverSQLite)),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "streamnest.db"),
		DatabaseURL:  os.Getenv("AUTH_DATABASE_URL"),
		StoreTimeout: getEnvDurationOrDefault("STORE_TIMEOUT", 5*time.Second),

		PepperFile:        getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		PasswordAlgorithm: strings.ToLower(getEnvOrDefault("AUTH_PASSWORD_ALGORITHM", string(cryptox.AlgorithmArgon2id))),
		BcryptCost:        getEnvIntOrDefault("AUTH_BCRYPT_COST", cryptox.DefaultBcryptCost),
		Argon2MemoryKiB:   getEnvIntOrDefault("AUTH_ARGON2_MEMORY_KIB", int(cryptox.DefaultArgon2Params.Memory)),
		Argon2Iterations:  getEnvIntOrDefault("AUTH_ARGON2_ITERATIONS", int(cryptox.DefaultArgon2Params.Iterations)),

		OTPDevMode:      getEnvBoolOrDefault("OTP_DEV_MODE", false),
		OTPTTL:          getEnvDurationOrDefault("OTP_TTL", 10*time.Minute),
		OTPBrand:        getEnvOrDefault("OTP_BRAND", "STREAMNEST"),
		DeliveryTimeout: getEnvDurationOrDefault("DELIVERY_TIMEOUT", 10*time.Second),

		SMSProvider: strings.ToLower(getEnvOrDefault("SMS_PROVIDER", SMSProviderTwilio)),
		Twilio: delivery.TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_PHONE_NUMBER"),
		},
		SNS: delivery.SNSConfig{
			Region:          os.Getenv("AWS_REGION"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SenderID:        os.Getenv("SNS_SENDER_ID"),
		},
	}
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for the sqlite driver"))
		}
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_STORE_DRIVER %q", c.StoreDriver))
	}

	switch cryptox.Algorithm(c.PasswordAlgorithm) {
	case cryptox.AlgorithmArgon2id, cryptox.AlgorithmBcrypt:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PASSWORD_ALGORITHM %q", c.PasswordAlgorithm))
	}

	switch c.SMSProvider {
	case SMSProviderTwilio, SMSProviderSNS:
	default:
		errs = append(errs, fmt.Errorf("unknown SMS_PROVIDER %q", c.SMSProvider))
	}

	if c.Argon2MemoryKiB <= 0 || c.Argon2Iterations <= 0 {
		errs = append(errs, errors.New("argon2 memory and iterations must be positive"))
	} else if c.Argon2MemoryKiB > cryptox.MaxArgon2Memory {
		errs = append(errs, fmt.Errorf("AUTH_ARGON2_MEMORY_KIB must not exceed %d", cryptox.MaxArgon2Memory))
	} else if err := c.Argon2Params().Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := cryptox.ValidateBcryptCost(c.BcryptCost); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST: %w", err))
	}

	if c.OTPTTL < time.Minute {
		errs = append(errs, fmt.Errorf("OTP_TTL must be at least 1m, got %s", c.OTPTTL))
	}

	return errors.Join(errs...)
}

// LiveDelivery reports whether codes are texted. Without a configured
// provider the service falls back to dev mode.
func (c Config) LiveDelivery() bool {
	if c.OTPDevMode {
		return false
	}
	switch c.SMSProvider {
	case SMSProviderSNS:
		return c.SNS.Region != ""
	default:
		return c.Twilio.Configured()
	}
}

// Argon2Params applies the configured work factor over the defaults.
func (c Config) Argon2Params() cryptox.Argon2Params {
	p := cryptox.DefaultArgon2Params
	if c.Argon2MemoryKiB > 0 {
		p.Memory = uint32(c.Argon2MemoryKiB)
	}
	if c.Argon2Iterations > 0 {
		p.Iterations = uint32(c.Argon2Iterations)
	}
	return p
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
