package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/delivery"
	httpapi "github.com/aussiebroadwan/streamnest/internal/auth/http"
	"github.com/aussiebroadwan/streamnest/internal/auth/service"
	"github.com/aussiebroadwan/streamnest/internal/auth/store"
	"github.com/aussiebroadwan/streamnest/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/streamnest/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/streamnest/pkg/cryptox"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the accounts service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	vault   *cryptox.Vault
	channel delivery.Channel
	devMode bool

	// Services
	otpService          *service.OTPService
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService
	housekeepingRunning bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "streamnest-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initVault(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initDelivery(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.housekeepingRunning = true

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"otp_dev_mode", app.devMode,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingRunning {
		app.housekeepingService.Stop()
		app.housekeepingRunning = false
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := openStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		return sqlite.NewStore("file:" + cfg.DatabaseFile)
	}
}

// initVault loads the pepper and configures password hashing
func (app *Application) initVault() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.vault = cryptox.NewVault(
		cryptox.WithAlgorithm(cryptox.Algorithm(app.cfg.PasswordAlgorithm)),
		cryptox.WithArgon2Params(app.cfg.Argon2Params()),
		cryptox.WithBcryptCost(app.cfg.BcryptCost),
		cryptox.WithPepper(pepper),
	)
	return nil
}

// initDelivery picks the SMS channel. Without a live provider codes are
// logged and returned inline.
func (app *Application) initDelivery(ctx context.Context) error {
	ch, live, err := newChannel(ctx, app.cfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sms delivery: %w", err)
	}
	app.channel = ch
	app.devMode = !live

	if app.devMode {
		app.logger.Warn("otp dev mode enabled: codes are logged and returned in responses")
	}
	return nil
}

func newChannel(ctx context.Context, cfg Config, logger *slog.Logger) (delivery.Channel, bool, error) {
	if !cfg.LiveDelivery() {
		return delivery.NewLogChannel(logger), false, nil
	}

	switch cfg.SMSProvider {
	case SMSProviderSNS:
		ch, err := delivery.NewSNSChannel(ctx, cfg.SNS)
		if err != nil {
			return nil, false, err
		}
		return ch, true, nil
	default:
		ch, err := delivery.NewTwilioChannel(cfg.Twilio)
		if err != nil {
			return nil, false, err
		}
		return ch, true, nil
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.otpService = service.NewOTPService(app.db, app.channel, service.OTPConfig{
		TTL:             app.cfg.OTPTTL,
		Brand:           app.cfg.OTPBrand,
		DevMode:         app.devMode,
		StoreTimeout:    app.cfg.StoreTimeout,
		DeliveryTimeout: app.cfg.DeliveryTimeout,
	})

	app.authService = service.NewAuthService(app.db, app.vault, app.cfg.StoreTimeout)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.Timeout = app.cfg.StoreTimeout
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.OTPService = app.otpService
	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
