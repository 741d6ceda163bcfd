package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/tradelane/gatehouse/internal/gatehouse/http"
	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/internal/gatehouse/store/drivers/sqlite"
	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the token service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db   store.Store
	keys *KeyMaterial

	issuerService       *service.IssuerService
	verifierService     *service.VerifierService
	revocationLedger    *service.RevocationLedger
	sessionService      *service.SessionService
	directoryService    *service.DirectoryService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. The ordering
// is fail-fast: config, logger, store+migrations, key material, services,
// router. Anything wrong with the environment surfaces here, not mid-request.
func New(cfg Config) (*Application, error) {
	if cfg.CSRFSecret == "" {
		return nil, fmt.Errorf("GATEHOUSE_CSRF_SECRET must be set")
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := LoadKeyMaterial(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize key material: %w", err)
	}
	app.keys = keys

	app.initServices()

	if err := app.seedAdminClient(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// seedAdminClient creates the protected admin client on first run so the
// admin surface is reachable before any client exists.
func (app *Application) seedAdminClient() error {
	ctx := context.Background()

	bootstrapped, err := app.bootstrapService.IsBootstrapped(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap state: %w", err)
	}
	if bootstrapped {
		return nil
	}

	client, secret, err := app.bootstrapService.SeedAdminClient(
		ctx,
		app.cfg.BootstrapClientName,
		[]string{httpapi.AdminScope},
	)
	if err != nil {
		return fmt.Errorf("failed to seed admin client: %w", err)
	}

	// The secret is printed once here and never stored in plaintext;
	// rotate it through the admin surface after capturing it.
	app.logger.Warn("seeded admin client on empty directory",
		"client_id", client.ID,
		"client_name", client.Name,
		"client_secret", secret,
	)
	return nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatehouse starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"can_issue", app.keys.CanIssue(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatehouse...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.revocationLedger = service.NewRevocationLedger(app.db)

	app.issuerService = &service.IssuerService{
		Signer:          app.keys.Signer,
		Store:           app.db,
		Issuer:          app.cfg.Issuer,
		M2MIssuer:       app.cfg.M2MIssuer,
		BrandID:         app.cfg.BrandID,
		UserTokenTTL:    app.cfg.UserTokenTTL,
		MaxUserTokenTTL: app.cfg.MaxUserTokenTTL,
		MachineTokenTTL: app.cfg.MachineTokenTTL,
	}

	app.verifierService = &service.VerifierService{
		Verifier: jwtx.NewVerifierRS256(app.keys.Keys, jwtx.VerifierOptions{
			Leeway: jwtx.DefaultLeeway,
		}),
		Ledger:         app.revocationLedger,
		M2MIssuer:      app.cfg.M2MIssuer,
		BrandWhitelist: app.cfg.BrandWhitelist,
	}

	app.sessionService = &service.SessionService{
		Store:      app.db,
		Ledger:     app.revocationLedger,
		SessionTTL: app.cfg.SessionTTL,
		CSRFSecret: []byte(app.cfg.CSRFSecret),
	}

	app.directoryService = &service.DirectoryService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys.Keys, BuildVersion, app.db, app.logger)
	router.Issuer = app.issuerService
	router.Verifier = app.verifierService
	router.Ledger = app.revocationLedger
	router.Sessions = app.sessionService
	router.Directory = app.directoryService
	router.SecureCookies = app.cfg.SecureCookies
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
