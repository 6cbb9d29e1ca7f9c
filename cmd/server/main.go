// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "serial-service/docs"
	"serial-service/internal/config"
	"serial-service/internal/database"
	"serial-service/internal/handler"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/repository"
	"serial-service/internal/routes"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Serial
	driver  serial.Driver
	manager *service.ConnectionManager
	ports   *service.PortService

	// Events and journal
	eventBus    *handler.EventBus
	wsHandler   *handler.WebSocketHandler
	journalRepo repository.JournalRepository
	journal     *service.JournalService

	cancel context.CancelFunc
}

// @title Serial Service API
// @version 1.0.0
// @description Exposes a single serial port connection: open, close, write, read, with port enumeration and a transfer journal

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
// @BasePath /api/v1
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	utils.NewServiceLogger(logger, cfg.App.Name).LogServiceStart(cfg.App.Version, cfg.App)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeJournal(); err != nil {
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	if err := app.initializeSerial(); err != nil {
		return nil, fmt.Errorf("failed to initialize serial layer: %w", err)
	}

	app.initializeServer()

	return app, nil
}

// initializeDatabase connects to postgres and runs migrations when enabled
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, journal will be kept in memory")
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.MigrateOnStart {
		if err := database.NewMigrator(db, app.logger).Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeJournal picks the journal backend
func (app *Application) initializeJournal() error {
	if !app.config.Journal.Enabled {
		app.logger.Info("Transfer journal disabled")
		return nil
	}

	if app.database != nil {
		app.journalRepo = repository.NewJournalRepository(app.database, app.logger)
	} else {
		app.journalRepo = repository.NewMemoryJournalRepository(app.config.Journal.MemoryCapacity)
	}

	app.journal = service.NewJournalService(app.journalRepo, app.logger)
	return nil
}

// initializeSerial creates the driver, event bus and connection manager
func (app *Application) initializeSerial() error {
	driver, err := serial.NewDriver(app.config.Serial.Driver, app.logger)
	if err != nil {
		return err
	}
	app.driver = driver

	app.eventBus = handler.NewEventBus(app.config.Serial.EventBuffer, app.logger)
	app.manager = service.NewConnectionManager(driver, app.eventBus, &app.config.Serial, app.logger)
	app.ports = service.NewPortService(serial.SystemEnumerator{}, app.logger)
	app.wsHandler = handler.NewWebSocketHandler(app.manager, app.ports, app.eventBus, app.config, app.logger)

	app.logger.Info("Serial layer initialized",
		zap.String("driver", driver.Name()),
		zap.Int("max_read_size", app.config.Serial.MaxReadSize),
	)
	return nil
}

// initializeServer sets up the HTTP server
func (app *Application) initializeServer() {
	router := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.manager,
		app.ports,
		app.journal,
		app.wsHandler,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.startBackgroundServices(ctx)

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(app.config.Server.TLS.CertFile, app.config.Server.TLS.KeyFile)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		app.shutdown("shutdown signal received")
		return nil
	case err := <-serverErr:
		app.logger.Error("HTTP server failed", zap.Error(err))
		app.shutdown("http server failed")
		return err
	}
}

// startBackgroundServices starts the event bus and its consumers
func (app *Application) startBackgroundServices(ctx context.Context) {
	if app.journal != nil {
		go app.journal.Run(ctx, app.eventBus.SubscribeAll())
		go app.startJournalCleanup(ctx)
	}

	go app.wsHandler.Run(ctx)
	go app.eventBus.Start(ctx)

	app.logger.Info("Background services started")
}

// startJournalCleanup prunes journal entries past the retention window
func (app *Application) startJournalCleanup(ctx context.Context) {
	if app.config.Journal.Retention <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.Journal.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if _, err := app.journal.Prune(pruneCtx, app.config.Journal.Retention); err != nil {
				utils.LogError(app.logger, "Failed to prune journal", err)
			}
			cancel()
		}
	}
}

// shutdown performs graceful shutdown
func (app *Application) shutdown(reason string) {
	utils.NewServiceLogger(app.logger, app.config.App.Name).LogServiceStop(reason)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.manager.Shutdown()

	if app.cancel != nil {
		app.cancel()
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Fprintf(os.Stderr, "Logger close error: %v\n", err)
	}
}
