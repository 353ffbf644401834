// Package app wires the full server: config, logging, pipeline stages,
// services, HTTP transport and the websocket hub.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cricpulse/internal/analytics"
	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
	"cricpulse/internal/exporter"
	"cricpulse/internal/infrastructure"
	"cricpulse/internal/operations"
	"cricpulse/internal/predict"
	"cricpulse/internal/scraper"
	"cricpulse/internal/services"
	transporthttp "cricpulse/internal/transport/http"
	"cricpulse/internal/websocket"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Application holds every long-lived component of the server.
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Hub     *websocket.Hub
	Manager *operations.Manager
	Server  *http.Server

	fetcher *scraper.Fetcher
	store   *predict.Store
}

// NewApplication builds the application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	paths, err := config.GetPaths(cfg.Paths.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	if cfg.Logging.FilePath == "logs/app.log" {
		cfg.Logging.FilePath = paths.GetLogPath("app.log")
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	hub := websocket.NewHub(logger)

	store, err := predict.OpenStore(paths.PredictionsDB)
	if err != nil {
		// Predictions still work without history persistence.
		logger.Warn("prediction store unavailable", slog.String("error", err.Error()))
		store = nil
	}
	predictor := predict.NewPredictor(paths, store, logger)

	fetcher := scraper.NewFetcher(cfg.Scraper, logger)
	manager := operations.NewManager(hub, nil, nil, logger)
	err = operations.RegisterDefaultStages(manager,
		scraper.New(cfg.Scraper, paths, fetcher, logger),
		dataprocessing.NewCleaner(paths, logger),
		dataprocessing.NewTransformer(paths, logger),
		analytics.NewEngine(paths, logger),
		predict.NewTrainer(paths, logger),
		exporter.New(paths, logger),
		paths,
		predictor.Reload,
	)
	if err != nil {
		return nil, fmt.Errorf("register pipeline stages: %w", err)
	}

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Config:     cfg,
		Paths:      paths,
		Logger:     logger,
		Hub:        hub,
		Data:       services.NewDataService(paths, logger),
		Prediction: services.NewPredictionService(predictor, logger),
		Operations: services.NewOperationService(manager, logger),
		Health:     services.NewHealthService(Version, paths, manager, hub, predictor, logger),
	})

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Hub:     hub,
		Manager: manager,
		Server:  server,
		fetcher: fetcher,
		store:   store,
	}, nil
}

// Start brings up the hub and the HTTP server.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("base_dir", a.Paths.BaseDir))

	a.Hub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "server started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully shuts everything down.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Hub.Stop()
	if a.fetcher != nil {
		a.fetcher.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.WarnContext(ctx, "closing prediction store", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
