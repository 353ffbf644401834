// Command processor runs the offline part of the pipeline over already
// scraped data: cleaning, transformation, analytics, model training and
// BI export.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"cricpulse/internal/analytics"
	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
	"cricpulse/internal/exporter"
	"cricpulse/internal/infrastructure"
	"cricpulse/internal/operations"
	"cricpulse/internal/predict"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(2)
		}
	}()

	var (
		baseDir = flag.String("base-dir", "", "base directory for data and logs (default: executable dir)")
		step    = flag.String("step", "", "run a single step (cleaning, transformation, analytics, training, export)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	paths, err := config.GetPaths(*baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "path error: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "directory error: %v\n", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("processor.log")
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := operations.NewManager(nil, nil, nil, logger)
	steps := []operations.Step{
		operations.NewCleaningStage(dataprocessing.NewCleaner(paths, logger), paths),
		operations.NewTransformationStage(dataprocessing.NewTransformer(paths, logger), paths),
		operations.NewAnalyticsStage(analytics.NewEngine(paths, logger), paths),
		operations.NewTrainingStage(predict.NewTrainer(paths, logger), nil),
		operations.NewExportStage(exporter.New(paths, logger)),
	}
	for _, s := range steps {
		if err := manager.RegisterStage(s); err != nil {
			logger.Error("failed to register step", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	start := time.Now()
	resp, err := manager.Execute(ctx, operations.OperationRequest{Step: *step})
	if err != nil {
		logger.Error("processing failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		os.Exit(1)
	}

	for _, id := range operations.StageOrder {
		stepState, ok := resp.Steps[id]
		if !ok {
			continue
		}
		logger.Info("step finished",
			slog.String("step", id),
			slog.String("status", string(stepState.GetStatus())),
			slog.Duration("duration", stepState.Duration()))
	}
	logger.Info("processing complete", slog.Duration("duration", time.Since(start)))
}
