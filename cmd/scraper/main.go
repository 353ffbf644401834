// Command scraper collects raw match, delivery and player data from the
// stats site and appends it to the raw CSVs.
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

	"cricpulse/internal/config"
	"cricpulse/internal/infrastructure"
	"cricpulse/internal/scraper"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(2)
		}
	}()

	var (
		baseDir  = flag.String("base-dir", "", "base directory for data and logs (default: executable dir)")
		baseURL  = flag.String("base-url", "", "override the stats site base URL")
		headless = flag.Bool("headless", true, "run the browser headless")
		timeout  = flag.Duration("timeout", 30*time.Minute, "overall scrape timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Scraper.BaseURL = *baseURL
	}
	cfg.Scraper.Headless = *headless

	paths, err := config.GetPaths(*baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "path error: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "directory error: %v\n", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("scraper.log")
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := scraper.NewFetcher(cfg.Scraper, logger)
	defer fetcher.Close()

	s := scraper.New(cfg.Scraper, paths, fetcher, logger)

	start := time.Now()
	result, err := s.Run(ctx)
	if err != nil {
		logger.Error("scrape failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		os.Exit(1)
	}

	logger.Info("scrape complete",
		slog.Int("matches", result.Matches),
		slog.Int("deliveries", result.Deliveries),
		slog.Int("players", result.Players),
		slog.Int("failed_scorecards", result.Failed),
		slog.Duration("duration", time.Since(start)))
}
