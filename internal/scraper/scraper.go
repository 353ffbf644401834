// Package scraper collects raw match, delivery and player data from the
// stats site. Pages are rendered headless, parsed best effort and
// appended to the raw CSVs that feed the cleaning stage.
package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cricpulse/internal/config"
	"cricpulse/pkg/contracts/domain"
)

// pageFetcher is the part of Fetcher the scraper needs; tests provide a
// stub serving canned HTML.
type pageFetcher interface {
	FetchHTML(ctx context.Context, url, waitSelector string) (string, error)
}

// Result summarizes one scrape run.
type Result struct {
	Matches    int `json:"matches"`
	Deliveries int `json:"deliveries"`
	Players    int `json:"players"`
	Failed     int `json:"failed_scorecards"`
}

// Scraper orchestrates a scrape run: the match list first, then each
// scorecard concurrently, then the squad pages.
type Scraper struct {
	cfg     config.ScraperConfig
	paths   *config.Paths
	fetcher pageFetcher
	logger  *slog.Logger
}

// New creates a scraper using the given fetcher.
func New(cfg config.ScraperConfig, paths *config.Paths, fetcher pageFetcher, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		cfg:     cfg,
		paths:   paths,
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "scraper")),
	}
}

// Run scrapes the results page, every scorecard and the squad list,
// appending rows to the raw CSVs. Individual scorecard failures are
// counted, not fatal.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	matches, err := s.scrapeMatches(ctx)
	if err != nil {
		return nil, err
	}
	result.Matches = len(matches)

	deliveries, failed := s.scrapeScorecards(ctx, matches)
	result.Deliveries = deliveries
	result.Failed = failed

	players, err := s.scrapePlayers(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "player scrape failed", slog.String("error", err.Error()))
	} else {
		result.Players = players
	}

	s.logger.InfoContext(ctx, "scrape completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("matches", result.Matches),
		slog.Int("deliveries", result.Deliveries),
		slog.Int("failed_scorecards", result.Failed),
	)
	return result, nil
}

func (s *Scraper) scrapeMatches(ctx context.Context) ([]domain.Match, error) {
	html, err := s.fetcher.FetchHTML(ctx, s.cfg.BaseURL+"/matches", "table")
	if err != nil {
		return nil, fmt.Errorf("scrape matches: %w", err)
	}
	matches, err := ParseMatchList(html)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("scrape matches: no rows parsed from %s/matches", s.cfg.BaseURL)
	}

	records := make([][]string, len(matches))
	for i, m := range matches {
		records[i] = m.Record()
	}
	if err := appendCSV(s.paths.RawMatchesCSV, domain.MatchHeaders, records); err != nil {
		return nil, err
	}
	return matches, nil
}

// scrapeScorecards fetches every match's ball-by-ball page with bounded
// concurrency.
func (s *Scraper) scrapeScorecards(ctx context.Context, matches []domain.Match) (written, failed int) {
	var mu sync.Mutex
	var all []domain.Delivery

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for _, m := range matches {
		match := m
		g.Go(func() error {
			url := fmt.Sprintf("%s/matches/%d/scorecard", s.cfg.BaseURL, match.MatchID)
			html, err := s.fetcher.FetchHTML(gctx, url, "table")
			if err != nil {
				s.logger.WarnContext(gctx, "scorecard fetch failed",
					slog.Int("match_id", match.MatchID),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			deliveries, err := ParseScorecard(html, match.MatchID)
			if err != nil || len(deliveries) == 0 {
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			all = append(all, deliveries...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if len(all) == 0 {
		return 0, failed
	}
	records := make([][]string, len(all))
	for i, d := range all {
		records[i] = d.Record()
	}
	if err := appendCSV(s.paths.RawDeliveriesCSV, domain.DeliveryHeaders, records); err != nil {
		s.logger.ErrorContext(ctx, "failed to write deliveries", slog.String("error", err.Error()))
		return 0, failed + len(matches)
	}
	return len(all), failed
}

func (s *Scraper) scrapePlayers(ctx context.Context) (int, error) {
	html, err := s.fetcher.FetchHTML(ctx, s.cfg.BaseURL+"/players", "table")
	if err != nil {
		return 0, fmt.Errorf("scrape players: %w", err)
	}
	players, err := ParsePlayerList(html)
	if err != nil {
		return 0, err
	}
	if len(players) == 0 {
		return 0, nil
	}

	records := make([][]string, len(players))
	for i, p := range players {
		records[i] = p.Record()
	}
	if err := appendCSV(s.paths.RawPlayersCSV, domain.PlayerHeaders, records); err != nil {
		return 0, err
	}
	return len(players), nil
}

// appendCSV appends records to path, writing headers when the file is
// new or empty.
func appendCSV(path string, headers []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
