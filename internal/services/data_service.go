// Package services sits between the HTTP handlers and the pipeline
// packages, translating domain errors into API errors.
package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/analytics"
	"cricpulse/internal/config"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// DataService serves aggregate views for the dashboard.
type DataService struct {
	engine *analytics.Engine
	paths  *config.Paths
	logger *slog.Logger
}

// NewDataService creates a data service over the configured paths.
func NewDataService(paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		engine: analytics.NewEngine(paths, logger),
		paths:  paths,
		logger: logger.With(slog.String("component", "data_service")),
	}
}

// clampLimit applies the default and ceiling for leaderboard sizes.
func clampLimit(n int) int {
	if n <= 0 {
		return defaultLeaderboardSize
	}
	if n > maxLeaderboardSize {
		return maxLeaderboardSize
	}
	return n
}

// wrapDataErr maps missing pipeline outputs onto 404s.
func wrapDataErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return apierrors.DataNotFoundError(err)
	}
	return apierrors.ErrInternalServer
}

// GetOverview returns the dataset summary.
func (s *DataService) GetOverview(ctx context.Context) (*analytics.Overview, error) {
	overview, err := s.engine.DatasetOverview()
	if err != nil {
		s.logger.WarnContext(ctx, "overview unavailable", slog.String("error", err.Error()))
		return nil, wrapDataErr(err)
	}
	return overview, nil
}

// GetTopScorers returns the n highest run scorers.
func (s *DataService) GetTopScorers(ctx context.Context, n int) ([]analytics.ScorerStat, error) {
	stats, err := s.engine.TopScorers(clampLimit(n))
	if err != nil {
		return nil, wrapDataErr(err)
	}
	return stats, nil
}

// GetTopWicketTakers returns the n most successful bowlers.
func (s *DataService) GetTopWicketTakers(ctx context.Context, n int) ([]analytics.WicketStat, error) {
	stats, err := s.engine.TopWicketTakers(clampLimit(n))
	if err != nil {
		return nil, wrapDataErr(err)
	}
	return stats, nil
}

// GetVenuePerformance returns per-venue scoring aggregates.
func (s *DataService) GetVenuePerformance(ctx context.Context) ([]analytics.VenueStat, error) {
	stats, err := s.engine.VenuePerformance()
	if err != nil {
		return nil, wrapDataErr(err)
	}
	return stats, nil
}

// GetTossImpact returns the toss outcome analysis.
func (s *DataService) GetTossImpact(ctx context.Context) (*analytics.TossImpact, error) {
	impact, err := s.engine.TossAnalysis()
	if err != nil {
		return nil, wrapDataErr(err)
	}
	return impact, nil
}

// GetRunDistribution groups delivery runs by innings, over or team.
func (s *DataService) GetRunDistribution(ctx context.Context, dimension string) ([]analytics.RunBucket, error) {
	switch dimension {
	case "", "innings":
		dimension = "innings"
	case "over", "team":
	default:
		return nil, apierrors.ErrValidation("dimension", "must be one of innings, over, team")
	}
	buckets, err := s.engine.RunDistribution(dimension)
	if err != nil {
		return nil, wrapDataErr(err)
	}
	return buckets, nil
}

// ReportFile describes one generated analytics artifact.
type ReportFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// ListReports lists the JSON and CSV artifacts under the analytics dir.
func (s *DataService) ListReports(ctx context.Context) ([]ReportFile, error) {
	entries, err := os.ReadDir(s.paths.AnalyticsDir)
	if err != nil {
		return nil, wrapDataErr(err)
	}
	reports := make([]ReportFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".csv" && ext != ".xlsx" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, ReportFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return reports, nil
}
