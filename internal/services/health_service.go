package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"cricpulse/internal/config"
	"cricpulse/internal/operations"
)

// ClientCounter reports websocket connection stats for health output.
type ClientCounter interface {
	ClientCount() int
}

// HealthService reports process and data health for the dashboard.
type HealthService struct {
	version   string
	paths     *config.Paths
	manager   *operations.Manager
	hub       ClientCounter
	predictor interface{ ModelsAvailable() map[string]bool }
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service with injected dependencies.
func NewHealthService(version string, paths *config.Paths, manager *operations.Manager, hub ClientCounter, predictor interface{ ModelsAvailable() map[string]bool }, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		manager:   manager,
		hub:       hub,
		predictor: predictor,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthStatus is the health check response.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime"`
	Data      map[string]DataHealth  `json:"data"`
	Models    map[string]bool        `json:"models,omitempty"`
	Pipeline  map[string]interface{} `json:"pipeline"`
}

// DataHealth reports one pipeline artifact's availability.
type DataHealth struct {
	Available bool   `json:"available"`
	Modified  string `json:"modified,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Check builds the full health report. Missing data degrades the status
// but the process itself stays healthy.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		},
		Data:     s.dataHealth(),
		Pipeline: s.pipelineHealth(),
	}

	if s.predictor != nil {
		status.Models = s.predictor.ModelsAvailable()
	}

	anyData := false
	for _, d := range status.Data {
		if d.Available {
			anyData = true
			break
		}
	}
	if !anyData {
		status.Status = "degraded"
	}
	return status
}

func (s *HealthService) dataHealth() map[string]DataHealth {
	files := map[string]string{
		"raw_matches":      s.paths.RawMatchesCSV,
		"matches_clean":    s.paths.MatchesCleanCSV,
		"deliveries_clean": s.paths.DeliveriesCleanCSV,
		"fact_matches":     s.paths.FactMatchesCSV,
		"fact_deliveries":  s.paths.FactDeliveriesCSV,
		"final_dataset":    s.paths.FinalDatasetCSV,
	}
	out := make(map[string]DataHealth, len(files))
	for name, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			out[name] = DataHealth{Available: false}
			continue
		}
		out[name] = DataHealth{
			Available: true,
			Modified:  info.ModTime().UTC().Format(time.RFC3339),
			SizeBytes: info.Size(),
		}
	}
	return out
}

func (s *HealthService) pipelineHealth() map[string]interface{} {
	out := map[string]interface{}{
		"running": false,
	}
	if s.manager != nil {
		out["running"] = s.manager.IsRunning()
		out["steps"] = s.manager.GetRegistry().IDs()
	}
	if s.hub != nil {
		out["websocket_clients"] = s.hub.ClientCount()
	}
	return out
}
