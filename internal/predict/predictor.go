// Package predict trains and serves the prediction models: a logistic
// regression for match outcome, a least-squares innings score model and
// a historical player performance estimate. Trained models persist as
// JSON bundles; predictions are recorded to a SQLite history store.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
	"cricpulse/pkg/contracts/domain"
)

// canonical maps request team names onto the codes used in training.
func canonical(team string) string {
	return dataprocessing.CanonicalTeam(team)
}

// Predictor serves predictions from the persisted model bundles.
// Bundles are loaded lazily and cached until Reload.
type Predictor struct {
	paths  *config.Paths
	logger *slog.Logger
	store  *Store

	mu      sync.RWMutex
	win     *WinModel
	innings *InningsModel
	player  *PlayerModel
}

// NewPredictor creates a predictor over the configured paths. The store
// is optional; without it predictions are served but not recorded.
func NewPredictor(paths *config.Paths, store *Store, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{
		paths:  paths,
		logger: logger.With(slog.String("component", "predictor")),
		store:  store,
	}
}

// Reload drops the cached models so the next prediction reads fresh
// bundles. Called after training completes.
func (p *Predictor) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.win = nil
	p.innings = nil
	p.player = nil
}

// PredictWin returns the probability that team1 beats team2.
func (p *Predictor) PredictWin(ctx context.Context, req domain.WinPredictionRequest) (*domain.WinPrediction, error) {
	model, err := p.winModel()
	if err != nil {
		return nil, err
	}

	team1 := canonical(req.Team1)
	team2 := canonical(req.Team2)
	tossBat := req.TossDecision == "bat"
	prob := model.Predict(team1, team2, tossBat)

	p.record(ctx, "win", team1+" vs "+team2, prob)
	return &domain.WinPrediction{
		Team1:        team1,
		Team2:        team2,
		Team1WinProb: prob,
		ModelVersion: model.Version,
	}, nil
}

// PredictInningsScore returns the projected innings total for a team.
func (p *Predictor) PredictInningsScore(ctx context.Context, req domain.InningsScoreRequest) (*domain.InningsScorePrediction, error) {
	model, err := p.inningsModel()
	if err != nil {
		return nil, err
	}

	innings := req.Innings
	if innings == 0 {
		innings = 1
	}
	team := canonical(req.Team)
	score := model.Predict(team, req.Venue, innings)

	p.record(ctx, "innings_score", team, score)
	return &domain.InningsScorePrediction{
		Team:           team,
		Venue:          req.Venue,
		Innings:        innings,
		PredictedScore: score,
		ModelVersion:   model.Version,
	}, nil
}

// PredictPlayerPerformance returns the expected run contribution for a
// player based on their historical record.
func (p *Predictor) PredictPlayerPerformance(ctx context.Context, req domain.PlayerPerformanceRequest) (*domain.PlayerPerformancePrediction, error) {
	model, err := p.playerModel()
	if err != nil {
		return nil, err
	}

	stats, ok := model.Lookup(req.PlayerName)
	if !ok {
		return nil, fmt.Errorf("player %q not found in training data", req.PlayerName)
	}

	p.record(ctx, "player_performance", req.PlayerName, stats.AvgRuns)
	return &domain.PlayerPerformancePrediction{
		PlayerName:          req.PlayerName,
		PredictedRuns:       stats.AvgRuns,
		HistoricalTotalRuns: float64(stats.TotalRuns),
		ModelVersion:        model.Version,
	}, nil
}

// History returns the latest recorded predictions.
func (p *Predictor) History(ctx context.Context, n int) ([]domain.PredictionRecord, error) {
	if p.store == nil {
		return nil, nil
	}
	return p.store.Recent(ctx, n)
}

// ModelsAvailable reports which model bundles exist on disk.
func (p *Predictor) ModelsAvailable() map[string]bool {
	check := func(load func() error) bool { return load() == nil }
	return map[string]bool{
		"win":                check(func() error { _, err := p.winModel(); return err }),
		"innings_score":      check(func() error { _, err := p.inningsModel(); return err }),
		"player_performance": check(func() error { _, err := p.playerModel(); return err }),
	}
}

func (p *Predictor) winModel() (*WinModel, error) {
	p.mu.RLock()
	if p.win != nil {
		defer p.mu.RUnlock()
		return p.win, nil
	}
	p.mu.RUnlock()

	model := &WinModel{}
	if err := loadBundle(p.paths.WinModelFile, model); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.win = model
	p.mu.Unlock()
	return model, nil
}

func (p *Predictor) inningsModel() (*InningsModel, error) {
	p.mu.RLock()
	if p.innings != nil {
		defer p.mu.RUnlock()
		return p.innings, nil
	}
	p.mu.RUnlock()

	model := &InningsModel{}
	if err := loadBundle(p.paths.InningsModelFile, model); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.innings = model
	p.mu.Unlock()
	return model, nil
}

func (p *Predictor) playerModel() (*PlayerModel, error) {
	p.mu.RLock()
	if p.player != nil {
		defer p.mu.RUnlock()
		return p.player, nil
	}
	p.mu.RUnlock()

	model := &PlayerModel{}
	if err := loadBundle(p.paths.PlayerModelFile, model); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.player = model
	p.mu.Unlock()
	return model, nil
}

func (p *Predictor) record(ctx context.Context, kind, subject string, value float64) {
	if p.store == nil {
		return
	}
	if err := p.store.Record(ctx, kind, subject, value); err != nil {
		p.logger.WarnContext(ctx, "failed to record prediction",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}
