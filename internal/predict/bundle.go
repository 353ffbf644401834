package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotTrained is returned when a prediction is requested before the
// corresponding model bundle exists on disk.
var ErrNotTrained = errors.New("model not found: run training first")

// WinModel is the persisted win-probability model: logistic weights
// over a bias, a toss flag and one-hot team encodings.
type WinModel struct {
	Version       string    `json:"version"`
	TrainedAt     time.Time `json:"trained_at"`
	Teams         []string  `json:"teams"`
	Weights       []float64 `json:"weights"`
	TrainAccuracy float64   `json:"train_accuracy"`
	Samples       int       `json:"samples"`
}

// featureVector builds [bias, tossBat, team1 one-hot..., team2 one-hot...].
// Unknown teams leave their block zeroed, which degrades to the bias
// prior rather than failing.
func (m *WinModel) featureVector(team1, team2 string, tossBat bool) []float64 {
	x := make([]float64, 2+2*len(m.Teams))
	x[0] = 1.0
	if tossBat {
		x[1] = 1.0
	}
	for i, team := range m.Teams {
		if team == team1 {
			x[2+i] = 1.0
		}
		if team == team2 {
			x[2+len(m.Teams)+i] = 1.0
		}
	}
	return x
}

// Predict returns the probability that team1 wins.
func (m *WinModel) Predict(team1, team2 string, tossBat bool) float64 {
	return sigmoid(dot(m.Weights, m.featureVector(team1, team2, tossBat)))
}

// InningsModel is the persisted innings-score model: least-squares
// weights over a bias, a second-innings flag and one-hot team and venue
// encodings.
type InningsModel struct {
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Teams     []string  `json:"teams"`
	Venues    []string  `json:"venues"`
	Weights   []float64 `json:"weights"`
	RMSE      float64   `json:"rmse"`
	MeanScore float64   `json:"mean_score"`
	Samples   int       `json:"samples"`
}

func (m *InningsModel) featureVector(team, venue string, innings int) []float64 {
	x := make([]float64, 2+len(m.Teams)+len(m.Venues))
	x[0] = 1.0
	if innings == 2 {
		x[1] = 1.0
	}
	for i, t := range m.Teams {
		if t == team {
			x[2+i] = 1.0
			break
		}
	}
	for i, v := range m.Venues {
		if v == venue {
			x[2+len(m.Teams)+i] = 1.0
			break
		}
	}
	return x
}

// Predict returns the projected innings total, floored at zero.
func (m *InningsModel) Predict(team, venue string, innings int) float64 {
	score := dot(m.Weights, m.featureVector(team, venue, innings))
	if score < 0 {
		return 0
	}
	return score
}

// PlayerStats is one player's historical batting record.
type PlayerStats struct {
	TotalRuns   int     `json:"total_runs"`
	Appearances int     `json:"appearances"`
	AvgRuns     float64 `json:"avg_runs"`
}

// PlayerModel is the persisted player-performance model: per-player
// historical run aggregates.
type PlayerModel struct {
	Version   string                 `json:"version"`
	TrainedAt time.Time              `json:"trained_at"`
	Players   map[string]PlayerStats `json:"players"`
}

// Lookup returns the stats for a player, false when unseen.
func (m *PlayerModel) Lookup(name string) (PlayerStats, bool) {
	stats, ok := m.Players[name]
	return stats, ok
}

func saveBundle(path string, bundle interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model bundle: %w", err)
	}
	return nil
}

func loadBundle(path string, bundle interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotTrained
		}
		return fmt.Errorf("failed to read model bundle: %w", err)
	}
	if err := json.Unmarshal(data, bundle); err != nil {
		return fmt.Errorf("failed to parse model bundle %s: %w", path, err)
	}
	return nil
}

func modelVersion(prefix string, trainedAt time.Time) string {
	return prefix + "-" + trainedAt.UTC().Format("20060102150405")
}
