package domain

import "time"

// WinPredictionRequest asks for the probability that team1 beats team2.
type WinPredictionRequest struct {
	Team1        string `json:"team1" validate:"required,min=2,max=60"`
	Team2        string `json:"team2" validate:"required,min=2,max=60"`
	Venue        string `json:"venue,omitempty" validate:"omitempty,max=120"`
	TossDecision string `json:"toss_decision,omitempty" validate:"omitempty,oneof=bat field"`
}

// WinPrediction is the response for a win probability request.
type WinPrediction struct {
	Team1        string  `json:"team1"`
	Team2        string  `json:"team2"`
	Team1WinProb float64 `json:"team1_win_probability"`
	ModelVersion string  `json:"model_version"`
}

// InningsScoreRequest asks for a projected innings total.
type InningsScoreRequest struct {
	Team    string `json:"team" validate:"required,min=2,max=60"`
	Venue   string `json:"venue,omitempty" validate:"omitempty,max=120"`
	Innings int    `json:"innings" validate:"omitempty,oneof=1 2"`
}

// InningsScorePrediction is the response for an innings score request.
type InningsScorePrediction struct {
	Team           string  `json:"team"`
	Venue          string  `json:"venue,omitempty"`
	Innings        int     `json:"innings"`
	PredictedScore float64 `json:"predicted_score"`
	ModelVersion   string  `json:"model_version"`
}

// PlayerPerformanceRequest asks for a projected run contribution.
type PlayerPerformanceRequest struct {
	PlayerName string `json:"player_name" validate:"required,min=2,max=80"`
	Team       string `json:"team,omitempty" validate:"omitempty,max=60"`
	Venue      string `json:"venue,omitempty" validate:"omitempty,max=120"`
}

// PlayerPerformancePrediction is the response for a player performance
// request.
type PlayerPerformancePrediction struct {
	PlayerName          string  `json:"player_name"`
	PredictedRuns       float64 `json:"predicted_runs"`
	HistoricalTotalRuns float64 `json:"historical_total_runs"`
	ModelVersion        string  `json:"model_version"`
}

// PredictionRecord is a persisted prediction, kept for the dashboard's
// prediction history view.
type PredictionRecord struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
