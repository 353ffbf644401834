package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
)

// TrainResult reports what each training pass produced.
type TrainResult struct {
	WinModelVersion     string  `json:"win_model_version"`
	WinSamples          int     `json:"win_samples"`
	WinTrainAccuracy    float64 `json:"win_train_accuracy"`
	InningsModelVersion string  `json:"innings_model_version"`
	InningsSamples      int     `json:"innings_samples"`
	InningsRMSE         float64 `json:"innings_rmse"`
	PlayerModelVersion  string  `json:"player_model_version"`
	PlayersTracked      int     `json:"players_tracked"`
}

// Trainer fits the three models from the transformed tables and
// persists them as JSON bundles under models/.
type Trainer struct {
	paths  *config.Paths
	logger *slog.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer over the configured paths.
func NewTrainer(paths *config.Paths, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		paths:  paths,
		logger: logger.With(slog.String("component", "trainer")),
		now:    time.Now,
	}
}

// TrainAll trains the win, innings-score and player-performance models.
func (tr *Trainer) TrainAll(ctx context.Context) (*TrainResult, error) {
	start := tr.now()
	result := &TrainResult{}

	win, err := tr.trainWinModel()
	if err != nil {
		return nil, err
	}
	result.WinModelVersion = win.Version
	result.WinSamples = win.Samples
	result.WinTrainAccuracy = win.TrainAccuracy

	innings, err := tr.trainInningsModel()
	if err != nil {
		return nil, err
	}
	result.InningsModelVersion = innings.Version
	result.InningsSamples = innings.Samples
	result.InningsRMSE = innings.RMSE

	player, err := tr.trainPlayerModel()
	if err != nil {
		return nil, err
	}
	result.PlayerModelVersion = player.Version
	result.PlayersTracked = len(player.Players)

	tr.logger.InfoContext(ctx, "training completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("win_samples", result.WinSamples),
		slog.Int("innings_samples", result.InningsSamples),
		slog.Int("players", result.PlayersTracked),
	)
	return result, nil
}

// trainWinModel fits logistic regression on the team1_win label of the
// matches fact table. Both outcomes must be present.
func (tr *Trainer) trainWinModel() (*WinModel, error) {
	t, err := dataprocessing.ReadCSV(tr.paths.FactMatchesCSV)
	if err != nil {
		return nil, fmt.Errorf("train win model: %w", err)
	}
	if !t.HasColumn("team1_win") {
		return nil, fmt.Errorf("train win model: no team1_win column, run transformation first")
	}

	teams := teamUniverse(t)
	if len(teams) < 2 {
		return nil, fmt.Errorf("train win model: need at least 2 teams, have %d", len(teams))
	}

	model := &WinModel{Teams: teams}

	var features [][]float64
	var labels []float64
	positives := 0
	for i := 0; i < t.Len(); i++ {
		team1 := t.Cell(i, "team1")
		team2 := t.Cell(i, "team2")
		if team1 == "" || team2 == "" || t.Cell(i, "winner") == "" {
			continue
		}
		tossBat := t.Cell(i, "toss_decision") == "bat" && t.Cell(i, "toss_winner") == team1
		label := float64(t.IntCell(i, "team1_win"))
		if label == 1 {
			positives++
		}
		features = append(features, model.featureVector(team1, team2, tossBat))
		labels = append(labels, label)
	}

	if len(features) == 0 {
		return nil, fmt.Errorf("train win model: no decided matches to train on")
	}
	if positives == 0 || positives == len(labels) {
		return nil, fmt.Errorf("train win model: need both outcomes present, have %d/%d team1 wins", positives, len(labels))
	}

	model.Weights = trainLogistic(features, labels)
	model.TrainAccuracy = trainingAccuracy(model.Weights, features, labels)
	model.Samples = len(features)
	model.TrainedAt = tr.now()
	model.Version = modelVersion("logreg", model.TrainedAt)

	if err := saveBundle(tr.paths.WinModelFile, model); err != nil {
		return nil, err
	}
	return model, nil
}

// trainInningsModel fits least squares on per-innings totals derived
// from the deliveries fact table, with team and venue encodings.
func (tr *Trainer) trainInningsModel() (*InningsModel, error) {
	deliveries, err := dataprocessing.ReadCSV(tr.paths.FactDeliveriesCSV)
	if err != nil {
		return nil, fmt.Errorf("train innings model: %w", err)
	}
	matches, err := dataprocessing.ReadCSV(tr.paths.FactMatchesCSV)
	if err != nil {
		return nil, fmt.Errorf("train innings model: %w", err)
	}
	totalCol, err := dataprocessing.ResolveColumn(deliveries, dataprocessing.TotalRunsCandidates, true)
	if err != nil {
		return nil, fmt.Errorf("train innings model: %w", err)
	}
	teamCol, err := dataprocessing.ResolveColumn(deliveries, dataprocessing.BatTeamCandidates, false)
	if err != nil {
		return nil, err
	}

	venueByMatch := make(map[int]string)
	for i := 0; i < matches.Len(); i++ {
		venueByMatch[matches.IntCell(i, "match_id")] = matches.Cell(i, "venue")
	}

	type inningsKey struct {
		matchID int
		innings int
		team    string
	}
	totals := make(map[inningsKey]int)
	for i := 0; i < deliveries.Len(); i++ {
		k := inningsKey{
			matchID: deliveries.IntCell(i, "match_id"),
			innings: deliveries.IntCell(i, "innings"),
		}
		if teamCol != "" {
			k.team = deliveries.Cell(i, teamCol)
		}
		totals[k] += deliveries.IntCell(i, totalCol)
	}
	if len(totals) == 0 {
		return nil, fmt.Errorf("train innings model: no deliveries to train on")
	}

	teamSet := make(map[string]bool)
	venueSet := make(map[string]bool)
	for k := range totals {
		if k.team != "" {
			teamSet[k.team] = true
		}
		if v := venueByMatch[k.matchID]; v != "" {
			venueSet[v] = true
		}
	}

	model := &InningsModel{
		Teams:  sortedKeys(teamSet),
		Venues: sortedKeys(venueSet),
	}

	var features [][]float64
	var targets []float64
	sum := 0.0
	for k, total := range totals {
		features = append(features, model.featureVector(k.team, venueByMatch[k.matchID], k.innings))
		targets = append(targets, float64(total))
		sum += float64(total)
	}

	model.Weights, err = solveLeastSquares(features, targets)
	if err != nil {
		return nil, fmt.Errorf("train innings model: %w", err)
	}
	model.RMSE = rmse(model.Weights, features, targets)
	model.MeanScore = sum / float64(len(targets))
	model.Samples = len(features)
	model.TrainedAt = tr.now()
	model.Version = modelVersion("lsq", model.TrainedAt)

	if err := saveBundle(tr.paths.InningsModelFile, model); err != nil {
		return nil, err
	}
	return model, nil
}

// trainPlayerModel aggregates each player's historical run totals from
// the final dataset.
func (tr *Trainer) trainPlayerModel() (*PlayerModel, error) {
	t, err := dataprocessing.ReadCSV(tr.paths.FinalDatasetCSV)
	if err != nil {
		return nil, fmt.Errorf("train player model: %w", err)
	}
	if !t.HasColumn("player_name") {
		return nil, fmt.Errorf("train player model: no player_name column in final dataset")
	}

	type agg struct {
		runs        int
		appearances int
	}
	byPlayer := make(map[string]*agg)
	for i := 0; i < t.Len(); i++ {
		name := t.Cell(i, "player_name")
		if name == "" || t.Cell(i, "runs_scored") == "" {
			continue
		}
		a := byPlayer[name]
		if a == nil {
			a = &agg{}
			byPlayer[name] = a
		}
		a.runs += t.IntCell(i, "runs_scored")
		a.appearances++
	}
	if len(byPlayer) == 0 {
		return nil, fmt.Errorf("train player model: no batting rows in final dataset")
	}

	model := &PlayerModel{
		Players:   make(map[string]PlayerStats, len(byPlayer)),
		TrainedAt: tr.now(),
	}
	model.Version = modelVersion("player", model.TrainedAt)
	for name, a := range byPlayer {
		model.Players[name] = PlayerStats{
			TotalRuns:   a.runs,
			Appearances: a.appearances,
			AvgRuns:     float64(a.runs) / float64(a.appearances),
		}
	}

	if err := saveBundle(tr.paths.PlayerModelFile, model); err != nil {
		return nil, err
	}
	return model, nil
}

func teamUniverse(t *dataprocessing.Table) []string {
	set := make(map[string]bool)
	for _, col := range []string{"team1", "team2"} {
		for _, v := range t.Distinct(col) {
			set[v] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
