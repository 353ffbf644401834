// Package analytics computes aggregate views over the fact tables:
// top scorers, wicket takers, venue performance, toss impact and run
// distributions. Results feed the dashboard API and land as JSON under
// data/analytics for BI tooling.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
)

// dismissals not credited to the bowler
var nonBowlerDismissals = map[string]bool{
	"run out":               true,
	"retired hurt":          true,
	"retired out":           true,
	"obstructing the field": true,
	"timed out":             true,
}

// ScorerStat is one row of the top-scorers leaderboard.
type ScorerStat struct {
	Player     string  `json:"player"`
	Runs       int     `json:"runs"`
	BallsFaced int     `json:"balls_faced"`
	StrikeRate float64 `json:"strike_rate"`
}

// WicketStat is one row of the wicket-takers leaderboard.
type WicketStat struct {
	Bowler  string `json:"bowler"`
	Wickets int    `json:"wickets"`
}

// VenueStat aggregates scoring at one venue.
type VenueStat struct {
	Venue           string  `json:"venue"`
	Matches         int     `json:"matches"`
	TotalRuns       int     `json:"total_runs"`
	AvgRunsPerMatch float64 `json:"avg_runs_per_match"`
}

// TossImpact reports how often winning the toss meant winning the match.
type TossImpact struct {
	MatchesWithResult int                       `json:"matches_with_result"`
	TossWinnerWins    int                       `json:"toss_winner_wins"`
	WinRate           float64                   `json:"win_rate"`
	ByDecision        map[string]DecisionImpact `json:"by_decision"`
}

// DecisionImpact splits toss impact by the decision taken.
type DecisionImpact struct {
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// RunBucket is one group of a run distribution.
type RunBucket struct {
	Key        string  `json:"key"`
	Deliveries int     `json:"deliveries"`
	Runs       int     `json:"runs"`
	AvgRuns    float64 `json:"avg_runs"`
}

// Overview is the dataset summary served by the dashboard landing page.
type Overview struct {
	Matches    int      `json:"matches"`
	Deliveries int      `json:"deliveries"`
	Players    int      `json:"players"`
	Teams      []string `json:"teams"`
	Venues     int      `json:"venues"`
	DateFrom   string   `json:"date_from,omitempty"`
	DateTo     string   `json:"date_to,omitempty"`
}

// Engine computes analytics over the transformed tables.
type Engine struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewEngine creates an analytics engine over the configured paths.
func NewEngine(paths *config.Paths, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		paths:  paths,
		logger: logger.With(slog.String("component", "analytics")),
	}
}

func (e *Engine) deliveries() (*dataprocessing.Table, error) {
	t, err := dataprocessing.ReadCSV(e.paths.FactDeliveriesCSV)
	if err != nil {
		return nil, fmt.Errorf("analytics: deliveries unavailable: %w", err)
	}
	return t, nil
}

func (e *Engine) matches() (*dataprocessing.Table, error) {
	t, err := dataprocessing.ReadCSV(e.paths.FactMatchesCSV)
	if err != nil {
		return nil, fmt.Errorf("analytics: matches unavailable: %w", err)
	}
	return t, nil
}

// TopScorers returns the n highest run scorers across all matches.
func (e *Engine) TopScorers(n int) ([]ScorerStat, error) {
	t, err := e.deliveries()
	if err != nil {
		return nil, err
	}
	batterCol, err := dataprocessing.ResolveColumn(t, dataprocessing.BatterCandidates, true)
	if err != nil {
		return nil, err
	}
	runsCol, err := dataprocessing.ResolveColumn(t, dataprocessing.BatsmanRunsCandidates, true)
	if err != nil {
		return nil, err
	}

	type agg struct {
		runs  int
		balls int
	}
	byPlayer := make(map[string]*agg)
	for i := 0; i < t.Len(); i++ {
		name := t.Cell(i, batterCol)
		if name == "" {
			continue
		}
		a := byPlayer[name]
		if a == nil {
			a = &agg{}
			byPlayer[name] = a
		}
		a.runs += t.IntCell(i, runsCol)
		a.balls++
	}

	stats := make([]ScorerStat, 0, len(byPlayer))
	for name, a := range byPlayer {
		sr := 0.0
		if a.balls > 0 {
			sr = round2(float64(a.runs) / float64(a.balls) * 100)
		}
		stats = append(stats, ScorerStat{
			Player:     name,
			Runs:       a.runs,
			BallsFaced: a.balls,
			StrikeRate: sr,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Runs != stats[j].Runs {
			return stats[i].Runs > stats[j].Runs
		}
		return stats[i].Player < stats[j].Player
	})
	return truncate(stats, n), nil
}

// TopWicketTakers returns the n leading wicket takers. Run outs and
// similar dismissals are not credited to the bowler.
func (e *Engine) TopWicketTakers(n int) ([]WicketStat, error) {
	t, err := e.deliveries()
	if err != nil {
		return nil, err
	}
	if !t.HasColumn("bowler") {
		return nil, fmt.Errorf("analytics: no bowler column in deliveries")
	}

	byBowler := make(map[string]int)
	for i := 0; i < t.Len(); i++ {
		if t.IntCell(i, "is_wicket") != 1 {
			continue
		}
		if nonBowlerDismissals[t.Cell(i, "wicket_type")] {
			continue
		}
		bowler := t.Cell(i, "bowler")
		if bowler == "" {
			continue
		}
		byBowler[bowler]++
	}

	stats := make([]WicketStat, 0, len(byBowler))
	for name, w := range byBowler {
		stats = append(stats, WicketStat{Bowler: name, Wickets: w})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Wickets != stats[j].Wickets {
			return stats[i].Wickets > stats[j].Wickets
		}
		return stats[i].Bowler < stats[j].Bowler
	})
	return truncate(stats, n), nil
}

// VenuePerformance returns per-venue match counts and scoring averages,
// highest scoring venues first.
func (e *Engine) VenuePerformance() ([]VenueStat, error) {
	matches, err := e.matches()
	if err != nil {
		return nil, err
	}
	deliveries, err := e.deliveries()
	if err != nil {
		return nil, err
	}
	totalCol, err := dataprocessing.ResolveColumn(deliveries, dataprocessing.TotalRunsCandidates, true)
	if err != nil {
		return nil, err
	}

	venueByMatch := make(map[int]string)
	matchesPerVenue := make(map[string]int)
	for i := 0; i < matches.Len(); i++ {
		venue := matches.Cell(i, "venue")
		if venue == "" {
			continue
		}
		venueByMatch[matches.IntCell(i, "match_id")] = venue
		matchesPerVenue[venue]++
	}

	runsPerVenue := make(map[string]int)
	for i := 0; i < deliveries.Len(); i++ {
		venue, ok := venueByMatch[deliveries.IntCell(i, "match_id")]
		if !ok {
			continue
		}
		runsPerVenue[venue] += deliveries.IntCell(i, totalCol)
	}

	stats := make([]VenueStat, 0, len(matchesPerVenue))
	for venue, count := range matchesPerVenue {
		runs := runsPerVenue[venue]
		stats = append(stats, VenueStat{
			Venue:           venue,
			Matches:         count,
			TotalRuns:       runs,
			AvgRunsPerMatch: round2(float64(runs) / float64(count)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].AvgRunsPerMatch != stats[j].AvgRunsPerMatch {
			return stats[i].AvgRunsPerMatch > stats[j].AvgRunsPerMatch
		}
		return stats[i].Venue < stats[j].Venue
	})
	return stats, nil
}

// TossAnalysis measures how often the toss winner won the match,
// overall and split by toss decision. Matches without a recorded winner
// are excluded.
func (e *Engine) TossAnalysis() (*TossImpact, error) {
	matches, err := e.matches()
	if err != nil {
		return nil, err
	}

	impact := &TossImpact{ByDecision: make(map[string]DecisionImpact)}
	for i := 0; i < matches.Len(); i++ {
		winner := matches.Cell(i, "winner")
		tossWinner := matches.Cell(i, "toss_winner")
		if winner == "" || tossWinner == "" {
			continue
		}
		impact.MatchesWithResult++
		won := winner == tossWinner
		if won {
			impact.TossWinnerWins++
		}

		decision := matches.Cell(i, "toss_decision")
		if decision != "" {
			d := impact.ByDecision[decision]
			d.Matches++
			if won {
				d.Wins++
			}
			impact.ByDecision[decision] = d
		}
	}

	if impact.MatchesWithResult > 0 {
		impact.WinRate = round2(float64(impact.TossWinnerWins) / float64(impact.MatchesWithResult))
	}
	for decision, d := range impact.ByDecision {
		if d.Matches > 0 {
			d.WinRate = round2(float64(d.Wins) / float64(d.Matches))
		}
		impact.ByDecision[decision] = d
	}
	return impact, nil
}

// RunDistribution groups delivery run totals by the given dimension:
// "innings", "over" or "team".
func (e *Engine) RunDistribution(dimension string) ([]RunBucket, error) {
	t, err := e.deliveries()
	if err != nil {
		return nil, err
	}
	totalCol, err := dataprocessing.ResolveColumn(t, dataprocessing.TotalRunsCandidates, true)
	if err != nil {
		return nil, err
	}

	var keyCol string
	switch dimension {
	case "innings":
		keyCol = "innings"
	case "over":
		keyCol = "over"
	case "team":
		col, rerr := dataprocessing.ResolveColumn(t, dataprocessing.BatTeamCandidates, true)
		if rerr != nil {
			return nil, rerr
		}
		keyCol = col
	default:
		return nil, fmt.Errorf("analytics: unknown distribution dimension %q", dimension)
	}
	if !t.HasColumn(keyCol) {
		return nil, fmt.Errorf("analytics: no %s column in deliveries", keyCol)
	}

	type agg struct {
		deliveries int
		runs       int
	}
	byKey := make(map[string]*agg)
	for i := 0; i < t.Len(); i++ {
		key := t.Cell(i, keyCol)
		if key == "" {
			continue
		}
		a := byKey[key]
		if a == nil {
			a = &agg{}
			byKey[key] = a
		}
		a.deliveries++
		a.runs += t.IntCell(i, totalCol)
	}

	buckets := make([]RunBucket, 0, len(byKey))
	for key, a := range byKey {
		buckets = append(buckets, RunBucket{
			Key:        key,
			Deliveries: a.deliveries,
			Runs:       a.runs,
			AvgRuns:    round2(float64(a.runs) / float64(a.deliveries)),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		ki, ei := strconv.Atoi(buckets[i].Key)
		kj, ej := strconv.Atoi(buckets[j].Key)
		if ei == nil && ej == nil {
			return ki < kj
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets, nil
}

// DatasetOverview summarizes the cleaned dataset for the dashboard.
func (e *Engine) DatasetOverview() (*Overview, error) {
	matches, err := e.matches()
	if err != nil {
		return nil, err
	}
	deliveries, err := e.deliveries()
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		Matches:    matches.Len(),
		Deliveries: deliveries.Len(),
		Venues:     len(matches.Distinct("venue")),
	}

	seen := make(map[string]bool)
	for _, col := range []string{"team1", "team2"} {
		for _, team := range matches.Distinct(col) {
			if !seen[team] {
				seen[team] = true
				overview.Teams = append(overview.Teams, team)
			}
		}
	}
	sort.Strings(overview.Teams)

	for i := 0; i < matches.Len(); i++ {
		d := matches.Cell(i, "date")
		if d == "" {
			continue
		}
		if overview.DateFrom == "" || d < overview.DateFrom {
			overview.DateFrom = d
		}
		if overview.DateTo == "" || d > overview.DateTo {
			overview.DateTo = d
		}
	}

	if players, perr := dataprocessing.ReadCSV(e.paths.DimPlayersCSV); perr == nil {
		overview.Players = players.Len()
	}

	return overview, nil
}

// WriteReports computes every report and writes them as JSON files
// under data/analytics.
func (e *Engine) WriteReports(ctx context.Context) error {
	reports := []struct {
		file    string
		compute func() (interface{}, error)
	}{
		{"top_scorers.json", func() (interface{}, error) { return e.TopScorers(10) }},
		{"wicket_takers.json", func() (interface{}, error) { return e.TopWicketTakers(10) }},
		{"venue_performance.json", func() (interface{}, error) { return e.VenuePerformance() }},
		{"toss_impact.json", func() (interface{}, error) { return e.TossAnalysis() }},
		{"run_distribution_innings.json", func() (interface{}, error) { return e.RunDistribution("innings") }},
		{"run_distribution_team.json", func() (interface{}, error) { return e.RunDistribution("team") }},
		{"overview.json", func() (interface{}, error) { return e.DatasetOverview() }},
	}

	for _, r := range reports {
		data, err := r.compute()
		if err != nil {
			return err
		}
		path := e.paths.GetAnalyticsPath(r.file)
		if err := writeJSON(path, data); err != nil {
			return err
		}
		e.logger.InfoContext(ctx, "analytics report written", slog.String("file", r.file))
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
