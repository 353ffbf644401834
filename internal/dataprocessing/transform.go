package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"cricpulse/internal/config"
	"cricpulse/internal/infrastructure"
)

// TransformResult summarizes the transformation stage output.
type TransformResult struct {
	FactMatches    int `json:"fact_matches"`
	FactDeliveries int `json:"fact_deliveries"`
	DimPlayers     int `json:"dim_players"`
	DimTeams       int `json:"dim_teams"`
	DimVenues      int `json:"dim_venues"`
	FinalDataset   int `json:"final_dataset"`
}

// Transformer builds the fact and dimension tables plus the modelling
// dataset from the cleaned CSVs.
type Transformer struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewTransformer creates a transformer over the configured paths.
func NewTransformer(paths *config.Paths, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		paths:  paths,
		logger: logger.With(slog.String("component", "transformer")),
	}
}

// Transform runs the whole transformation stage: facts, dimensions and
// the per-player final dataset.
func (tr *Transformer) Transform(ctx context.Context) (*TransformResult, error) {
	start := time.Now()

	matches, err := ReadCSV(tr.paths.MatchesCleanCSV)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	deliveries, err := ReadCSV(tr.paths.DeliveriesCleanCSV)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	result := &TransformResult{}

	if err := tr.buildFactMatches(ctx, matches, result); err != nil {
		return nil, err
	}
	if err := tr.buildFactDeliveries(ctx, deliveries, result); err != nil {
		return nil, err
	}
	if err := tr.buildDimPlayers(ctx, deliveries, result); err != nil {
		return nil, err
	}
	if err := tr.buildDimTeams(ctx, matches, result); err != nil {
		return nil, err
	}
	if err := tr.buildDimVenues(ctx, matches, result); err != nil {
		return nil, err
	}
	if err := tr.buildFinalDataset(ctx, matches, deliveries, result); err != nil {
		return nil, err
	}

	tr.logger.InfoContext(ctx, "transformation completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("final_dataset_rows", result.FinalDataset),
	)
	return result, nil
}

func (tr *Transformer) buildFactMatches(ctx context.Context, matches *Table, result *TransformResult) error {
	fact := cloneTable(matches)
	if err := NormalizeMatchID(fact); err != nil {
		return fmt.Errorf("fact_matches: %w", err)
	}
	dropped, err := fact.CoerceInt("match_id")
	if err != nil {
		return fmt.Errorf("fact_matches: %w", err)
	}
	if dropped > 0 {
		tr.logger.WarnContext(ctx, "dropped fact rows with invalid match_id",
			slog.String("table", "fact_matches"),
			slog.Int("dropped", dropped),
		)
	}

	// Binary label used downstream by the win model
	fact.AddColumn("team1_win", "0")
	t1 := fact.Col("team1")
	winner := fact.Col("winner")
	label := fact.Col("team1_win")
	for _, row := range fact.Rows {
		if t1 >= 0 && winner >= 0 && row[winner] != "" && row[winner] == row[t1] {
			row[label] = "1"
		}
	}

	if err := fact.WriteCSV(tr.paths.FactMatchesCSV); err != nil {
		return fmt.Errorf("fact_matches: %w", err)
	}
	infrastructure.RowsProcessedTotal.WithLabelValues("fact_matches", "out").Add(float64(fact.Len()))
	result.FactMatches = fact.Len()
	return nil
}

func (tr *Transformer) buildFactDeliveries(ctx context.Context, deliveries *Table, result *TransformResult) error {
	fact := cloneTable(deliveries)
	if err := NormalizeMatchID(fact); err != nil {
		return fmt.Errorf("fact_deliveries: %w", err)
	}
	dropped, err := fact.CoerceInt("match_id")
	if err != nil {
		return fmt.Errorf("fact_deliveries: %w", err)
	}
	if dropped > 0 {
		tr.logger.WarnContext(ctx, "dropped fact rows with invalid match_id",
			slog.String("table", "fact_deliveries"),
			slog.Int("dropped", dropped),
		)
	}

	if err := fact.WriteCSV(tr.paths.FactDeliveriesCSV); err != nil {
		return fmt.Errorf("fact_deliveries: %w", err)
	}
	infrastructure.RowsProcessedTotal.WithLabelValues("fact_deliveries", "out").Add(float64(fact.Len()))
	result.FactDeliveries = fact.Len()
	return nil
}

// buildDimPlayers prefers the cleaned players table; when absent or
// nameless it falls back to the distinct batters seen in deliveries.
func (tr *Transformer) buildDimPlayers(ctx context.Context, deliveries *Table, result *TransformResult) error {
	dim := NewTable([]string{"player_name", "team", "role", "batting_avg", "bowling_avg"})

	players, err := ReadCSV(tr.paths.PlayersCleanCSV)
	if err == nil && players.HasColumn("player_name") {
		seen := make(map[string]bool)
		for i := 0; i < players.Len(); i++ {
			name := players.Cell(i, "player_name")
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			dim.Rows = append(dim.Rows, []string{
				name,
				players.Cell(i, "team"),
				players.Cell(i, "role"),
				players.Cell(i, "batting_avg"),
				players.Cell(i, "bowling_avg"),
			})
		}
	} else {
		tr.logger.WarnContext(ctx, "players table unavailable, deriving dim_players from deliveries")
		batterCol, rerr := ResolveColumn(deliveries, BatterCandidates, true)
		if rerr != nil {
			return fmt.Errorf("dim_players: %w", rerr)
		}
		for _, name := range deliveries.Distinct(batterCol) {
			dim.Rows = append(dim.Rows, []string{name, "", "", "", ""})
		}
	}

	if err := dim.WriteCSV(tr.paths.DimPlayersCSV); err != nil {
		return fmt.Errorf("dim_players: %w", err)
	}
	result.DimPlayers = dim.Len()
	return nil
}

func (tr *Transformer) buildDimTeams(_ context.Context, matches *Table, result *TransformResult) error {
	seen := make(map[string]bool)
	var teams []string
	for _, col := range []string{"team1", "team2"} {
		for _, v := range matches.Distinct(col) {
			if !seen[v] {
				seen[v] = true
				teams = append(teams, v)
			}
		}
	}
	sort.Strings(teams)

	dim := NewTable([]string{"team_id", "team_name"})
	for i, name := range teams {
		dim.Rows = append(dim.Rows, []string{strconv.Itoa(i + 1), name})
	}
	if err := dim.WriteCSV(tr.paths.DimTeamsCSV); err != nil {
		return fmt.Errorf("dim_teams: %w", err)
	}
	result.DimTeams = dim.Len()
	return nil
}

func (tr *Transformer) buildDimVenues(_ context.Context, matches *Table, result *TransformResult) error {
	venues := matches.Distinct("venue")
	sort.Strings(venues)

	dim := NewTable([]string{"venue_id", "venue_name"})
	for i, name := range venues {
		dim.Rows = append(dim.Rows, []string{strconv.Itoa(i + 1), name})
	}
	if err := dim.WriteCSV(tr.paths.DimVenuesCSV); err != nil {
		return fmt.Errorf("dim_venues: %w", err)
	}
	result.DimVenues = dim.Len()
	return nil
}

// summaryKey identifies one player's contribution in one innings.
type summaryKey struct {
	matchID int
	innings int
	player  string
}

type battingAgg struct {
	runs  int
	balls int
}

type bowlingAgg struct {
	runs  int
	balls int
}

// buildFinalDataset aggregates per-player batting and bowling summaries,
// outer-merges them per (match_id, innings, player), then left-joins
// match metadata.
func (tr *Transformer) buildFinalDataset(ctx context.Context, matches, deliveries *Table, result *TransformResult) error {
	batterCol, err := ResolveColumn(deliveries, BatterCandidates, true)
	if err != nil {
		return fmt.Errorf("final_dataset: %w", err)
	}
	runsCol, err := ResolveColumn(deliveries, BatsmanRunsCandidates, true)
	if err != nil {
		return fmt.Errorf("final_dataset: %w", err)
	}
	totalCol, err := ResolveColumn(deliveries, TotalRunsCandidates, true)
	if err != nil {
		return fmt.Errorf("final_dataset: %w", err)
	}
	hasBowler := deliveries.HasColumn("bowler")

	batting := make(map[summaryKey]*battingAgg)
	bowling := make(map[summaryKey]*bowlingAgg)
	var order []summaryKey
	inOrder := make(map[summaryKey]bool)

	note := func(k summaryKey) {
		if !inOrder[k] {
			inOrder[k] = true
			order = append(order, k)
		}
	}

	for i := 0; i < deliveries.Len(); i++ {
		matchID := deliveries.IntCell(i, "match_id")
		innings := deliveries.IntCell(i, "innings")

		if batter := deliveries.Cell(i, batterCol); batter != "" {
			k := summaryKey{matchID, innings, batter}
			agg := batting[k]
			if agg == nil {
				agg = &battingAgg{}
				batting[k] = agg
				note(k)
			}
			agg.runs += deliveries.IntCell(i, runsCol)
			agg.balls++
		}

		if hasBowler {
			if bowler := deliveries.Cell(i, "bowler"); bowler != "" {
				k := summaryKey{matchID, innings, bowler}
				agg := bowling[k]
				if agg == nil {
					agg = &bowlingAgg{}
					bowling[k] = agg
					note(k)
				}
				agg.runs += deliveries.IntCell(i, totalCol)
				agg.balls++
			}
		}
	}

	matchMeta := indexMatches(matches)

	final := NewTable([]string{
		"match_id", "innings", "player_name",
		"runs_scored", "balls_faced", "strike_rate",
		"runs_conceded", "balls_bowled", "overs_bowled", "economy",
		"date", "venue", "team1", "team2", "winner",
	})

	for _, k := range order {
		row := make([]string, len(final.Headers))
		row[0] = strconv.Itoa(k.matchID)
		row[1] = strconv.Itoa(k.innings)
		row[2] = k.player

		if b := batting[k]; b != nil {
			row[3] = strconv.Itoa(b.runs)
			row[4] = strconv.Itoa(b.balls)
			sr := 0.0
			if b.balls > 0 {
				sr = float64(b.runs) / float64(b.balls) * 100
			}
			row[5] = formatFloat(sr)
		}

		if bw := bowling[k]; bw != nil {
			row[6] = strconv.Itoa(bw.runs)
			row[7] = strconv.Itoa(bw.balls)
			overs := float64(bw.balls) / 6
			row[8] = formatFloat(overs)
			econ := 0.0
			if overs > 0 {
				econ = float64(bw.runs) / overs
			}
			row[9] = formatFloat(econ)
		}

		if meta, ok := matchMeta[k.matchID]; ok {
			row[10] = meta.date
			row[11] = meta.venue
			row[12] = meta.team1
			row[13] = meta.team2
			row[14] = meta.winner
		}

		final.Rows = append(final.Rows, row)
	}

	if err := final.WriteCSV(tr.paths.FinalDatasetCSV); err != nil {
		return fmt.Errorf("final_dataset: %w", err)
	}
	infrastructure.RowsProcessedTotal.WithLabelValues("final_dataset", "out").Add(float64(final.Len()))

	tr.logger.InfoContext(ctx, "final dataset built",
		slog.Int("rows", final.Len()),
		slog.Int("batting_keys", len(batting)),
		slog.Int("bowling_keys", len(bowling)),
	)
	result.FinalDataset = final.Len()
	return nil
}

type matchMeta struct {
	date   string
	venue  string
	team1  string
	team2  string
	winner string
}

func indexMatches(matches *Table) map[int]matchMeta {
	out := make(map[int]matchMeta, matches.Len())
	for i := 0; i < matches.Len(); i++ {
		id := matches.IntCell(i, "match_id")
		if _, exists := out[id]; exists {
			continue
		}
		out[id] = matchMeta{
			date:   matches.Cell(i, "date"),
			venue:  matches.Cell(i, "venue"),
			team1:  matches.Cell(i, "team1"),
			team2:  matches.Cell(i, "team2"),
			winner: matches.Cell(i, "winner"),
		}
	}
	return out
}

func cloneTable(t *Table) *Table {
	headers := make([]string, len(t.Headers))
	copy(headers, t.Headers)
	clone := NewTable(headers)
	clone.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]string, len(row))
		copy(r, row)
		clone.Rows[i] = r
	}
	return clone
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
