package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cricpulse/internal/config"
	"cricpulse/internal/infrastructure"
)

// matchRenames maps scraped match-table variants onto the canonical
// schema.
var matchRenames = map[string]string{
	"match_number":  "match_id",
	"ground":        "venue",
	"stadium":       "venue",
	"home_team":     "team1",
	"away_team":     "team2",
	"toss_won_by":   "toss_winner",
	"decision":      "toss_decision",
	"match_winner":  "winner",
	"won_by":        "result",
	"result_margin": "result",
}

// playerRenames maps scraped player-table variants onto the canonical
// schema.
var playerRenames = map[string]string{
	"team_name":       "team",
	"playing_role":    "role",
	"batting_average": "batting_avg",
	"bowling_average": "bowling_avg",
}

// deliveryFillColumns are run counts that get zero-filled rather than
// dropped when unparseable. A missing count is a scrape gap, not a
// reason to lose the ball.
var deliveryFillColumns = []string{"total_runs", "batsman_runs", "extra_runs", "is_wicket"}

// CleanResult summarizes one table's cleaning pass.
type CleanResult struct {
	Table       string `json:"table"`
	RowsIn      int    `json:"rows_in"`
	RowsOut     int    `json:"rows_out"`
	RowsDropped int    `json:"rows_dropped"`
	OutputPath  string `json:"output_path"`
}

// Cleaner turns raw scraper CSVs into the canonical clean tables.
type Cleaner struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCleaner creates a cleaner over the configured paths.
func NewCleaner(paths *config.Paths, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		paths:  paths,
		logger: logger.With(slog.String("component", "cleaner")),
	}
}

// CleanAll cleans matches, deliveries and players in order, then checks
// that the cleaned tables agree on match identifiers. The players table
// is optional: not every scrape run collects it.
func (c *Cleaner) CleanAll(ctx context.Context) ([]CleanResult, error) {
	start := time.Now()

	matches, err := c.CleanMatches(ctx)
	if err != nil {
		return nil, err
	}
	deliveries, err := c.CleanDeliveries(ctx)
	if err != nil {
		return nil, err
	}
	players, err := c.CleanPlayers(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		c.logger.WarnContext(ctx, "players file missing, skipping",
			slog.String("path", c.paths.RawPlayersCSV),
		)
		players = CleanResult{Table: "players"}
	}

	if err := c.validateMatchOverlap(ctx); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "cleaning completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("matches", matches.RowsOut),
		slog.Int("deliveries", deliveries.RowsOut),
		slog.Int("players", players.RowsOut),
	)

	return []CleanResult{matches, deliveries, players}, nil
}

// CleanMatches produces matches_clean.csv from the raw matches table.
func (c *Cleaner) CleanMatches(ctx context.Context) (CleanResult, error) {
	t, err := ReadCSV(c.paths.RawMatchesCSV)
	if err != nil {
		return CleanResult{}, fmt.Errorf("clean matches: %w", err)
	}
	rowsIn := t.Len()
	infrastructure.RowsProcessedTotal.WithLabelValues("matches", "in").Add(float64(rowsIn))

	t.NormalizeHeaders()
	for from, to := range matchRenames {
		t.RenameColumn(from, to)
	}
	if err := NormalizeMatchID(t); err != nil {
		return CleanResult{}, fmt.Errorf("clean matches: %w", err)
	}

	dropped, err := t.CoerceInt("match_id")
	if err != nil {
		return CleanResult{}, fmt.Errorf("clean matches: %w", err)
	}
	if dropped > 0 {
		c.logger.WarnContext(ctx, "dropped rows with invalid match_id",
			slog.String("table", "matches"),
			slog.Int("dropped", dropped),
		)
	}

	dedup := c.dropDuplicateMatchIDs(t)
	dropped += dedup

	StandardizeTeams(t, "team1", "team2", "toss_winner", "winner")
	c.normalizeDates(ctx, t)
	t.AddColumn("result", "")

	if err := t.WriteCSV(c.paths.MatchesCleanCSV); err != nil {
		return CleanResult{}, fmt.Errorf("clean matches: %w", err)
	}
	infrastructure.RowsProcessedTotal.WithLabelValues("matches", "out").Add(float64(t.Len()))

	c.logger.InfoContext(ctx, "table cleaned",
		slog.String("table", "matches"),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", t.Len()),
	)
	return CleanResult{
		Table:       "matches",
		RowsIn:      rowsIn,
		RowsOut:     t.Len(),
		RowsDropped: dropped,
		OutputPath:  c.paths.MatchesCleanCSV,
	}, nil
}

// CleanDeliveries produces deliveries_clean.csv from the raw ball by
// ball table.
func (c *Cleaner) CleanDeliveries(ctx context.Context) (CleanResult, error) {
	t, err := ReadCSV(c.paths.RawDeliveriesCSV)
	if err != nil {
		return CleanResult{}, fmt.Errorf("clean deliveries: %w", err)
	}
	rowsIn := t.Len()
	infrastructure.RowsProcessedTotal.WithLabelValues("deliveries", "in").Add(float64(rowsIn))

	t.NormalizeHeaders()
	NormalizeDeliveryColumns(t)
	if err := NormalizeMatchID(t); err != nil {
		return CleanResult{}, fmt.Errorf("clean deliveries: %w", err)
	}

	dropped, err := t.CoerceInt("match_id")
	if err != nil {
		return CleanResult{}, fmt.Errorf("clean deliveries: %w", err)
	}
	if dropped > 0 {
		c.logger.WarnContext(ctx, "dropped rows with invalid match_id",
			slog.String("table", "deliveries"),
			slog.Int("dropped", dropped),
		)
	}

	for _, col := range deliveryFillColumns {
		t.AddColumn(col, "0")
		t.FillIntColumn(col)
	}
	t.FillIntColumn("innings")

	StandardizeTeams(t, "bat_team", "bowler_team")
	StandardizePlayers(t, "batter", "bowler", "dismissal_player")

	if err := t.WriteCSV(c.paths.DeliveriesCleanCSV); err != nil {
		return CleanResult{}, fmt.Errorf("clean deliveries: %w", err)
	}
	infrastructure.RowsProcessedTotal.WithLabelValues("deliveries", "out").Add(float64(t.Len()))

	c.logger.InfoContext(ctx, "table cleaned",
		slog.String("table", "deliveries"),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", t.Len()),
	)
	return CleanResult{
		Table:       "deliveries",
		RowsIn:      rowsIn,
		RowsOut:     t.Len(),
		RowsDropped: dropped,
		OutputPath:  c.paths.DeliveriesCleanCSV,
	}, nil
}

// CleanPlayers produces players_clean.csv from the raw player table.
// Rows without a player name are dropped.
func (c *Cleaner) CleanPlayers(ctx context.Context) (CleanResult, error) {
	t, err := ReadCSV(c.paths.RawPlayersCSV)
	if err != nil {
		return CleanResult{}, fmt.Errorf("clean players: %w", err)
	}
	rowsIn := t.Len()
	infrastructure.RowsProcessedTotal.WithLabelValues("players", "in").Add(float64(rowsIn))

	t.NormalizeHeaders()
	for from, to := range playerRenames {
		t.RenameColumn(from, to)
	}
	if !NormalizePlayerName(t) {
		return CleanResult{}, fmt.Errorf("clean players: no player name column found")
	}

	dropped := c.dropEmptyNames(t)
	if dropped > 0 {
		c.logger.WarnContext(ctx, "dropped rows without player name",
			slog.String("table", "players"),
			slog.Int("dropped", dropped),
		)
	}

	StandardizeTeams(t, "team")
	StandardizePlayers(t, "player_name")
	t.AddColumn("role", "")
	t.AddColumn("batting_avg", "")
	t.AddColumn("bowling_avg", "")

	if err := t.WriteCSV(c.paths.PlayersCleanCSV); err != nil {
		return CleanResult{}, fmt.Errorf("clean players: %w", err)
	}
	infrastructure.RowsProcessedTotal.WithLabelValues("players", "out").Add(float64(t.Len()))

	c.logger.InfoContext(ctx, "table cleaned",
		slog.String("table", "players"),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", t.Len()),
	)
	return CleanResult{
		Table:       "players",
		RowsIn:      rowsIn,
		RowsOut:     t.Len(),
		RowsDropped: dropped,
		OutputPath:  c.paths.PlayersCleanCSV,
	}, nil
}

// validateMatchOverlap warns when the cleaned matches and deliveries
// tables share no match identifiers, which means the join downstream
// would produce an empty dataset.
func (c *Cleaner) validateMatchOverlap(ctx context.Context) error {
	matches, err := ReadCSV(c.paths.MatchesCleanCSV)
	if err != nil {
		return err
	}
	deliveries, err := ReadCSV(c.paths.DeliveriesCleanCSV)
	if err != nil {
		return err
	}

	matchIDs := make(map[string]bool)
	for _, id := range matches.Distinct("match_id") {
		matchIDs[id] = true
	}

	overlap := 0
	for _, id := range deliveries.Distinct("match_id") {
		if matchIDs[id] {
			overlap++
		}
	}

	if overlap == 0 && matches.Len() > 0 && deliveries.Len() > 0 {
		c.logger.WarnContext(ctx, "no match_id overlap between matches and deliveries",
			slog.Int("match_ids", len(matchIDs)),
		)
	}
	return nil
}

// dropDuplicateMatchIDs keeps the first row per match_id.
func (c *Cleaner) dropDuplicateMatchIDs(t *Table) int {
	idx := t.Col("match_id")
	if idx < 0 {
		return 0
	}
	seen := make(map[string]bool)
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		id := row[idx]
		if seen[id] {
			dropped++
			continue
		}
		seen[id] = true
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped
}

// dropEmptyNames removes rows whose player_name is blank.
func (c *Cleaner) dropEmptyNames(t *Table) int {
	idx := t.Col("player_name")
	if idx < 0 {
		return 0
	}
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		if strings.TrimSpace(row[idx]) == "" {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped
}

// dateFormats are accepted match date layouts, most common first.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// normalizeDates rewrites the date column to ISO 8601. Unparseable
// dates are left as-is so no match is lost over a formatting quirk.
func (c *Cleaner) normalizeDates(ctx context.Context, t *Table) {
	idx := t.Col("date")
	if idx < 0 {
		return
	}
	unparsed := 0
	for _, row := range t.Rows {
		raw := strings.TrimSpace(row[idx])
		if raw == "" {
			continue
		}
		parsed := false
		for _, layout := range dateFormats {
			if d, err := time.Parse(layout, raw); err == nil {
				row[idx] = d.Format("2006-01-02")
				parsed = true
				break
			}
		}
		if !parsed {
			unparsed++
		}
	}
	if unparsed > 0 {
		c.logger.DebugContext(ctx, "dates left unparsed", slog.Int("count", unparsed))
	}
}
