package dataprocessing

import "fmt"

// Fallback candidate lists for columns whose names drift between scrape
// runs. Order is priority: the first present column wins.
var (
	MatchIDCandidates     = []string{"match_id", "match_number"}
	InningsCandidates     = []string{"innings", "inning"}
	BatterCandidates      = []string{"batter", "batsman", "striker"}
	BowlerCandidates      = []string{"bowler"}
	BatsmanRunsCandidates = []string{"batsman_runs", "runs_off_bat", "runs_scored"}
	TotalRunsCandidates   = []string{"total_runs", "total"}
	BatTeamCandidates     = []string{"bat_team", "batting_team"}
	BowlerTeamCandidates  = []string{"bowler_team", "bowling_team"}
	PlayerNameCandidates  = []string{"player_name", "player", "name", "full_name"}
)

// ResolveColumn returns the first candidate present in the table. When
// required and none match, an error names the full candidate list.
func ResolveColumn(t *Table, candidates []string, required bool) (string, error) {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return c, nil
		}
	}
	if required {
		return "", fmt.Errorf("none of the columns %v exist in table", candidates)
	}
	return "", nil
}

// NormalizeMatchID renames match_number to match_id if needed. Errors
// when no match identifier exists at all.
func NormalizeMatchID(t *Table) error {
	if t.HasColumn("match_id") {
		return nil
	}
	if t.HasColumn("match_number") {
		t.RenameColumn("match_number", "match_id")
		return nil
	}
	return fmt.Errorf("no match identifier found: expected match_id or match_number")
}

// NormalizeDeliveryColumns reconciles the drifting delivery schema onto
// the canonical column set, then backfills required columns with
// defaults so downstream stages never hit a missing column.
func NormalizeDeliveryColumns(t *Table) {
	if t.HasColumn("inning") && !t.HasColumn("innings") {
		t.RenameColumn("inning", "innings")
	}

	if t.HasColumn("batsman") {
		t.RenameColumn("batsman", "batter")
	} else if t.HasColumn("striker") {
		t.RenameColumn("striker", "batter")
	}

	// runs_off_bat excludes extras, so it is a batting count and must
	// map to batsman_runs before the total_runs fallback can claim it.
	for _, col := range []string{"runs_off_bat", "runs_scored"} {
		if t.HasColumn(col) && !t.HasColumn("batsman_runs") {
			t.RenameColumn(col, "batsman_runs")
			break
		}
	}

	if t.HasColumn("total") && !t.HasColumn("total_runs") {
		t.RenameColumn("total", "total_runs")
	}

	if t.HasColumn("batting_team") && !t.HasColumn("bat_team") {
		t.RenameColumn("batting_team", "bat_team")
	}
	if t.HasColumn("bowling_team") && !t.HasColumn("bowler_team") {
		t.RenameColumn("bowling_team", "bowler_team")
	}

	// Required columns get best-effort defaults rather than errors
	t.AddColumn("innings", "1")
	t.AddColumn("batter", "Unknown")
	t.AddColumn("total_runs", "0")
	t.AddColumn("batsman_runs", "0")
}

// NormalizePlayerName renames the first present player-name variant to
// player_name. Returns false when no name column exists.
func NormalizePlayerName(t *Table) bool {
	col, _ := ResolveColumn(t, PlayerNameCandidates, false)
	if col == "" {
		return false
	}
	if col != "player_name" {
		t.RenameColumn(col, "player_name")
	}
	return true
}
