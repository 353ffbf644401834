package analytics

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cricpulse/internal/config"
)

func newTestEngine(t *testing.T) (*Engine, *config.Paths) {
	t.Helper()
	paths, err := config.GetPaths(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(paths, logger), paths
}

func seedFactTables(t *testing.T, paths *config.Paths) {
	t.Helper()

	matches := "match_id,date,venue,team1,team2,toss_winner,toss_decision,winner,team1_win\n" +
		"1,2024-03-22,Wankhede,MI,CSK,MI,bat,MI,1\n" +
		"2,2024-03-23,Chepauk,CSK,RCB,RCB,field,RCB,0\n" +
		"3,2024-03-24,Wankhede,MI,RCB,MI,bat,RCB,0\n" +
		"4,2024-03-25,Chepauk,CSK,MI,CSK,bat,,0\n"
	require.NoError(t, os.WriteFile(paths.FactMatchesCSV, []byte(matches), 0o644))

	deliveries := "match_id,innings,over,ball,bat_team,bowler_team,batter,bowler,batsman_runs,extra_runs,total_runs,wicket_type,dismissal_player,is_wicket\n" +
		"1,1,0,1,MI,CSK,RG Sharma,DL Chahar,4,0,4,,,0\n" +
		"1,1,0,2,MI,CSK,RG Sharma,DL Chahar,6,0,6,,,0\n" +
		"1,1,0,3,MI,CSK,I Kishan,DL Chahar,0,0,0,bowled,I Kishan,1\n" +
		"1,2,0,1,CSK,MI,RD Gaikwad,JJ Bumrah,1,0,1,,,0\n" +
		"2,1,0,1,CSK,RCB,RD Gaikwad,MM Siraj,0,0,0,run out,RD Gaikwad,1\n" +
		"2,1,0,2,CSK,RCB,MS Dhoni,MM Siraj,6,0,6,,,0\n" +
		"3,1,0,1,MI,RCB,RG Sharma,MM Siraj,2,1,3,,,0\n"
	require.NoError(t, os.WriteFile(paths.FactDeliveriesCSV, []byte(deliveries), 0o644))

	players := "player_name,team,role,batting_avg,bowling_avg\n" +
		"RG Sharma,MI,Batter,31.2,\n" +
		"MS Dhoni,CSK,Wicketkeeper,38.1,\n"
	require.NoError(t, os.WriteFile(paths.DimPlayersCSV, []byte(players), 0o644))
}

func TestTopScorers(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	scorers, err := engine.TopScorers(2)
	require.NoError(t, err)
	require.Len(t, scorers, 2)

	assert.Equal(t, "RG Sharma", scorers[0].Player)
	assert.Equal(t, 12, scorers[0].Runs)
	assert.Equal(t, 3, scorers[0].BallsFaced)
	assert.Equal(t, 400.0, scorers[0].StrikeRate)
	assert.Equal(t, "MS Dhoni", scorers[1].Player)
}

func TestTopWicketTakers(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	takers, err := engine.TopWicketTakers(5)
	require.NoError(t, err)
	require.Len(t, takers, 1)

	// the run out is not credited to MM Siraj
	assert.Equal(t, "DL Chahar", takers[0].Bowler)
	assert.Equal(t, 1, takers[0].Wickets)
}

func TestVenuePerformance(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	venues, err := engine.VenuePerformance()
	require.NoError(t, err)
	require.Len(t, venues, 2)

	// Wankhede: matches 1 and 3, 14 runs over 2 matches
	assert.Equal(t, "Wankhede", venues[0].Venue)
	assert.Equal(t, 2, venues[0].Matches)
	assert.Equal(t, 14, venues[0].TotalRuns)
	assert.Equal(t, 7.0, venues[0].AvgRunsPerMatch)

	assert.Equal(t, "Chepauk", venues[1].Venue)
	assert.Equal(t, 3.0, venues[1].AvgRunsPerMatch)
}

func TestTossAnalysis(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	impact, err := engine.TossAnalysis()
	require.NoError(t, err)

	// match 4 has no winner and is excluded
	assert.Equal(t, 3, impact.MatchesWithResult)
	assert.Equal(t, 2, impact.TossWinnerWins)
	assert.Equal(t, 0.67, impact.WinRate)

	bat := impact.ByDecision["bat"]
	assert.Equal(t, 2, bat.Matches)
	assert.Equal(t, 1, bat.Wins)
	assert.Equal(t, 0.5, bat.WinRate)

	field := impact.ByDecision["field"]
	assert.Equal(t, 1, field.Matches)
	assert.Equal(t, 1, field.Wins)
}

func TestRunDistribution(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	t.Run("by innings", func(t *testing.T) {
		buckets, err := engine.RunDistribution("innings")
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Equal(t, "1", buckets[0].Key)
		assert.Equal(t, 6, buckets[0].Deliveries)
		assert.Equal(t, 19, buckets[0].Runs)
		assert.Equal(t, "2", buckets[1].Key)
		assert.Equal(t, 1, buckets[1].Runs)
	})

	t.Run("by team", func(t *testing.T) {
		buckets, err := engine.RunDistribution("team")
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Equal(t, "CSK", buckets[0].Key)
		assert.Equal(t, 7, buckets[0].Runs)
		assert.Equal(t, "MI", buckets[1].Key)
		assert.Equal(t, 13, buckets[1].Runs)
	})

	t.Run("unknown dimension", func(t *testing.T) {
		_, err := engine.RunDistribution("weather")
		assert.Error(t, err)
	})
}

func TestDatasetOverview(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	overview, err := engine.DatasetOverview()
	require.NoError(t, err)

	assert.Equal(t, 4, overview.Matches)
	assert.Equal(t, 7, overview.Deliveries)
	assert.Equal(t, 2, overview.Players)
	assert.Equal(t, []string{"CSK", "MI", "RCB"}, overview.Teams)
	assert.Equal(t, 2, overview.Venues)
	assert.Equal(t, "2024-03-22", overview.DateFrom)
	assert.Equal(t, "2024-03-25", overview.DateTo)
}

func TestWriteReports(t *testing.T) {
	engine, paths := newTestEngine(t)
	seedFactTables(t, paths)

	require.NoError(t, engine.WriteReports(context.Background()))

	for _, name := range []string{
		"top_scorers.json", "wicket_takers.json", "venue_performance.json",
		"toss_impact.json", "run_distribution_innings.json",
		"run_distribution_team.json", "overview.json",
	} {
		_, err := os.Stat(filepath.Join(paths.AnalyticsDir, name))
		assert.NoError(t, err, name)
	}
}

func TestAnalyticsMissingData(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.TopScorers(5)
	assert.Error(t, err)
	_, err = engine.TossAnalysis()
	assert.Error(t, err)
}
