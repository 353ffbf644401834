package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/config"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths, err := config.GetPaths(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedFacts(t *testing.T, paths *config.Paths) {
	t.Helper()
	matches := "match_id,date,venue,team1,team2,toss_winner,toss_decision,winner,result,team1_win\n" +
		"1,2024-04-01,Wankhede Stadium,Mumbai Indians,Chennai Super Kings,Mumbai Indians,bat,Mumbai Indians,won by 10 runs,1\n" +
		"2,2024-04-03,Eden Gardens,Kolkata Knight Riders,Mumbai Indians,Mumbai Indians,field,Mumbai Indians,won by 5 wickets,0\n"
	deliveries := "match_id,innings,over,ball,batting_team,bowling_team,batter,bowler,batsman_runs,extra_runs,total_runs,is_wicket,dismissal_kind,player_dismissed\n" +
		"1,1,1,1,Mumbai Indians,Chennai Super Kings,RG Sharma,DL Chahar,4,0,4,0,,\n" +
		"1,1,1,2,Mumbai Indians,Chennai Super Kings,RG Sharma,DL Chahar,6,0,6,0,,\n" +
		"2,1,1,1,Kolkata Knight Riders,Mumbai Indians,SP Narine,JJ Bumrah,0,0,0,1,bowled,SP Narine\n"
	require.NoError(t, os.WriteFile(paths.FactMatchesCSV, []byte(matches), 0o644))
	require.NoError(t, os.WriteFile(paths.FactDeliveriesCSV, []byte(deliveries), 0o644))
}

func TestDataServiceTopScorers(t *testing.T) {
	paths := testPaths(t)
	seedFacts(t, paths)
	svc := NewDataService(paths, discardLogger())

	stats, err := svc.GetTopScorers(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	assert.Equal(t, "RG Sharma", stats[0].Player)
	assert.Equal(t, 10, stats[0].Runs)
}

func TestDataServiceLimitClamped(t *testing.T) {
	assert.Equal(t, defaultLeaderboardSize, clampLimit(0))
	assert.Equal(t, defaultLeaderboardSize, clampLimit(-3))
	assert.Equal(t, maxLeaderboardSize, clampLimit(5000))
	assert.Equal(t, 7, clampLimit(7))
}

func TestDataServiceMissingDataIs404(t *testing.T) {
	paths := testPaths(t)
	svc := NewDataService(paths, discardLogger())

	_, err := svc.GetOverview(context.Background())
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "DATA_NOT_FOUND", apiErr.ErrorCode)
}

func TestDataServiceRunDistributionDimension(t *testing.T) {
	paths := testPaths(t)
	seedFacts(t, paths)
	svc := NewDataService(paths, discardLogger())

	buckets, err := svc.GetRunDistribution(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, buckets)

	_, err = svc.GetRunDistribution(context.Background(), "weather")
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestDataServiceTossImpact(t *testing.T) {
	paths := testPaths(t)
	seedFacts(t, paths)
	svc := NewDataService(paths, discardLogger())

	impact, err := svc.GetTossImpact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, impact.MatchesWithResult)
	assert.Equal(t, 2, impact.TossWinnerWins)
}

func TestDataServiceListReports(t *testing.T) {
	paths := testPaths(t)
	svc := NewDataService(paths, discardLogger())

	require.NoError(t, os.WriteFile(paths.GetAnalyticsPath("top_scorers.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(paths.GetAnalyticsPath("notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(paths.AnalyticsDir, "sub"), 0o755))

	reports, err := svc.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "top_scorers.json", reports[0].Name)
}
