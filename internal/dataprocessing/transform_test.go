package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform(t *testing.T) {
	paths := testPaths(t)

	writeFile(t, paths.ProcessedDir, "matches_clean.csv",
		"match_id,date,venue,team1,team2,toss_winner,toss_decision,winner,result\n"+
			"1,2024-03-22,Wankhede,MI,CSK,MI,bat,MI,won by 20 runs\n"+
			"2,2024-03-23,Chepauk,CSK,RCB,CSK,field,RCB,won by 6 wickets\n")

	writeFile(t, paths.ProcessedDir, "deliveries_clean.csv",
		"match_id,innings,over,ball,bat_team,bowler_team,batter,bowler,batsman_runs,extra_runs,total_runs,is_wicket\n"+
			"1,1,0,1,MI,CSK,RG Sharma,DL Chahar,4,0,4,0\n"+
			"1,1,0,2,MI,CSK,RG Sharma,DL Chahar,0,1,1,0\n"+
			"1,1,0,3,MI,CSK,RG Sharma,DL Chahar,6,0,6,0\n"+
			"1,2,0,1,CSK,MI,RD Gaikwad,JJ Bumrah,1,0,1,0\n"+
			"2,1,0,1,CSK,RCB,RD Gaikwad,MM Siraj,2,0,2,0\n")

	writeFile(t, paths.ProcessedDir, "players_clean.csv",
		"player_name,team,role,batting_avg,bowling_avg\n"+
			"RG Sharma,MI,Batter,31.2,\n"+
			"DL Chahar,CSK,Bowler,,27.8\n")

	tr := NewTransformer(paths, discardLogger())
	result, err := tr.Transform(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.FactMatches)
	assert.Equal(t, 5, result.FactDeliveries)
	assert.Equal(t, 2, result.DimPlayers)
	assert.Equal(t, 3, result.DimTeams)
	assert.Equal(t, 2, result.DimVenues)

	t.Run("fact_matches carries team1_win label", func(t *testing.T) {
		fact, err := ReadCSV(paths.FactMatchesCSV)
		require.NoError(t, err)
		assert.Equal(t, "1", fact.Cell(0, "team1_win"))
		assert.Equal(t, "0", fact.Cell(1, "team1_win"))
	})

	t.Run("final dataset aggregates batting and bowling", func(t *testing.T) {
		final, err := ReadCSV(paths.FinalDatasetCSV)
		require.NoError(t, err)

		// RG Sharma, match 1 innings 1: 10 runs off 3 balls
		row := findRow(t, final, "RG Sharma", "1", "1")
		assert.Equal(t, "10", final.Cell(row, "runs_scored"))
		assert.Equal(t, "3", final.Cell(row, "balls_faced"))
		assert.Equal(t, "333.33", final.Cell(row, "strike_rate"))
		// pure batter has empty bowling cells
		assert.Equal(t, "", final.Cell(row, "runs_conceded"))
		assert.Equal(t, "Wankhede", final.Cell(row, "venue"))
		assert.Equal(t, "MI", final.Cell(row, "winner"))

		// DL Chahar, match 1 innings 1: 11 conceded off 3 balls
		row = findRow(t, final, "DL Chahar", "1", "1")
		assert.Equal(t, "", final.Cell(row, "runs_scored"))
		assert.Equal(t, "11", final.Cell(row, "runs_conceded"))
		assert.Equal(t, "3", final.Cell(row, "balls_bowled"))
		assert.Equal(t, "0.50", final.Cell(row, "overs_bowled"))
		assert.Equal(t, "22.00", final.Cell(row, "economy"))
	})

	t.Run("dim tables are sorted with ids", func(t *testing.T) {
		teams, err := ReadCSV(paths.DimTeamsCSV)
		require.NoError(t, err)
		assert.Equal(t, []string{"team_id", "team_name"}, teams.Headers)
		assert.Equal(t, "CSK", teams.Cell(0, "team_name"))
		assert.Equal(t, "1", teams.Cell(0, "team_id"))

		venues, err := ReadCSV(paths.DimVenuesCSV)
		require.NoError(t, err)
		assert.Equal(t, "Chepauk", venues.Cell(0, "venue_name"))
	})
}

func TestTransformDimPlayersFallback(t *testing.T) {
	paths := testPaths(t)

	writeFile(t, paths.ProcessedDir, "matches_clean.csv",
		"match_id,date,venue,team1,team2,winner\n1,2024-03-22,Wankhede,MI,CSK,MI\n")
	writeFile(t, paths.ProcessedDir, "deliveries_clean.csv",
		"match_id,innings,batter,bowler,batsman_runs,total_runs\n"+
			"1,1,RG Sharma,DL Chahar,4,4\n"+
			"1,1,I Kishan,DL Chahar,1,1\n")
	// no players_clean.csv on purpose

	tr := NewTransformer(paths, discardLogger())
	result, err := tr.Transform(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.DimPlayers)

	dim, err := ReadCSV(paths.DimPlayersCSV)
	require.NoError(t, err)
	assert.Equal(t, "RG Sharma", dim.Cell(0, "player_name"))
	assert.Equal(t, "I Kishan", dim.Cell(1, "player_name"))
}

func TestTransformMissingInputs(t *testing.T) {
	paths := testPaths(t)
	tr := NewTransformer(paths, discardLogger())

	_, err := tr.Transform(context.Background())
	assert.Error(t, err)
}

func findRow(t *testing.T, tbl *Table, player, matchID, innings string) int {
	t.Helper()
	for i := 0; i < tbl.Len(); i++ {
		if tbl.Cell(i, "player_name") == player &&
			tbl.Cell(i, "match_id") == matchID &&
			tbl.Cell(i, "innings") == innings {
			return i
		}
	}
	t.Fatalf("row not found: player=%s match=%s innings=%s", player, matchID, innings)
	return -1
}
