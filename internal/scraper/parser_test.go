package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchListHTML = `
<html><body>
<table class="match-list"><tbody>
<tr>
  <td>1</td><td>2024-03-22</td><td>Wankhede Stadium</td>
  <td>Mumbai Indians</td><td>Chennai Super Kings</td>
  <td>Mumbai Indians</td><td>Bat</td><td>Mumbai Indians</td><td>won by 20 runs</td>
</tr>
<tr>
  <td>2</td><td>23/03/2024</td><td>Eden Gardens</td>
  <td>Kolkata Knight Riders</td><td>Royal Challengers Bangalore</td>
  <td>Kolkata Knight Riders</td><td>Field</td><td></td><td>no result</td>
</tr>
<tr>
  <td>n/a</td><td>2024-03-24</td><td>Chepauk</td>
  <td>Chennai Super Kings</td><td>Delhi Capitals</td>
  <td></td><td></td><td></td><td></td>
</tr>
</tbody></table>
</body></html>`

func TestParseMatchList(t *testing.T) {
	matches, err := ParseMatchList(matchListHTML)
	require.NoError(t, err)
	require.Len(t, matches, 2, "row without numeric id is skipped")

	m := matches[0]
	assert.Equal(t, 1, m.MatchID)
	assert.Equal(t, "2024-03-22", m.Date.Format("2006-01-02"))
	assert.Equal(t, "Wankhede Stadium", m.Venue)
	assert.Equal(t, "Mumbai Indians", m.Team1)
	assert.Equal(t, "Chennai Super Kings", m.Team2)
	assert.Equal(t, "bat", m.TossDecision)
	assert.Equal(t, "won by 20 runs", m.Result)

	assert.Equal(t, "2024-03-23", matches[1].Date.Format("2006-01-02"))
	assert.Empty(t, matches[1].Winner)
}

const scorecardHTML = `
<html><body>
<table id="deliveries"><tbody>
<tr>
  <td>1</td><td>0</td><td>1</td><td>MI</td><td>CSK</td>
  <td>RG Sharma</td><td>DL Chahar</td><td>4</td><td>0</td><td></td><td></td>
</tr>
<tr>
  <td>1</td><td>0</td><td>2</td><td>MI</td><td>CSK</td>
  <td>RG Sharma</td><td>DL Chahar</td><td>0</td><td>1</td><td></td><td></td>
</tr>
<tr>
  <td>1</td><td>0</td><td>3</td><td>MI</td><td>CSK</td>
  <td>I Kishan</td><td>DL Chahar</td><td>0</td><td>0</td><td>Bowled</td><td>I Kishan</td>
</tr>
<tr>
  <td>1</td><td>0</td><td>4</td><td>MI</td><td>CSK</td>
  <td></td><td>DL Chahar</td><td>0</td><td>0</td><td></td><td></td>
</tr>
</tbody></table>
</body></html>`

func TestParseScorecard(t *testing.T) {
	deliveries, err := ParseScorecard(scorecardHTML, 7)
	require.NoError(t, err)
	require.Len(t, deliveries, 3, "row without batter is skipped")

	d := deliveries[0]
	assert.Equal(t, 7, d.MatchID)
	assert.Equal(t, 1, d.Innings)
	assert.Equal(t, 0, d.Over)
	assert.Equal(t, 1, d.Ball)
	assert.Equal(t, "RG Sharma", d.Batter)
	assert.Equal(t, 4, d.BatsmanRuns)
	assert.Equal(t, 4, d.TotalRuns)
	assert.Equal(t, 0, d.IsWicket)

	// extras count toward the total
	assert.Equal(t, 1, deliveries[1].TotalRuns)

	wicket := deliveries[2]
	assert.Equal(t, 1, wicket.IsWicket)
	assert.Equal(t, "bowled", wicket.WicketType)
	assert.Equal(t, "I Kishan", wicket.DismissalPlayer)
}

const playerListHTML = `
<html><body>
<table class="players"><tbody>
<tr><td>RG Sharma</td><td>Mumbai Indians</td><td>Batter</td><td>31.2</td><td></td></tr>
<tr><td>DL Chahar</td><td>Chennai Super Kings</td><td>Bowler</td><td></td><td>27.8</td></tr>
<tr><td></td><td>Mumbai Indians</td><td>Bowler</td><td></td><td></td></tr>
</tbody></table>
</body></html>`

func TestParsePlayerList(t *testing.T) {
	players, err := ParsePlayerList(playerListHTML)
	require.NoError(t, err)
	require.Len(t, players, 2, "row without name is skipped")

	assert.Equal(t, "RG Sharma", players[0].PlayerName)
	assert.Equal(t, "Mumbai Indians", players[0].Team)
	assert.InDelta(t, 31.2, players[0].BattingAvg, 0.001)
	assert.InDelta(t, 27.8, players[1].BowlingAvg, 0.001)
}

func TestParseEmptyDocuments(t *testing.T) {
	matches, err := ParseMatchList("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, matches)

	deliveries, err := ParseScorecard("<html><body></body></html>", 1)
	require.NoError(t, err)
	assert.Empty(t, deliveries)
}
