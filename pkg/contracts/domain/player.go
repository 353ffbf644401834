package domain

import "strconv"

// Player represents one row of the players dimension table.
type Player struct {
	PlayerName string  `json:"player_name" csv:"player_name"`
	Team       string  `json:"team,omitempty" csv:"team"`
	Role       string  `json:"role,omitempty" csv:"role"`
	BattingAvg float64 `json:"batting_avg,omitempty" csv:"batting_avg"`
	BowlingAvg float64 `json:"bowling_avg,omitempty" csv:"bowling_avg"`
}

// PlayerHeaders is the canonical column order for players CSV output.
var PlayerHeaders = []string{"player_name", "team", "role", "batting_avg", "bowling_avg"}

// Record returns the CSV record for the player in PlayerHeaders order.
func (p Player) Record() []string {
	return []string{
		p.PlayerName, p.Team, p.Role,
		ftoa(p.BattingAvg), ftoa(p.BowlingAvg),
	}
}

// PlayerMatchSummary is one row of the final dataset: a player's batting
// and bowling contribution within a single innings of a match, joined to
// match metadata. Counting fields are nil when the player had no activity
// on that side of the ball, matching the outer-merge semantics of the
// transformation stage.
type PlayerMatchSummary struct {
	MatchID     int      `json:"match_id"`
	Innings     int      `json:"innings"`
	PlayerName  string   `json:"player_name"`
	RunsScored  *int     `json:"runs_scored,omitempty"`
	BallsFaced  *int     `json:"balls_faced,omitempty"`
	StrikeRate  *float64 `json:"strike_rate,omitempty"`
	RunsConceded *int    `json:"runs_conceded,omitempty"`
	BallsBowled *int     `json:"balls_bowled,omitempty"`
	OversBowled *float64 `json:"overs_bowled,omitempty"`
	Economy     *float64 `json:"economy,omitempty"`
	Venue       string   `json:"venue,omitempty"`
	Team1       string   `json:"team1,omitempty"`
	Team2       string   `json:"team2,omitempty"`
	Winner      string   `json:"winner,omitempty"`
}

func ftoa(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
