package domain

import (
	"time"
)

// Match represents one row of the matches fact table. Fields mirror the
// canonical column set produced by the cleaning stage; optional fields
// stay empty when the source page did not expose them.
type Match struct {
	MatchID      int       `json:"match_id" csv:"match_id"`
	Date         time.Time `json:"date" csv:"date"`
	Venue        string    `json:"venue,omitempty" csv:"venue"`
	Team1        string    `json:"team1" csv:"team1"`
	Team2        string    `json:"team2" csv:"team2"`
	TossWinner   string    `json:"toss_winner,omitempty" csv:"toss_winner"`
	TossDecision string    `json:"toss_decision,omitempty" csv:"toss_decision"`
	Winner       string    `json:"winner,omitempty" csv:"winner"`
	Result       string    `json:"result,omitempty" csv:"result"`
}

// MatchHeaders is the canonical column order for matches CSV output.
var MatchHeaders = []string{
	"match_id", "date", "venue", "team1", "team2",
	"toss_winner", "toss_decision", "winner", "result",
}

// Record returns the CSV record for the match in MatchHeaders order.
func (m Match) Record() []string {
	date := ""
	if !m.Date.IsZero() {
		date = m.Date.Format("2006-01-02")
	}
	return []string{
		itoa(m.MatchID), date, m.Venue, m.Team1, m.Team2,
		m.TossWinner, m.TossDecision, m.Winner, m.Result,
	}
}
