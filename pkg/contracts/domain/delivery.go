package domain

import "strconv"

// Delivery represents one ball of a match, the grain of the deliveries
// fact table.
type Delivery struct {
	MatchID         int    `json:"match_id" csv:"match_id"`
	Innings         int    `json:"innings" csv:"innings"`
	Over            int    `json:"over" csv:"over"`
	Ball            int    `json:"ball" csv:"ball"`
	BatTeam         string `json:"bat_team,omitempty" csv:"bat_team"`
	BowlerTeam      string `json:"bowler_team,omitempty" csv:"bowler_team"`
	Batter          string `json:"batter" csv:"batter"`
	Bowler          string `json:"bowler" csv:"bowler"`
	BatsmanRuns     int    `json:"batsman_runs" csv:"batsman_runs"`
	ExtraRuns       int    `json:"extra_runs" csv:"extra_runs"`
	TotalRuns       int    `json:"total_runs" csv:"total_runs"`
	WicketType      string `json:"wicket_type,omitempty" csv:"wicket_type"`
	DismissalPlayer string `json:"dismissal_player,omitempty" csv:"dismissal_player"`
	IsWicket        int    `json:"is_wicket" csv:"is_wicket"`
}

// DeliveryHeaders is the canonical column order for deliveries CSV output.
var DeliveryHeaders = []string{
	"match_id", "innings", "over", "ball", "bat_team", "bowler_team",
	"batter", "bowler", "batsman_runs", "extra_runs", "total_runs",
	"wicket_type", "dismissal_player", "is_wicket",
}

// Record returns the CSV record for the delivery in DeliveryHeaders order.
func (d Delivery) Record() []string {
	return []string{
		itoa(d.MatchID), itoa(d.Innings), itoa(d.Over), itoa(d.Ball),
		d.BatTeam, d.BowlerTeam, d.Batter, d.Bowler,
		itoa(d.BatsmanRuns), itoa(d.ExtraRuns), itoa(d.TotalRuns),
		d.WicketType, d.DismissalPlayer, itoa(d.IsWicket),
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
