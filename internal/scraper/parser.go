package scraper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cricpulse/pkg/contracts/domain"
)

// ParseMatchList extracts match summary rows from a results page. Rows
// missing an identifier or either team are skipped; parsing is best
// effort by design.
func ParseMatchList(html string) ([]domain.Match, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse match list: %w", err)
	}

	var matches []domain.Match
	doc.Find("table.match-list tbody tr, table#matches tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		id, err := strconv.Atoi(cellText(cells, 0))
		if err != nil {
			return
		}
		m := domain.Match{
			MatchID:      id,
			Venue:        cellText(cells, 2),
			Team1:        cellText(cells, 3),
			Team2:        cellText(cells, 4),
			TossWinner:   cellText(cells, 5),
			TossDecision: strings.ToLower(cellText(cells, 6)),
			Winner:       cellText(cells, 7),
			Result:       cellText(cells, 8),
		}
		if m.Team1 == "" || m.Team2 == "" {
			return
		}
		if d, derr := parseDate(cellText(cells, 1)); derr == nil {
			m.Date = d
		}
		matches = append(matches, m)
	})
	return matches, nil
}

// ParseScorecard extracts ball-by-ball rows from a scorecard page for
// the given match.
func ParseScorecard(html string, matchID int) ([]domain.Delivery, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse scorecard: %w", err)
	}

	var deliveries []domain.Delivery
	doc.Find("table.ball-by-ball tbody tr, table#deliveries tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 9 {
			return
		}

		d := domain.Delivery{
			MatchID:         matchID,
			Innings:         cellInt(cells, 0, 1),
			Over:            cellInt(cells, 1, 0),
			Ball:            cellInt(cells, 2, 0),
			BatTeam:         cellText(cells, 3),
			BowlerTeam:      cellText(cells, 4),
			Batter:          cellText(cells, 5),
			Bowler:          cellText(cells, 6),
			BatsmanRuns:     cellInt(cells, 7, 0),
			ExtraRuns:       cellInt(cells, 8, 0),
			WicketType:      strings.ToLower(cellText(cells, 9)),
			DismissalPlayer: cellText(cells, 10),
		}
		d.TotalRuns = d.BatsmanRuns + d.ExtraRuns
		if d.WicketType != "" {
			d.IsWicket = 1
		}
		if d.Batter == "" {
			return
		}
		deliveries = append(deliveries, d)
	})
	return deliveries, nil
}

// ParsePlayerList extracts player rows from a squad page.
func ParsePlayerList(html string) ([]domain.Player, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse player list: %w", err)
	}

	var players []domain.Player
	doc.Find("table.players tbody tr, table#players tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		p := domain.Player{
			PlayerName: cellText(cells, 0),
			Team:       cellText(cells, 1),
			Role:       cellText(cells, 2),
		}
		if p.PlayerName == "" {
			return
		}
		if avg, perr := strconv.ParseFloat(cellText(cells, 3), 64); perr == nil {
			p.BattingAvg = avg
		}
		if avg, perr := strconv.ParseFloat(cellText(cells, 4), 64); perr == nil {
			p.BowlingAvg = avg
		}
		players = append(players, p)
	})
	return players, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "Jan 2, 2006", "2 Jan 2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}

func cellInt(cells *goquery.Selection, i, fallback int) int {
	v, err := strconv.Atoi(cellText(cells, i))
	if err != nil {
		return fallback
	}
	return v
}
