package dataprocessing

import "strings"

// teamAliases maps full franchise names, including historical renames,
// onto canonical short codes. Scraped pages mix eras freely, so both
// the old and new names of a franchise collapse to one code.
var teamAliases = map[string]string{
	"Royal Challengers Bangalore": "RCB",
	"Royal Challengers Bengaluru": "RCB",
	"Delhi Daredevils":            "DC",
	"Delhi Capitals":              "DC",
	"Deccan Chargers":             "DC",
	"Kings XI Punjab":             "PBKS",
	"Punjab Kings":                "PBKS",
	"Rising Pune Supergiants":     "RPS",
	"Rising Pune Supergiant":      "RPS",
	"Gujarat Lions":               "GL",
	"Pune Warriors India":         "PWI",
	"Kochi Tuskers Kerala":        "KTK",
	"Sunrisers Hyderabad":         "SRH",
	"Mumbai Indians":              "MI",
	"Chennai Super Kings":         "CSK",
	"Kolkata Knight Riders":       "KKR",
	"Rajasthan Royals":            "RR",
}

// CanonicalTeam returns the canonical code for a team name. Unknown
// names pass through trimmed, so new teams degrade gracefully.
func CanonicalTeam(name string) string {
	trimmed := strings.TrimSpace(name)
	if code, ok := teamAliases[trimmed]; ok {
		return code
	}
	return trimmed
}

// StandardizeTeams canonicalizes team names in the named columns.
// Missing columns are skipped.
func StandardizeTeams(t *Table, columns ...string) {
	for _, col := range columns {
		idx := t.Col(col)
		if idx < 0 {
			continue
		}
		for _, row := range t.Rows {
			if idx < len(row) {
				row[idx] = CanonicalTeam(row[idx])
			}
		}
	}
}

// StandardizePlayers trims whitespace in the named player columns.
func StandardizePlayers(t *Table, columns ...string) {
	for _, col := range columns {
		idx := t.Col(col)
		if idx < 0 {
			continue
		}
		for _, row := range t.Rows {
			if idx < len(row) {
				row[idx] = strings.TrimSpace(row[idx])
			}
		}
	}
}
