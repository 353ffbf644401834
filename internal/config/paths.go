package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for all file paths used by the
// pipeline stages and the web server.
//
// Directory structure:
//
//	base/
//	  ├── data/
//	  │   ├── raw/         (scraper output: matches.csv, deliveries.csv, players.csv)
//	  │   ├── processed/   (cleaned + transformed tables)
//	  │   └── analytics/   (aggregations and BI exports)
//	  ├── models/          (trained model bundles + prediction history)
//	  ├── logs/
//	  └── web/             (dashboard assets)
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	ProcessedDir string
	AnalyticsDir string
	ModelsDir    string
	LogsDir      string
	WebDir       string

	// Raw inputs produced by the scraper
	RawMatchesCSV    string
	RawDeliveriesCSV string
	RawPlayersCSV    string

	// Cleaned tables
	MatchesCleanCSV    string
	DeliveriesCleanCSV string
	PlayersCleanCSV    string

	// Fact and dimension tables
	FactMatchesCSV    string
	FactDeliveriesCSV string
	DimPlayersCSV     string
	DimTeamsCSV       string
	DimVenuesCSV      string
	FinalDatasetCSV   string

	// Model bundles
	WinModelFile     string
	InningsModelFile string
	PlayerModelFile  string
	PredictionsDB    string
}

// GetPaths returns application paths rooted at baseDir. An empty baseDir
// resolves to the executable's directory so binaries behave the same
// whether launched from a shell or the dashboard.
func GetPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}
		baseDir = filepath.Dir(exe)
	}

	dataDir := filepath.Join(baseDir, "data")
	rawDir := filepath.Join(dataDir, "raw")
	processedDir := filepath.Join(dataDir, "processed")
	analyticsDir := filepath.Join(dataDir, "analytics")
	modelsDir := filepath.Join(baseDir, "models")

	paths := &Paths{
		BaseDir:      baseDir,
		DataDir:      dataDir,
		RawDir:       rawDir,
		ProcessedDir: processedDir,
		AnalyticsDir: analyticsDir,
		ModelsDir:    modelsDir,
		LogsDir:      filepath.Join(baseDir, "logs"),
		WebDir:       filepath.Join(baseDir, "web"),

		RawMatchesCSV:    filepath.Join(rawDir, "matches.csv"),
		RawDeliveriesCSV: filepath.Join(rawDir, "deliveries.csv"),
		RawPlayersCSV:    filepath.Join(rawDir, "players.csv"),

		MatchesCleanCSV:    filepath.Join(processedDir, "matches_clean.csv"),
		DeliveriesCleanCSV: filepath.Join(processedDir, "deliveries_clean.csv"),
		PlayersCleanCSV:    filepath.Join(processedDir, "players_clean.csv"),

		FactMatchesCSV:    filepath.Join(processedDir, "fact_matches.csv"),
		FactDeliveriesCSV: filepath.Join(processedDir, "fact_deliveries.csv"),
		DimPlayersCSV:     filepath.Join(processedDir, "dim_players.csv"),
		DimTeamsCSV:       filepath.Join(processedDir, "dim_teams.csv"),
		DimVenuesCSV:      filepath.Join(processedDir, "dim_venues.csv"),
		FinalDatasetCSV:   filepath.Join(processedDir, "final_dataset.csv"),

		WinModelFile:     filepath.Join(modelsDir, "win_prediction_logreg.json"),
		InningsModelFile: filepath.Join(modelsDir, "innings_score_lsq.json"),
		PlayerModelFile:  filepath.Join(modelsDir, "player_performance.json"),
		PredictionsDB:    filepath.Join(modelsDir, "predictions.db"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.RawDir,
		p.ProcessedDir,
		p.AnalyticsDir,
		p.ModelsDir,
		p.LogsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetLogPath returns the path for a named log file
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// GetAnalyticsPath returns the path for a named analytics output file
func (p *Paths) GetAnalyticsPath(name string) string {
	return filepath.Join(p.AnalyticsDir, name)
}
