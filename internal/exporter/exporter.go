// Package exporter hands the star schema off to BI tooling: BOM-prefixed
// CSV copies of the fact and dimension tables under data/analytics, and
// a single Excel workbook with one sheet per table.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
)

// exportTables maps output names onto the processed tables they copy.
var exportTables = []struct {
	name string
	path func(p *config.Paths) string
}{
	{"fact_matches", func(p *config.Paths) string { return p.FactMatchesCSV }},
	{"fact_deliveries", func(p *config.Paths) string { return p.FactDeliveriesCSV }},
	{"dim_players", func(p *config.Paths) string { return p.DimPlayersCSV }},
	{"dim_teams", func(p *config.Paths) string { return p.DimTeamsCSV }},
	{"dim_venues", func(p *config.Paths) string { return p.DimVenuesCSV }},
	{"final_dataset", func(p *config.Paths) string { return p.FinalDatasetCSV }},
}

// Result summarizes one export run.
type Result struct {
	TablesExported []string `json:"tables_exported"`
	TablesSkipped  []string `json:"tables_skipped"`
	WorkbookPath   string   `json:"workbook_path,omitempty"`
}

// Exporter copies the star schema to the analytics directory.
type Exporter struct {
	paths  *config.Paths
	writer *CSVWriter
	logger *slog.Logger
}

// New creates an exporter over the configured paths.
func New(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  paths,
		writer: NewCSVWriter(),
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// Export writes every available table as a BOM-prefixed CSV and bundles
// them into one workbook. Missing tables are skipped, not fatal; the
// export fails only when nothing is available.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}
	tables := make(map[string]*dataprocessing.Table)

	for _, spec := range exportTables {
		t, err := dataprocessing.ReadCSV(spec.path(e.paths))
		if err != nil {
			e.logger.WarnContext(ctx, "table unavailable for export",
				slog.String("table", spec.name),
				slog.String("error", err.Error()),
			)
			result.TablesSkipped = append(result.TablesSkipped, spec.name)
			continue
		}

		out := e.paths.GetAnalyticsPath(spec.name + ".csv")
		if err := e.writer.WriteSimpleCSV(out, t.Headers, t.Rows); err != nil {
			return nil, fmt.Errorf("export %s: %w", spec.name, err)
		}
		tables[spec.name] = t
		result.TablesExported = append(result.TablesExported, spec.name)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("export: no tables available, run the pipeline first")
	}

	workbook, err := e.writeWorkbook(tables)
	if err != nil {
		return nil, err
	}
	result.WorkbookPath = workbook

	e.logger.InfoContext(ctx, "export completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("tables", len(result.TablesExported)),
		slog.String("workbook", workbook),
	)
	return result, nil
}

// writeWorkbook writes one sheet per table into a single xlsx file.
func (e *Exporter) writeWorkbook(tables map[string]*dataprocessing.Table) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, spec := range exportTables {
		t, ok := tables[spec.name]
		if !ok {
			continue
		}

		sheet := spec.name
		if first {
			// rename the default sheet instead of leaving it empty
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("workbook: %w", err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("workbook: %w", err)
			}
		}

		if err := writeSheet(f, sheet, t); err != nil {
			return "", err
		}
	}

	path := e.paths.GetAnalyticsPath("cricpulse_export.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("workbook: failed to save: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, t *dataprocessing.Table) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("workbook: sheet %s: %w", sheet, err)
	}

	for i, row := range t.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("workbook: sheet %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("workbook: sheet %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}
