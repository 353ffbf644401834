package operations

import (
	"context"
	"fmt"
	"os"

	"cricpulse/internal/analytics"
	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
	"cricpulse/internal/exporter"
	"cricpulse/internal/predict"
	"cricpulse/internal/scraper"
)

// Runner interfaces let tests substitute the pipeline components.
type (
	// ScrapeRunner collects raw data
	ScrapeRunner interface {
		Run(ctx context.Context) (*scraper.Result, error)
	}
	// CleanRunner produces the clean tables
	CleanRunner interface {
		CleanAll(ctx context.Context) ([]dataprocessing.CleanResult, error)
	}
	// TransformRunner builds facts and dimensions
	TransformRunner interface {
		Transform(ctx context.Context) (*dataprocessing.TransformResult, error)
	}
	// AnalyticsRunner writes the aggregate reports
	AnalyticsRunner interface {
		WriteReports(ctx context.Context) error
	}
	// TrainRunner fits and persists the models
	TrainRunner interface {
		TrainAll(ctx context.Context) (*predict.TrainResult, error)
	}
	// ExportRunner hands tables off to BI tooling
	ExportRunner interface {
		Export(ctx context.Context) (*exporter.Result, error)
	}
)

// ScrapingStage collects raw CSVs from the stats site
type ScrapingStage struct {
	BaseStage
	runner ScrapeRunner
}

// NewScrapingStage creates the scraping stage
func NewScrapingStage(runner ScrapeRunner) *ScrapingStage {
	return &ScrapingStage{
		BaseStage: NewBaseStage(StageIDScraping, StageNameScraping),
		runner:    runner,
	}
}

// Execute runs a scrape and records what was collected
func (s *ScrapingStage) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.runner.Run(ctx)
	if err != nil {
		return err
	}
	stepState := state.GetStage(s.ID())
	if stepState != nil {
		stepState.SetMetadata("matches", result.Matches)
		stepState.SetMetadata("deliveries", result.Deliveries)
		stepState.SetMetadata("failed_scorecards", result.Failed)
	}
	state.SetContext("scrape_result", result)
	return nil
}

// CleaningStage reconciles raw CSVs onto the canonical schema
type CleaningStage struct {
	BaseStage
	runner CleanRunner
	paths  *config.Paths
}

// NewCleaningStage creates the cleaning stage
func NewCleaningStage(runner CleanRunner, paths *config.Paths) *CleaningStage {
	return &CleaningStage{
		BaseStage: NewBaseStage(StageIDCleaning, StageNameCleaning),
		runner:    runner,
		paths:     paths,
	}
}

// Validate requires the raw matches file to exist
func (s *CleaningStage) Validate(state *OperationState) error {
	if _, err := os.Stat(s.paths.RawMatchesCSV); err != nil {
		return fmt.Errorf("no raw matches data at %s, run scraping first", s.paths.RawMatchesCSV)
	}
	return nil
}

// Execute cleans all three tables and records row counts
func (s *CleaningStage) Execute(ctx context.Context, state *OperationState) error {
	results, err := s.runner.CleanAll(ctx)
	if err != nil {
		return err
	}
	stepState := state.GetStage(s.ID())
	if v, ok := state.GetContext("manifest"); ok {
		if manifest, ok := v.(*PipelineManifest); ok {
			for _, r := range results {
				// skipped optional tables carry no output path
				if r.OutputPath == "" {
					continue
				}
				manifest.RecordData(r.Table+"_clean", r.OutputPath, r.RowsOut, s.ID())
			}
		}
	}
	if stepState != nil {
		for _, r := range results {
			stepState.SetMetadata(r.Table+"_rows", r.RowsOut)
		}
	}
	return nil
}

// TransformationStage builds the star schema and the modelling dataset
type TransformationStage struct {
	BaseStage
	runner TransformRunner
	paths  *config.Paths
}

// NewTransformationStage creates the transformation stage
func NewTransformationStage(runner TransformRunner, paths *config.Paths) *TransformationStage {
	return &TransformationStage{
		BaseStage: NewBaseStage(StageIDTransformation, StageNameTransformation),
		runner:    runner,
		paths:     paths,
	}
}

// Validate requires the cleaned tables to exist
func (s *TransformationStage) Validate(state *OperationState) error {
	for _, path := range []string{s.paths.MatchesCleanCSV, s.paths.DeliveriesCleanCSV} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("missing cleaned table %s, run cleaning first", path)
		}
	}
	return nil
}

// Execute transforms the cleaned tables
func (s *TransformationStage) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.runner.Transform(ctx)
	if err != nil {
		return err
	}
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("fact_matches", result.FactMatches)
		stepState.SetMetadata("fact_deliveries", result.FactDeliveries)
		stepState.SetMetadata("final_dataset", result.FinalDataset)
	}
	if v, ok := state.GetContext("manifest"); ok {
		if manifest, ok := v.(*PipelineManifest); ok {
			manifest.RecordData("fact_matches", s.paths.FactMatchesCSV, result.FactMatches, s.ID())
			manifest.RecordData("fact_deliveries", s.paths.FactDeliveriesCSV, result.FactDeliveries, s.ID())
			manifest.RecordData("final_dataset", s.paths.FinalDatasetCSV, result.FinalDataset, s.ID())
		}
	}
	return nil
}

// AnalyticsStage writes the aggregate reports
type AnalyticsStage struct {
	BaseStage
	runner AnalyticsRunner
	paths  *config.Paths
}

// NewAnalyticsStage creates the analytics stage
func NewAnalyticsStage(runner AnalyticsRunner, paths *config.Paths) *AnalyticsStage {
	return &AnalyticsStage{
		BaseStage: NewBaseStage(StageIDAnalytics, StageNameAnalytics),
		runner:    runner,
		paths:     paths,
	}
}

// Validate requires the fact tables to exist
func (s *AnalyticsStage) Validate(state *OperationState) error {
	if _, err := os.Stat(s.paths.FactDeliveriesCSV); err != nil {
		return fmt.Errorf("missing fact tables, run transformation first")
	}
	return nil
}

// Execute computes and writes every analytics report
func (s *AnalyticsStage) Execute(ctx context.Context, state *OperationState) error {
	return s.runner.WriteReports(ctx)
}

// TrainingStage fits the prediction models
type TrainingStage struct {
	BaseStage
	runner  TrainRunner
	onTrain func()
}

// NewTrainingStage creates the training stage. onTrain runs after a
// successful fit so cached models get reloaded.
func NewTrainingStage(runner TrainRunner, onTrain func()) *TrainingStage {
	return &TrainingStage{
		BaseStage: NewBaseStage(StageIDTraining, StageNameTraining),
		runner:    runner,
		onTrain:   onTrain,
	}
}

// Execute trains all models and records the fitted versions
func (s *TrainingStage) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.runner.TrainAll(ctx)
	if err != nil {
		return err
	}
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("win_model", result.WinModelVersion)
		stepState.SetMetadata("win_train_accuracy", result.WinTrainAccuracy)
		stepState.SetMetadata("innings_model", result.InningsModelVersion)
		stepState.SetMetadata("player_model", result.PlayerModelVersion)
	}
	if s.onTrain != nil {
		s.onTrain()
	}
	return nil
}

// ExportStage copies the star schema for BI tooling
type ExportStage struct {
	BaseStage
	runner ExportRunner
}

// NewExportStage creates the export stage
func NewExportStage(runner ExportRunner) *ExportStage {
	return &ExportStage{
		BaseStage: NewBaseStage(StageIDExport, StageNameExport),
		runner:    runner,
	}
}

// Execute exports every available table
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.runner.Export(ctx)
	if err != nil {
		return err
	}
	if stepState := state.GetStage(s.ID()); stepState != nil {
		stepState.SetMetadata("tables_exported", result.TablesExported)
		stepState.SetMetadata("workbook", result.WorkbookPath)
	}
	return nil
}

// RegisterDefaultStages wires the full pipeline in execution order.
func RegisterDefaultStages(m *Manager, scrape ScrapeRunner, clean CleanRunner, transform TransformRunner, analyticsRunner AnalyticsRunner, train TrainRunner, export ExportRunner, paths *config.Paths, onTrain func()) error {
	steps := []Step{
		NewScrapingStage(scrape),
		NewCleaningStage(clean, paths),
		NewTransformationStage(transform, paths),
		NewAnalyticsStage(analyticsRunner, paths),
		NewTrainingStage(train, onTrain),
		NewExportStage(export),
	}
	for _, step := range steps {
		if err := m.RegisterStage(step); err != nil {
			return err
		}
	}
	return nil
}

// compile-time checks that the real components satisfy the runners
var (
	_ CleanRunner     = (*dataprocessing.Cleaner)(nil)
	_ TransformRunner = (*dataprocessing.Transformer)(nil)
	_ AnalyticsRunner = (*analytics.Engine)(nil)
	_ TrainRunner     = (*predict.Trainer)(nil)
	_ ExportRunner    = (*exporter.Exporter)(nil)
	_ ScrapeRunner    = (*scraper.Scraper)(nil)
)
