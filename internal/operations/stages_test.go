package operations

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cricpulse/internal/config"
	"cricpulse/internal/dataprocessing"
	"cricpulse/internal/exporter"
	"cricpulse/internal/predict"
	"cricpulse/internal/scraper"
)

type stubScrape struct{ err error }

func (s stubScrape) Run(context.Context) (*scraper.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &scraper.Result{Matches: 2, Deliveries: 10}, nil
}

type stubClean struct{ err error }

func (s stubClean) CleanAll(context.Context) ([]dataprocessing.CleanResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []dataprocessing.CleanResult{
		{Table: "matches", RowsOut: 2, OutputPath: "matches_clean.csv"},
		{Table: "deliveries", RowsOut: 10, OutputPath: "deliveries_clean.csv"},
	}, nil
}

type stubTransform struct{}

func (stubTransform) Transform(context.Context) (*dataprocessing.TransformResult, error) {
	return &dataprocessing.TransformResult{FactMatches: 2, FactDeliveries: 10, FinalDataset: 4}, nil
}

type stubAnalytics struct{ called *bool }

func (s stubAnalytics) WriteReports(context.Context) error {
	*s.called = true
	return nil
}

type stubTrain struct{}

func (stubTrain) TrainAll(context.Context) (*predict.TrainResult, error) {
	return &predict.TrainResult{WinModelVersion: "logreg-1", WinSamples: 2}, nil
}

type stubExport struct{}

func (stubExport) Export(context.Context) (*exporter.Result, error) {
	return &exporter.Result{TablesExported: []string{"fact_matches"}}, nil
}

func stagePaths(t *testing.T) *config.Paths {
	t.Helper()
	paths, err := config.GetPaths(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

// touchPipelineFiles creates the intermediate files the stage
// validations check for.
func touchPipelineFiles(t *testing.T, paths *config.Paths) {
	t.Helper()
	for _, p := range []string{
		paths.RawMatchesCSV, paths.MatchesCleanCSV,
		paths.DeliveriesCleanCSV, paths.FactDeliveriesCSV,
	} {
		require.NoError(t, os.WriteFile(p, []byte("x\n1\n"), 0o644))
	}
}

func TestFullPipelineStages(t *testing.T) {
	paths := stagePaths(t)
	touchPipelineFiles(t, paths)

	analyticsCalled := false
	trained := false

	m := NewManager(nil, nil, fastConfig(), nil)
	require.NoError(t, RegisterDefaultStages(m,
		stubScrape{}, stubClean{}, stubTransform{},
		stubAnalytics{called: &analyticsCalled}, stubTrain{}, stubExport{},
		paths, func() { trained = true },
	))

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.True(t, analyticsCalled)
	assert.True(t, trained)

	assert.Equal(t, 2, resp.Steps[StageIDScraping].Metadata["matches"])
	assert.Equal(t, 2, resp.Steps[StageIDCleaning].Metadata["matches_rows"])
	assert.Equal(t, 4, resp.Steps[StageIDTransformation].Metadata["final_dataset"])
	assert.Equal(t, "logreg-1", resp.Steps[StageIDTraining].Metadata["win_model"])
}

func TestCleaningStageValidation(t *testing.T) {
	paths := stagePaths(t)
	// no raw data on disk

	stage := NewCleaningStage(stubClean{}, paths)
	err := stage.Validate(NewOperationState("op"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run scraping first")
}

func TestTransformationStageValidation(t *testing.T) {
	paths := stagePaths(t)

	stage := NewTransformationStage(stubTransform{}, paths)
	err := stage.Validate(NewOperationState("op"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run cleaning first")
}

func TestScrapingStageFailurePropagates(t *testing.T) {
	paths := stagePaths(t)
	touchPipelineFiles(t, paths)

	m := NewManager(nil, nil, fastConfig(), nil)
	analyticsCalled := false
	require.NoError(t, RegisterDefaultStages(m,
		stubScrape{err: fmt.Errorf("site down")}, stubClean{}, stubTransform{},
		stubAnalytics{called: &analyticsCalled}, stubTrain{}, stubExport{},
		paths, nil,
	))

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)

	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps[StageIDScraping].GetStatus())
	assert.Equal(t, StepStatusSkipped, resp.Steps[StageIDCleaning].GetStatus())
	assert.False(t, analyticsCalled)
}

func TestManifestRecordsCleanedTables(t *testing.T) {
	paths := stagePaths(t)
	touchPipelineFiles(t, paths)

	m := NewManager(nil, nil, fastConfig(), nil)
	called := false
	require.NoError(t, RegisterDefaultStages(m,
		stubScrape{}, stubClean{}, stubTransform{},
		stubAnalytics{called: &called}, stubTrain{}, stubExport{},
		paths, nil,
	))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-m"})
	require.NoError(t, err)
	require.Equal(t, OperationStatusCompleted, resp.Status)

	state, ok := m.GetOperation("op-m")
	require.True(t, ok)
	v, ok := state.GetContext("manifest")
	require.True(t, ok)
	manifest := v.(*PipelineManifest)

	info, ok := manifest.GetData("matches_clean")
	require.True(t, ok)
	assert.Equal(t, 2, info.RowCount)
	assert.Equal(t, StageIDCleaning, info.CreatedBy)
	assert.Len(t, manifest.CompletedStages, 6)
}

func TestManifestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	m := NewPipelineManifest("op-1")
	m.RecordData("fact_matches", "fact_matches.csv", 42, StageIDTransformation)
	m.SetStatus("completed")
	require.NoError(t, m.Save(dir))

	loaded, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "op-1", loaded.OperationID)
	assert.Equal(t, "completed", loaded.Status)

	info, ok := loaded.GetData("fact_matches")
	require.True(t, ok)
	assert.Equal(t, 42, info.RowCount)
}
