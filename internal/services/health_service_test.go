package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cricpulse/internal/operations"
)

func TestHealthDegradedWithoutData(t *testing.T) {
	paths := testPaths(t)
	svc := NewHealthService("1.0.0", paths, nil, nil, nil, discardLogger())

	status := svc.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.False(t, status.Data["fact_matches"].Available)
	assert.NotEmpty(t, status.Runtime["go_version"])
}

func TestHealthHealthyWithData(t *testing.T) {
	paths := testPaths(t)
	seedFacts(t, paths)
	require.NoError(t, os.WriteFile(paths.RawMatchesCSV, []byte("x\n"), 0o644))

	m := operations.NewManager(nil, nil, nil, discardLogger())
	require.NoError(t, m.RegisterStage(quickStep("scraping")))

	svc := NewHealthService("1.0.0", paths, m, nil, nil, discardLogger())
	status := svc.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.Data["fact_matches"].Available)
	assert.Positive(t, status.Data["fact_matches"].SizeBytes)
	assert.Equal(t, false, status.Pipeline["running"])
	assert.Equal(t, []string{"scraping"}, status.Pipeline["steps"])
}
