package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cricpulse/internal/config"
	"cricpulse/internal/operations"
	"cricpulse/internal/predict"
	"cricpulse/internal/services"
	"cricpulse/internal/websocket"
)

type stubStep struct {
	operations.BaseStage
}

func (stubStep) Execute(context.Context, *operations.OperationState) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires real services over a temp directory.
func newTestServer(t *testing.T) (*httptest.Server, *config.Paths) {
	t.Helper()
	paths, err := config.GetPaths(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger := discardLogger()
	hub := websocket.NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	manager := operations.NewManager(hub, nil, nil, logger)
	require.NoError(t, manager.RegisterStage(&stubStep{BaseStage: operations.NewBaseStage("scraping", "scraping")}))

	predictor := predict.NewPredictor(paths, nil, logger)
	cfg := config.Default()

	router := NewRouter(RouterDeps{
		Config:     cfg,
		Paths:      paths,
		Logger:     logger,
		Hub:        hub,
		Data:       services.NewDataService(paths, logger),
		Prediction: services.NewPredictionService(predictor, logger),
		Operations: services.NewOperationService(manager, logger),
		Health:     services.NewHealthService("test", paths, manager, hub, predictor, logger),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, paths
}

func seedFacts(t *testing.T, paths *config.Paths) {
	t.Helper()
	matches := "match_id,date,venue,team1,team2,toss_winner,toss_decision,winner,result,team1_win\n" +
		"1,2024-04-01,Wankhede Stadium,Mumbai Indians,Chennai Super Kings,Mumbai Indians,bat,Mumbai Indians,won by 10 runs,1\n"
	deliveries := "match_id,innings,over,ball,batting_team,bowling_team,batter,bowler,batsman_runs,extra_runs,total_runs,is_wicket,dismissal_kind,player_dismissed\n" +
		"1,1,1,1,Mumbai Indians,Chennai Super Kings,RG Sharma,DL Chahar,4,0,4,0,,\n" +
		"1,1,1,2,Mumbai Indians,Chennai Super Kings,RG Sharma,DL Chahar,6,0,6,0,,\n"
	require.NoError(t, os.WriteFile(paths.FactMatchesCSV, []byte(matches), 0o644))
	require.NoError(t, os.WriteFile(paths.FactDeliveriesCSV, []byte(deliveries), 0o644))
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]interface{}
	resp := getJSON(t, srv, "/api/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestDataEndpoints(t *testing.T) {
	srv, paths := newTestServer(t)
	seedFacts(t, paths)

	var scorers []map[string]interface{}
	resp := getJSON(t, srv, "/api/data/top-scorers?n=5", &scorers)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, scorers, 1)
	assert.Equal(t, "RG Sharma", scorers[0]["player"])
	assert.Equal(t, float64(10), scorers[0]["runs"])

	var overview map[string]interface{}
	resp = getJSON(t, srv, "/api/data/overview", &overview)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), overview["matches"])
}

func TestDataNotFoundIsProblemJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/data/overview")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "/errors/data/not-found", problem["type"])
	assert.NotEmpty(t, problem["trace_id"])
}

func TestInvalidLimitParam(t *testing.T) {
	srv, paths := newTestServer(t)
	seedFacts(t, paths)

	resp, err := http.Get(srv.URL + "/api/data/top-scorers?n=lots")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictWinWithoutModel(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.NewReader(`{"team1":"Mumbai Indians","team2":"Chennai Super Kings"}`)
	resp, err := http.Post(srv.URL+"/api/predict/win", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/errors/model/not-found")
}

func TestPredictWinValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	body := strings.NewReader(`{"team1":"Mumbai Indians"}`)
	resp, err := http.Post(srv.URL+"/api/predict/win", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictModelsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var models map[string]bool
	resp := getJSON(t, srv, "/api/predict/models", &models)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, models["win"])
}

func TestOperationsStartAndStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/operations/start", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var start map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&start))
	id, ok := start["operation_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)

	deadline := 50
	for i := 0; i < deadline; i++ {
		var status map[string]interface{}
		r := getJSON(t, srv, "/api/operations/"+id, &status)
		require.Equal(t, http.StatusOK, r.StatusCode)
		if status["status"] == "completed" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("operation never completed")
}

func TestOperationStatusNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/operations/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Generate at least one labelled observation first.
	getJSON(t, srv, "/api/health", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cricpulse_http_requests_total")
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
