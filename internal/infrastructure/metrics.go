package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline and scraper metrics. Registered on the default registry so
// the /metrics endpoint picks them up without extra wiring.
var (
	StageRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricpulse_stage_runs_total",
		Help: "Pipeline stage executions by stage and outcome.",
	}, []string{"stage", "outcome"})

	StageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cricpulse_stage_duration_seconds",
		Help:    "Pipeline stage execution duration.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})

	ScrapeFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricpulse_scrape_fetches_total",
		Help: "Page fetches performed by the scraper, by outcome.",
	}, []string{"outcome"})

	RowsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricpulse_rows_processed_total",
		Help: "Rows read and written by the cleaning stage, by table.",
	}, []string{"table", "direction"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cricpulse_http_requests_total",
		Help: "HTTP requests by path and status class.",
	}, []string{"path", "status"})

	WSClientsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cricpulse_ws_clients_active",
		Help: "Currently connected websocket clients.",
	})

	WSMessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cricpulse_ws_messages_sent_total",
		Help: "Websocket messages broadcast to clients.",
	})
)

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
