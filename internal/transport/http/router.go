package http

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/config"
	"cricpulse/internal/infrastructure"
	custommw "cricpulse/internal/middleware"
	"cricpulse/internal/services"
	"cricpulse/internal/websocket"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Config     *config.Config
	Paths      *config.Paths
	Logger     *slog.Logger
	Hub        *websocket.Hub
	Data       *services.DataService
	Prediction *services.PredictionService
	Operations *services.OperationService
	Health     *services.HealthService
}

// NewRouter builds the full API router with the standard middleware
// chain.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(logger))
	r.Use(custommw.Recoverer(logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.StripSlashes)
	r.Use(custommw.Compress(5))

	if deps.Config != nil && deps.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: deps.Config.Security.AllowedOrigins,
			Logger:         logger,
		}))
	}
	if deps.Config != nil && deps.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			deps.Config.Security.RateLimit.RPS,
			deps.Config.Security.RateLimit.Burst,
			logger,
		)
		r.Use(limiter.Handler)
	}
	r.Use(custommw.Timeout(60*time.Second, logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", NewHealthHandler(deps.Health, logger).Check)
		r.Mount("/data", NewDataHandler(deps.Data, logger, errorHandler).Routes())
		r.Mount("/predict", NewPredictHandler(deps.Prediction, logger, errorHandler).Routes())
		r.Mount("/operations", NewOperationsHandler(deps.Operations, logger, errorHandler).Routes())
	})

	r.Get("/ws", NewWebSocketHandler(deps.Hub, logger).Serve)
	r.Handle("/metrics", infrastructure.MetricsHandler())

	// Dashboard assets, when present.
	if deps.Paths != nil {
		if info, err := os.Stat(deps.Paths.WebDir); err == nil && info.IsDir() {
			fileServer := http.FileServer(http.Dir(deps.Paths.WebDir))
			r.Handle("/*", fileServer)
		}
	}

	return r
}
