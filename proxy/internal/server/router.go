// Package server wires the proxy's routes and middleware.
package server

import (
	"fmt"
	"net/http"

	"github.com/safetyline/hsg245-stack/common/logging"
	"github.com/safetyline/hsg245-stack/common/middleware"
	"github.com/safetyline/hsg245-stack/proxy/internal/handlers"
	"github.com/safetyline/hsg245-stack/proxy/internal/metrics"
)

// RouterConfig holds dependencies needed to configure routes
type RouterConfig struct {
	HSG245Handler    *handlers.HSG245Handler
	LifecycleHandler *handlers.LifecycleHandler
	CORS             middleware.CORSConfig
	Security         middleware.SecurityConfig
	Logger           *logging.Logger
	DevMode          bool
	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string
}

// NewRouter builds the proxy handler.
// Middleware order: RequestID -> AccessLog -> Recover -> SecurityHeaders -> CORS -> routes.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/hsg245", cfg.HSG245Handler.Health)
	// A GET pattern also matches HEAD; HEAD must not trigger a backend health call.
	mux.HandleFunc("HEAD /api/hsg245", cfg.HSG245Handler.MethodNotAllowed)
	mux.HandleFunc("POST /api/hsg245", cfg.HSG245Handler.Dispatch)
	mux.HandleFunc("/api/hsg245", cfg.HSG245Handler.MethodNotAllowed)

	if cfg.LifecycleHandler != nil {
		mux.HandleFunc("GET /api/hsg245/lifecycle", cfg.LifecycleHandler.List)
		mux.HandleFunc("GET /api/hsg245/lifecycle/{id}", cfg.LifecycleHandler.Get)
	}

	// Liveness of the proxy itself; never touches the backend.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok","service":"hsg245-proxy"}`)
	})

	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, metrics.Handler())
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(cfg.Logger.Logger),
		middleware.Recover(cfg.Logger.Logger, cfg.DevMode),
		middleware.SecurityHeaders(cfg.Security),
		middleware.CORS(cfg.CORS),
	)
}
