package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetyline/hsg245-stack/common/logging"
	"github.com/safetyline/hsg245-stack/common/middleware"
	"github.com/safetyline/hsg245-stack/proxy/internal/backend"
	"github.com/safetyline/hsg245-stack/proxy/internal/handlers"
	"github.com/safetyline/hsg245-stack/proxy/internal/lifecycle"
)

var testCORS = middleware.CORSConfig{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
	AllowedHeaders:   []string{"X-CSRF-Token", "Content-Type", "Authorization"},
	AllowCredentials: true,
}

func newTestRouter(t *testing.T, backendHandler http.HandlerFunc) http.Handler {
	t.Helper()
	srv := httptest.NewServer(backendHandler)
	t.Cleanup(srv.Close)

	logger := logging.Discard()
	store := lifecycle.NewMemoryStore(0)
	tracker := lifecycle.NewTracker(store, nil, logger)

	return NewRouter(RouterConfig{
		HSG245Handler:    handlers.NewHSG245Handler(backend.NewClient(srv.URL, time.Second), tracker, logger, false),
		LifecycleHandler: handlers.NewLifecycleHandler(store, logger),
		CORS:             testCORS,
		Logger:           logger,
		MetricsPath:      "/metrics",
	})
}

func okBackend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true,"data":{"incident_id":"INC-001"}}`))
}

func TestRouter_Options(t *testing.T) {
	router := newTestRouter(t, okBackend)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/hsg245", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, OPTIONS, PATCH, DELETE, POST, PUT", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, okBackend)

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/api/hsg245", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRouter_HeadIsNotAllowed(t *testing.T) {
	var hits atomic.Int32
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		okBackend(w, r)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/hsg245", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, hits.Load(), "HEAD must not reach the backend")
}

func TestRouter_PostThenLifecycle(t *testing.T) {
	router := newTestRouter(t, okBackend)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/hsg245",
		strings.NewReader(`{"action":"create_incident","data":{"reported_by":"Jane"}}`))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/hsg245/lifecycle/INC-001", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"created"`)
}

func TestRouter_HealthAndLiveness(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/hsg245", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"hsg245-proxy"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t, okBackend)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/hsg245", strings.NewReader(`{"action":"nope"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `hsg245_proxy_requests_total{action="invalid",status="400"}`)
}
