package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetyline/hsg245-stack/common/middleware"
)

func TestClient_Do_PostsJSON(t *testing.T) {
	var gotMethod, gotPath, gotType, gotReqID string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	ctx := middleware.WithRequestID(context.Background(), "req-7")
	resp, err := c.Do(ctx, http.MethodPost, "/api/v1/incidents/create", map[string]string{"reported_by": "Jane"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/incidents/create", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "req-7", gotReqID)
	assert.Equal(t, "Jane", gotBody["reported_by"])

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.Equal(t, `{"success":true}`, string(resp.Body))
}

func TestClient_Do_GetHasNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Empty(t, b)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Incident not found"))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 0).Do(context.Background(), http.MethodGet, "/api/v1/incidents/x", nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "Incident not found", string(resp.Body))
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.Equal(t, srv.URL, c.BaseURL())
	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach backend")
}
