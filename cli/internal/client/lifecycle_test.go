package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hsg245/lifecycle", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeData(w, []map[string]any{{"incident_id": "INC-1", "stage": "assessed", "exports": 2}})
	}))
	defer srv.Close()

	items, err := NewIncidentClient(srv.URL+"/api/hsg245").ListLifecycle(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "assessed", items[0].Stage)
	assert.Equal(t, 2, items[0].Exports)
}

func TestLifecycle_NotTracked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hsg245/lifecycle/INC-404", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Incident not tracked: INC-404"}`))
	}))
	defer srv.Close()

	_, err := NewIncidentClient(srv.URL+"/api/hsg245").Lifecycle(context.Background(), "INC-404")
	var rerr *RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusNotFound, rerr.StatusCode)
	assert.Equal(t, "Incident not tracked: INC-404", rerr.Message)
}

func TestLifecycle_DirectModeUnsupported(t *testing.T) {
	c := NewIncidentClient("http://backend", WithMode(ModeDirect))
	_, err := c.ListLifecycle(context.Background(), 0)
	assert.ErrorIs(t, err, ErrProxyOnly)
	_, err = c.Lifecycle(context.Background(), "INC-1")
	assert.ErrorIs(t, err, ErrProxyOnly)
}
