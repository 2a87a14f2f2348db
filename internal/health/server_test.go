package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyResponse(t *testing.T, rec *httptest.ResponseRecorder) ReadyResponse {
	t.Helper()
	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// A server built without any registered checks must come up ready. This holds
// in particular when optional collaborators like the database are absent.
func TestReadyWithoutRegisteredChecks(t *testing.T) {
	s := NewServer(Config{ServiceName: "surebet-tool"})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := readyResponse(t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]string{"service": "ok"}, resp.Checks)
}

func TestReadyBeforeSetReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "surebet-tool"})

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", readyResponse(t, rec).Status)
}

func TestReadyRunsRegisteredChecks(t *testing.T) {
	s := NewServer(Config{ServiceName: "surebet-tool"})
	s.SetReady(true)
	s.RegisterCheck("database", func(ctx context.Context) error { return nil })
	s.RegisterCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := readyResponse(t, rec)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Contains(t, resp.Checks["redis"], "connection refused")
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(Config{ServiceName: "surebet-tool", Version: "1.2.3"})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}
