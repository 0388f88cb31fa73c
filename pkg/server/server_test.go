package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/config"
	"github.com/soundprediction/cliodyn/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	engine := cliodyn.NewClient(store.NewMemoryStore(), nil, nil)
	s := New(cfg, engine)
	s.Setup()
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/live", "/health/detailed"} {
		w := doRequest(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}
}

func TestRequestIDStamping(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"), "generated when absent")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"), "caller's id is echoed")
}

func TestEventRoutes(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/chronology/events", `{
		"name": "Fall of Jerusalem",
		"description": "Babylonian siege",
		"year_start": -586,
		"era": "exile",
		"event_type": "military"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeResult(t, w)
	data := created["data"].(map[string]any)
	id := data["id"].(string)
	require.NotEmpty(t, id)

	t.Run("invalid era is a 400", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPost, "/api/v1/chronology/events", `{
			"name": "Bad Era",
			"year_start": -500,
			"era": "bronze_age",
			"event_type": "military"
		}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeResult(t, w)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("missing body field is a 400", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPost, "/api/v1/chronology/events", `{"year_start": -500}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lookup round trip", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/chronology/events/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, s, http.MethodGet, "/api/v1/chronology/events/missing-id", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decodeResult(t, w)
		assert.Equal(t, "not_found", body["error"])
	})

	t.Run("range query", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/chronology/range?start_year=-600&end_year=-550", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResult(t, w)
		assert.Len(t, body["data"].([]any), 1)

		w = doRequest(t, s, http.MethodGet, "/api/v1/chronology/range?start_year=-600", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("distance requires both endpoints", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/chronology/distance?from="+id, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/chronology/summary", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResult(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(1), data["total_events"])
	})
}

func TestPatternRoutes(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/patterns/seed", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeResult(t, w)
	assert.Equal(t, float64(6), body["data"].(map[string]any)["created"])

	w = doRequest(t, s, http.MethodGet, "/api/v1/patterns", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeResult(t, w)
	patterns := body["data"].([]any)
	require.Len(t, patterns, 6)
	patternID := patterns[0].(map[string]any)["id"].(string)

	t.Run("recurrence of unlinked pattern", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/patterns/"+patternID+"/recurrence", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResult(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(0), data["total_instances"])
	})

	t.Run("link strength out of range", func(t *testing.T) {
		eventResp := doRequest(t, s, http.MethodPost, "/api/v1/chronology/events", `{
			"name": "Linked Event",
			"year_start": -722,
			"era": "divided_kingdom",
			"event_type": "military"
		}`)
		require.Equal(t, http.StatusCreated, eventResp.Code)
		eventID := decodeResult(t, eventResp)["data"].(map[string]any)["id"].(string)

		w := doRequest(t, s, http.MethodPost, "/api/v1/patterns/link",
			`{"event_id": "`+eventID+`", "pattern_id": "`+patternID+`", "strength": 11}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(t, s, http.MethodPost, "/api/v1/patterns/link",
			`{"event_id": "`+eventID+`", "pattern_id": "`+patternID+`", "strength": 7}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestSimulationRoutes(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/simulation/indicators", `{
		"name": "Moral Relativism",
		"category": "social",
		"value": 8.5
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("assessment", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/simulation/indicators/assessment", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResult(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(1), data["total_indicators"])
	})

	t.Run("risk over empty pattern set", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/simulation/risk", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResult(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, "low", data["risk_level"])
	})

	t.Run("match of missing pattern", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/api/v1/simulation/match/missing-pattern", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("analogs validation", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPost, "/api/v1/simulation/analogs", `{"keywords": ["", "  "]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(t, s, http.MethodPost, "/api/v1/simulation/analogs", `{"keywords": ["exile"]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("suggest without assist is a 503", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPost, "/api/v1/simulation/suggest/any-event", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeResult(t, w)
		assert.Equal(t, "assist_disabled", body["error"])
	})
}

func TestForecastRoutes(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/v1/forecast/records", `{
		"reference": "Jeremiah 25:11",
		"text": "Seventy years of servitude"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recordID := decodeResult(t, w)["data"].(map[string]any)["id"].(string)

	eventResp := doRequest(t, s, http.MethodPost, "/api/v1/chronology/events", `{
		"name": "Return from Exile",
		"year_start": -538,
		"era": "post_exile",
		"event_type": "political"
	}`)
	require.Equal(t, http.StatusCreated, eventResp.Code)
	eventID := decodeResult(t, eventResp)["data"].(map[string]any)["id"].(string)

	t.Run("unrecognized fulfillment tag", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPost, "/api/v1/forecast/records/"+recordID+"/fulfillments",
			`{"event_id": "`+eventID+`", "fulfillment_type": "fulfilled"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fulfillment round trip and rollup", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPost, "/api/v1/forecast/records/"+recordID+"/fulfillments",
			`{"event_id": "`+eventID+`", "fulfillment_type": "complete", "explanation": "Decree of Cyrus"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = doRequest(t, s, http.MethodGet, "/api/v1/forecast/records/"+recordID+"/fulfillments", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResult(t, w)
		assert.Len(t, body["data"].([]any), 1)

		w = doRequest(t, s, http.MethodGet, "/api/v1/forecast/rollup", "")
		require.Equal(t, http.StatusOK, w.Code)
		body = decodeResult(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(1), data["complete"])
	})
}
