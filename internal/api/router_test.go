package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-dispatch/internal/api/models"
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/metrics"
	"microgrid-dispatch/internal/profile"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/store"
)

const (
	baselineCost = 522.232
	smartCost    = 483.154
)

func newTestRouter(t *testing.T, opts ...sim.Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Load("../../examples/config.yaml")
	require.NoError(t, err)
	results := store.New(time.Hour, time.Hour)
	t.Cleanup(results.Close)
	return NewRouter(Deps{Engine: sim.New(nil, opts...), Results: results, Config: cfg})
}

func eveningHeavySamples(t *testing.T) *profile.Samples {
	t.Helper()
	s, err := profile.LoadSamplesJSON("../../examples/samples/evening-heavy.json")
	require.NoError(t, err)
	return s
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func simulate(t *testing.T, r http.Handler) models.SimulationResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/simulate", map[string]any{
		"battery_preset": "home-10kwh",
		"samples":        eveningHeavySamples(t),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.SimulationResponse](t, w)
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSimulate_EveningHeavy(t *testing.T) {
	r := newTestRouter(t)
	resp := simulate(t, r)

	assert.NotEmpty(t, resp.ID)
	assert.InDelta(t, baselineCost, resp.Baseline.Cost, 0.01)
	assert.InDelta(t, smartCost, resp.Smart.Cost, 0.01)
	assert.InDelta(t, baselineCost-smartCost, resp.Delta.Cost, 0.01)
	assert.InDelta(t, resp.Delta.Cost, resp.Summary.CostSavings, 1e-9)
	assert.InDelta(t, 7.4, resp.Baseline.DieselKwh, 1e-6)
	assert.Greater(t, resp.Smart.GridToBattKwh, 0.0)
	assert.Nil(t, resp.Hourly)

	// identical request is served from the store
	again := simulate(t, r)
	assert.Equal(t, resp.ID, again.ID)

	w := do(t, r, http.MethodGet, "/api/v1/simulations/"+resp.ID+"?include_hourly=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.SimulationResponse](t, w)
	assert.Equal(t, resp.ID, got.ID)
	require.NotNil(t, got.Hourly)
	assert.Len(t, got.Hourly.Baseline, 24)
	assert.Len(t, got.Hourly.Smart, 24)
}

func TestSimulate_RequestOverridesServerConfig(t *testing.T) {
	r := newTestRouter(t)
	base := simulate(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/simulate", map[string]any{
		"battery_preset": "home-10kwh",
		"samples":        eveningHeavySamples(t),
		"grid":           map[string]any{"diesel_price": 30},
		"options":        map[string]any{"include_hourly": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	assert.NotEqual(t, base.ID, resp.ID)
	// 7.4 kWh of baseline diesel at 5 more per kWh
	assert.InDelta(t, baselineCost+37, resp.Baseline.Cost, 0.01)
	require.NotNil(t, resp.Hourly)
	assert.Len(t, resp.Hourly.Smart, 24)
}

func TestSimulate_Errors(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed json", `{"grid":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"negative grid limit", map[string]any{"grid": map[string]any{"limit_kw": -1}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"unknown weather", map[string]any{"profile": map[string]any{"weather": "foggy"}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"bad peak window", map[string]any{"tariff": map[string]any{"peak_windows": []string{"25:00-26:00"}}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"bad battery", map[string]any{"battery": map[string]any{"round_trip_efficiency": 1.5}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"short samples", map[string]any{"samples": map[string]any{"hours": []any{map[string]any{"solar_kw": 1, "load_kw": 1}}}}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"unknown preset", map[string]any{"battery_preset": "flux-capacitor"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/simulate", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestGetSimulation_NotFound(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{
		"/api/v1/simulations/nope",
		"/api/v1/simulations/nope/hourly",
		"/api/v1/simulations/nope/live/3",
		"/api/v1/simulations/nope/stream",
	} {
		w := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
	}
}

func TestGetTrace(t *testing.T) {
	r := newTestRouter(t)
	id := simulate(t, r).ID

	w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/hourly?mode=baseline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trace := decode[models.TraceResponse](t, w)
	assert.Equal(t, "baseline", trace.Mode)
	assert.Len(t, trace.Hours, 24)
	assert.InDelta(t, baselineCost, trace.Totals.Cost, 0.01)

	w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/hourly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "smart", decode[models.TraceResponse](t, w).Mode)

	w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/hourly?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 25)
	assert.True(t, strings.HasPrefix(lines[0], "hour,tariff,is_peak"))

	w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/hourly?mode=oracle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_MODE", decode[models.ErrorResponse](t, w).Error.Code)

	w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/hourly?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestGetLive(t *testing.T) {
	r := newTestRouter(t)
	id := simulate(t, r).ID

	w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/live/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	live := decode[models.LiveResponse](t, w)
	assert.Equal(t, "smart", live.Mode)
	assert.Equal(t, 0, live.Hour.Hour)
	// smart pre-charges at full rate in the first off-peak hour
	assert.InDelta(t, 3, live.Hour.GridToBattKw, 1e-9)

	w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/live/0?mode=baseline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode[models.LiveResponse](t, w).Hour.GridToBattKw)

	for _, hour := range []string{"24", "-1", "noon"} {
		w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/live/"+hour, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, hour)
		assert.Equal(t, "INVALID_HOUR", decode[models.ErrorResponse](t, w).Error.Code)
	}
}

func TestCatalog(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/batteries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	batteries := decode[struct {
		Batteries []models.BatteryInfo `json:"batteries"`
	}](t, w).Batteries
	ids := make([]string, len(batteries))
	for i, b := range batteries {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"home-10kwh", "home-5kwh", "lead-acid-8kwh", "powerwall-13kwh"}, ids)

	w = do(t, r, http.MethodGet, "/api/v1/policies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pc := decode[models.PolicyCatalog](t, w)
	require.Len(t, pc.Policies, 2)
	assert.Equal(t, "baseline", pc.Policies[0].Name)
	assert.Equal(t, "smart", pc.Policies[1].Name)
	assert.Len(t, pc.Policies[1].Parameters, 5)
	assert.InDelta(t, 8, pc.Tariff.BasePrice, 1e-12)
	assert.InDelta(t, 1.5, pc.Tariff.PeakFactor, 1e-12)
	assert.InDelta(t, 12, pc.Tariff.PeakPrice, 1e-12)
	assert.Equal(t, []int{18, 19, 20, 21}, pc.Tariff.PeakHours)

	w = do(t, r, http.MethodGet, "/api/v1/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	catalog := decode[models.ProfileCatalog](t, w)
	assert.Len(t, catalog.Weathers, 4)
	assert.Contains(t, catalog.LoadProfiles, "evening_heavy")
}

func TestRankPresets(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/rank", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ranked := decode[models.RankResponse](t, w).Ranked
	require.Len(t, ranked, 4)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].CostSavings, ranked[i].CostSavings)
	}

	w = do(t, r, http.MethodGet, "/api/v1/rank?limit=2&weather=cloudy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.RankResponse](t, w).Ranked, 2)

	w = do(t, r, http.MethodGet, "/api/v1/rank?weather=foggy", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRoute(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSink(reg)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	cfg, err := config.Load("../../examples/config.yaml")
	require.NoError(t, err)
	results := store.New(time.Hour, time.Hour)
	t.Cleanup(results.Close)
	r := NewRouter(Deps{
		Engine:  sim.New(nil, sim.WithMetrics(sink)),
		Results: results,
		Config:  cfg,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	simulate(t, r)

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `microgrid_day_simulations_total{policy="smart"} 1`)
	assert.Contains(t, w.Body.String(), "microgrid_comparison_cost_savings")
}

func dialStream(t *testing.T, srv *httptest.Server, id, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/simulations/" + id + "/stream?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntilDone collects hour messages until the done message arrives.
func readUntilDone(t *testing.T, conn *websocket.Conn) ([]models.StreamMessage, models.StreamMessage) {
	t.Helper()
	var hours []models.StreamMessage
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg models.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "hour":
			hours = append(hours, msg)
		case "done":
			return hours, msg
		default:
			t.Fatalf("unexpected message %+v", msg)
		}
	}
}

func TestStream(t *testing.T) {
	r := newTestRouter(t)
	id := simulate(t, r).ID
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialStream(t, srv, id, "interval_ms=1")
	hours, done := readUntilDone(t, conn)

	require.Len(t, hours, 24)
	for i, msg := range hours {
		require.NotNil(t, msg.Hour)
		assert.Equal(t, i, msg.Hour.Hour)
		assert.Equal(t, "smart", msg.Mode)
	}
	require.NotNil(t, done.Totals)
	assert.InDelta(t, smartCost, done.Totals.Cost, 0.01)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}

func TestStream_SetMode(t *testing.T) {
	r := newTestRouter(t)
	id := simulate(t, r).ID
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialStream(t, srv, id, "interval_ms=20")
	require.NoError(t, conn.WriteJSON(models.StreamCommand{Type: "set_mode", Mode: "baseline"}))
	_, done := readUntilDone(t, conn)

	assert.Equal(t, "baseline", done.Mode)
	require.NotNil(t, done.Totals)
	assert.InDelta(t, baselineCost, done.Totals.Cost, 0.01)
}

func TestStream_InvalidCommand(t *testing.T) {
	r := newTestRouter(t)
	id := simulate(t, r).ID
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialStream(t, srv, id, "interval_ms=1000")
	require.NoError(t, conn.WriteJSON(models.StreamCommand{Type: "set_mode", Mode: "oracle"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg models.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Error, "oracle")
}
