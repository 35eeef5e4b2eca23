package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"
	"failover_trader/internal/runner/router"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeStatus struct {
	st     []models.SessionStatus
	paused bool
}

func (f fakeStatus) Status() []models.SessionStatus { return f.st }
func (f fakeStatus) Summary() router.Summary        { return router.Summary{Open: 1, Halted: 0, RealizedPnL: 12.5} }
func (f fakeStatus) Paused() bool                   { return f.paused }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestEndpoints(t *testing.T) {
	state := NewState()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.Failovers.Inc()

	sp := fakeStatus{st: []models.SessionStatus{{
		Instrument: "RELIANCE", State: models.StateOpen,
		Position: &models.Position{Instrument: "RELIANCE", Direction: models.Long, EntryPrice: 2500, Quantity: 10},
	}}}
	h := NewEngine(state, sp, reg)

	if w := get(t, h, "/livez"); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("/livez %d %q", w.Code, w.Body.String())
	}
	if w := get(t, h, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before ready: %d", w.Code)
	}
	state.SetReady(true)
	if w := get(t, h, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("/readyz after ready: %d", w.Code)
	}

	state.SetFeedConnected(true)
	state.TouchBar(time.Unix(1709530200, 0))
	w := get(t, h, "/healthz")
	var health map[string]interface{}
	if err := sonic.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("/healthz body: %v", err)
	}
	if health["feedConnected"] != true || health["lastBarUnix"] != float64(1709530200) || health["openPositions"] != float64(1) {
		t.Fatalf("/healthz %v", health)
	}

	w = get(t, h, "/positions")
	var positions []models.SessionStatus
	if err := sonic.Unmarshal(w.Body.Bytes(), &positions); err != nil {
		t.Fatalf("/positions body: %v", err)
	}
	if len(positions) != 1 || positions[0].Position == nil || positions[0].Position.EntryPrice != 2500 {
		t.Fatalf("/positions %+v", positions)
	}

	w = get(t, h, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "failovers_total") {
		t.Fatalf("/metrics %d:\n%s", w.Code, w.Body.String())
	}
}
