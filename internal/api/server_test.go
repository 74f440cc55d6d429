package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trader_go/internal/engine"
	"trader_go/internal/gateway/sim"
	"trader_go/internal/infra"

	"github.com/shopspring/decimal"
)

type stubSettings struct{}

func (s *stubSettings) Budget() decimal.Decimal { return decimal.NewFromInt(1000) }
func (s *stubSettings) AskOffsetCents() int     { return 10 }
func (s *stubSettings) BidOffsetCents() int     { return 10 }

func newTestServer(t *testing.T) (*Server, *engine.Engine, *sim.Gateway) {
	t.Helper()
	metrics := &infra.Metrics{}
	eng := engine.NewEngine(engine.Config{
		Settings: &stubSettings{},
		Metrics:  metrics,
	})
	gw := sim.NewGateway(eng.Inbox())
	eng.AttachGateway(gw)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)
	if err := gw.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	waitFor(t, "gateway connected", eng.IsConnected)

	return NewServer(eng, metrics), eng, gw
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rr.Body.String(), err)
	}
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCommandValidation(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"open valid", "/api/v1/commands/open", `{"percentage": 50}`, http.StatusAccepted},
		{"open zero", "/api/v1/commands/open", `{"percentage": 0}`, http.StatusBadRequest},
		{"open over 100", "/api/v1/commands/open", `{"percentage": 101}`, http.StatusBadRequest},
		{"open negative", "/api/v1/commands/open", `{"percentage": -5}`, http.StatusBadRequest},
		{"open bad json", "/api/v1/commands/open", `{"percentage": `, http.StatusBadRequest},
		{"add valid", "/api/v1/commands/add", `{"percentage": 25}`, http.StatusAccepted},
		{"close valid", "/api/v1/commands/close", `{"percentage": 100}`, http.StatusAccepted},
		{"cancel-all", "/api/v1/commands/cancel-all", ``, http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, "POST", tt.path, tt.body)
			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d (%s)", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSymbolEndpoint(t *testing.T) {
	s, eng, _ := newTestServer(t)

	rr := do(t, s, "PUT", "/api/v1/symbol", `{"symbol": ""}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty symbol should be rejected, got %d", rr.Code)
	}

	rr = do(t, s, "PUT", "/api/v1/symbol", `{"symbol": "AAPL"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	waitFor(t, "symbol switch", func() bool { return eng.Symbol() == "AAPL" })

	rr = do(t, s, "GET", "/api/v1/symbol", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["symbol"] != "AAPL" {
		t.Errorf("expected AAPL, got %v", body["symbol"])
	}
}

func TestOpenCommandReachesGateway(t *testing.T) {
	s, eng, gw := newTestServer(t)

	do(t, s, "PUT", "/api/v1/symbol", `{"symbol": "AAPL"}`)
	waitFor(t, "symbol switch", func() bool { return eng.Symbol() == "AAPL" })

	gw.PublishTick("AAPL", decimal.RequireFromString("10.00"),
		decimal.RequireFromString("9.99"), decimal.RequireFromString("10.00"))
	waitFor(t, "first quote", func() bool { return eng.Quote().HasLast() })

	rr := do(t, s, "POST", "/api/v1/commands/open", `{"percentage": 50}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	waitFor(t, "order placed", func() bool { return gw.RestingCount() == 1 })

	rr = do(t, s, "GET", "/api/v1/orders", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var orders []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &orders); err != nil {
		t.Fatalf("invalid orders response: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr := do(t, s, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("expected ok status, got %v", body["status"])
	}
	if body["gateway_connected"] != true {
		t.Errorf("expected gateway_connected true, got %v", body["gateway_connected"])
	}

	rr = do(t, s, "GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, ok := decodeBody(t, rr)["events_processed"]; !ok {
		t.Error("metrics snapshot missing events_processed")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr := do(t, s, "GET", "/api/v1/commands/open", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
