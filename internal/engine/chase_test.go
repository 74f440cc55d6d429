package engine

import (
	"testing"
	"time"

	"trader_go/internal/event"
)

func TestBuyChase_RepricesWhenAskRunsAway(t *testing.T) {
	h := newTestHarness(t)
	h.setSymbol("AAPL")
	h.tick("AAPL", "10.00", "9.99", "10.00")

	h.command(event.CmdOpenPosition, 50) // Buy 50 @ 10.10
	workingID := h.gateway.lastPlaced(t).ID

	h.tick("AAPL", "10.15", "10.14", "10.15") // ask above 10.10

	if len(h.gateway.cancelled) != 1 || h.gateway.cancelled[0] != workingID {
		t.Fatalf("the outrun buy must be cancelled, cancelled=%v", h.gateway.cancelled)
	}
	req := h.gateway.lastPlaced(t)
	if req.Quantity != 50 {
		t.Errorf("chase keeps the quantity: expected 50, got %d", req.Quantity)
	}
	if !req.LimitPrice.Equal(d("10.25")) { // new ask 10.15 + 10c
		t.Errorf("expected re-pegged limit 10.25, got %s", req.LimitPrice)
	}
}

func TestBuyChase_NoActionWhenAskWithinLimit(t *testing.T) {
	h := newTestHarness(t)
	h.setSymbol("AAPL")
	h.tick("AAPL", "10.00", "9.99", "10.00")

	h.command(event.CmdOpenPosition, 50) // Buy 50 @ 10.10
	placed := len(h.gateway.placed)

	h.tick("AAPL", "10.05", "10.04", "10.05") // still below the limit
	h.tick("AAPL", "9.90", "9.89", "9.90")    // falling ask is favorable

	if len(h.gateway.placed) != placed || len(h.gateway.cancelled) != 0 {
		t.Error("a buy never chases downward or within its limit")
	}
}

func TestSellChase_DoublesOffsetEachCheck(t *testing.T) {
	h := newTestHarness(t)
	h.setSymbol("AAPL")
	h.tick("AAPL", "10.00", "9.99", "10.00")
	h.fillPosition(t, 100, "10.00")

	h.command(event.CmdClosePosition, 100) // Sell 100 @ 9.89, offset 10c
	placedBefore := len(h.gateway.placed)

	// Three checks with the bid pinned below the working limit each time:
	// baseline 10 -> 20 -> 40 -> 80 cents, one replace per check.
	steps := []struct {
		bid        string
		wantOffset int
		wantLimit  string
	}{
		{"9.80", 20, "9.60"}, // 9.80 - 0.20
		{"9.50", 40, "9.10"}, // 9.50 - 0.40
		{"9.00", 80, "8.20"}, // 9.00 - 0.80
	}

	for i, step := range steps {
		h.tick("AAPL", step.bid, step.bid, step.bid)
		h.chaseCheck()

		if h.engine.ChaseOffsetCents() != step.wantOffset {
			t.Fatalf("check %d: expected offset %d, got %d",
				i+1, step.wantOffset, h.engine.ChaseOffsetCents())
		}
		if got := len(h.gateway.placed) - placedBefore; got != i+1 {
			t.Fatalf("check %d: expected %d replaces, got %d", i+1, i+1, got)
		}
		req := h.gateway.lastPlaced(t)
		if !req.LimitPrice.Equal(d(step.wantLimit)) {
			t.Errorf("check %d: expected limit %s, got %s", i+1, step.wantLimit, req.LimitPrice)
		}
		if req.Quantity != 100 {
			t.Errorf("check %d: chase keeps the quantity, got %d", i+1, req.Quantity)
		}
	}
}

func TestSellChase_NoActionWhileBidAtOrAboveLimit(t *testing.T) {
	h := newTestHarness(t)
	h.setSymbol("AAPL")
	h.tick("AAPL", "10.00", "9.99", "10.00")
	h.fillPosition(t, 100, "10.00")

	h.command(event.CmdClosePosition, 100) // Sell @ 9.89
	placed := len(h.gateway.placed)

	h.chaseCheck() // bid 9.99 >= 9.89

	if len(h.gateway.placed) != placed {
		t.Error("no replace while the bid holds above the working limit")
	}
	if h.engine.ChaseOffsetCents() != 10 {
		t.Errorf("offset must stay at baseline, got %d", h.engine.ChaseOffsetCents())
	}
}

func TestSellChase_NoActionWithoutWorkingSell(t *testing.T) {
	h := newTestHarness(t)
	h.setSymbol("AAPL")
	h.tick("AAPL", "10.00", "9.99", "10.00")

	h.chaseCheck()

	if len(h.gateway.placed) != 0 || len(h.gateway.cancelled) != 0 {
		t.Error("chase check with no working sell is a no-op")
	}
}

func TestSellChase_CeilingCapsEscalation(t *testing.T) {
	gw := &fakeGateway{connected: true}
	settings := &stubSettings{budget: d("1000"), askOffset: 10, bidOffset: 10}
	eng := NewEngine(Config{
		Gateway:             gw,
		Settings:            settings,
		MaxChaseOffsetCents: 40,
		Now:                 func() time.Time { return testNow },
	})
	h := &testHarness{engine: eng, gateway: gw, settings: settings, rec: &recorder{}}
	eng.RegisterListener(h.rec)

	h.setSymbol("AAPL")
	h.tick("AAPL", "10.00", "9.99", "10.00")
	h.fillPosition(t, 100, "10.00")
	h.command(event.CmdClosePosition, 100)

	for _, bid := range []string{"9.50", "9.00", "8.50", "8.00"} {
		h.tick("AAPL", bid, bid, bid)
		h.chaseCheck()
	}

	if h.engine.ChaseOffsetCents() != 40 {
		t.Errorf("offset must cap at 40, got %d", h.engine.ChaseOffsetCents())
	}
}
