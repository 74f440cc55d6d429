package storage

import (
	"path/filepath"
	"testing"
	"time"

	"trader_go/internal/domain"

	"github.com/shopspring/decimal"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trader.db")
	s, err := NewStorage(path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return s
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SaveSetting("budget", "2500"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.SaveSetting("budget", "3000"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.SaveSetting("ask_offset_cents", "15"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	m, err := s.LoadSettingsMap()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if m["budget"] != "3000" {
		t.Errorf("expected upserted budget 3000, got %q", m["budget"])
	}
	if m["ask_offset_cents"] != "15" {
		t.Errorf("expected ask offset 15, got %q", m["ask_offset_cents"])
	}
}

func TestOrderRecordHistory(t *testing.T) {
	s := newTestStorage(t)

	base := time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)
	mk := func(id, symbol, side, status string, closedAt time.Time) *domain.OrderRecord {
		o := &domain.Order{
			ID:         id,
			Symbol:     symbol,
			Side:       side,
			Quantity:   50,
			LimitPrice: decimal.RequireFromString("10.10"),
			Status:     status,
			CreatedAt:  closedAt.Add(-time.Second),
			FilledAt:   closedAt,
		}
		return domain.NewOrderRecord(o)
	}

	for i, rec := range []*domain.OrderRecord{
		mk("o1", "AAPL", domain.SideBuy, domain.OrderStatusFilled, base),
		mk("o2", "AAPL", domain.SideSell, domain.OrderStatusFilled, base.Add(time.Minute)),
		mk("o3", "MSFT", domain.SideBuy, domain.OrderStatusCancelled, base.Add(2*time.Minute)),
	} {
		if err := s.SaveOrderRecord(rec); err != nil {
			t.Fatalf("save record %d failed: %v", i, err)
		}
	}

	all, err := s.RecentOrders("", 10)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].OrderID != "o3" {
		t.Errorf("expected most recent first, got %s", all[0].OrderID)
	}

	aapl, err := s.RecentOrders("AAPL", 10)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(aapl) != 2 {
		t.Errorf("expected 2 AAPL records, got %d", len(aapl))
	}

	limited, err := s.RecentOrders("", 1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d records", len(limited))
	}
}

func TestSettingsStoreDefaultsAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trader.db")
	s, err := NewStorage(path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	defaults := TradingDefaults{
		Budget:         decimal.NewFromInt(1000),
		AskOffsetCents: 10,
		BidOffsetCents: 10,
	}

	settings, err := NewSettingsStore(s, defaults)
	if err != nil {
		t.Fatalf("failed to build settings store: %v", err)
	}
	if !settings.Budget().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected default budget 1000, got %s", settings.Budget())
	}
	if settings.AskOffsetCents() != 10 || settings.BidOffsetCents() != 10 {
		t.Errorf("expected default offsets 10/10, got %d/%d",
			settings.AskOffsetCents(), settings.BidOffsetCents())
	}

	if err := settings.SetBudget(decimal.NewFromInt(2500)); err != nil {
		t.Fatalf("set budget failed: %v", err)
	}
	if err := settings.SetBidOffsetCents(5); err != nil {
		t.Fatalf("set bid offset failed: %v", err)
	}
	if err := settings.SetHotkeyPercent("F1", 25); err != nil {
		t.Fatalf("set hotkey failed: %v", err)
	}

	// A second store over the same database sees the persisted values.
	reloaded, err := NewSettingsStore(s, defaults)
	if err != nil {
		t.Fatalf("failed to reload settings store: %v", err)
	}
	if !reloaded.Budget().Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected persisted budget 2500, got %s", reloaded.Budget())
	}
	if reloaded.BidOffsetCents() != 5 {
		t.Errorf("expected persisted bid offset 5, got %d", reloaded.BidOffsetCents())
	}
	if reloaded.AskOffsetCents() != 10 {
		t.Errorf("ask offset should keep default, got %d", reloaded.AskOffsetCents())
	}
	if reloaded.HotkeyPercent("F1") != 25 {
		t.Errorf("expected persisted hotkey F1=25, got %d", reloaded.HotkeyPercent("F1"))
	}
	if reloaded.HotkeyPercent("F9") != 0 {
		t.Errorf("unbound hotkey should return 0, got %d", reloaded.HotkeyPercent("F9"))
	}
}
