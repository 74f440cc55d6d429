package storage

import (
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

// Setting keys as stored in the settings table.
const (
	KeyBudget    = "budget"
	KeyAskOffset = "ask_offset_cents"
	KeyBidOffset = "bid_offset_cents"

	hotkeyPrefix = "hotkey/"
)

// TradingDefaults seeds a SettingsStore when the database has no value yet.
type TradingDefaults struct {
	Budget         decimal.Decimal
	AskOffsetCents int
	BidOffsetCents int
}

// SettingsStore is the persisted implementation of domain.SettingsProvider.
// Values are cached in memory; writes go through to SQLite so they survive
// restarts, mirroring a settings dialog backed by the same table.
type SettingsStore struct {
	store *Storage

	mu             sync.RWMutex
	budget         decimal.Decimal
	askOffsetCents int
	bidOffsetCents int
	hotkeys        map[string]int
}

// NewSettingsStore loads persisted settings, falling back to defaults for
// any key not yet stored.
func NewSettingsStore(store *Storage, defaults TradingDefaults) (*SettingsStore, error) {
	s := &SettingsStore{
		store:          store,
		budget:         defaults.Budget,
		askOffsetCents: defaults.AskOffsetCents,
		bidOffsetCents: defaults.BidOffsetCents,
		hotkeys:        make(map[string]int),
	}

	saved, err := store.LoadSettingsMap()
	if err != nil {
		return nil, err
	}

	if v, ok := saved[KeyBudget]; ok {
		if d, err := decimal.NewFromString(v); err == nil {
			s.budget = d
		}
	}
	if v, ok := saved[KeyAskOffset]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.askOffsetCents = n
		}
	}
	if v, ok := saved[KeyBidOffset]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.bidOffsetCents = n
		}
	}
	for k, v := range saved {
		if len(k) > len(hotkeyPrefix) && k[:len(hotkeyPrefix)] == hotkeyPrefix {
			if n, err := strconv.Atoi(v); err == nil {
				s.hotkeys[k[len(hotkeyPrefix):]] = n
			}
		}
	}

	return s, nil
}

// Budget returns the trading budget.
func (s *SettingsStore) Budget() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget
}

// AskOffsetCents returns the buy-side price cushion in cents.
func (s *SettingsStore) AskOffsetCents() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.askOffsetCents
}

// BidOffsetCents returns the baseline sell chase offset in cents.
func (s *SettingsStore) BidOffsetCents() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bidOffsetCents
}

// SetBudget updates and persists the trading budget.
func (s *SettingsStore) SetBudget(budget decimal.Decimal) error {
	s.mu.Lock()
	s.budget = budget
	s.mu.Unlock()
	return s.store.SaveSetting(KeyBudget, budget.String())
}

// SetAskOffsetCents updates and persists the buy-side offset.
func (s *SettingsStore) SetAskOffsetCents(cents int) error {
	s.mu.Lock()
	s.askOffsetCents = cents
	s.mu.Unlock()
	return s.store.SaveSetting(KeyAskOffset, strconv.Itoa(cents))
}

// SetBidOffsetCents updates and persists the baseline sell offset.
func (s *SettingsStore) SetBidOffsetCents(cents int) error {
	s.mu.Lock()
	s.bidOffsetCents = cents
	s.mu.Unlock()
	return s.store.SaveSetting(KeyBidOffset, strconv.Itoa(cents))
}

// HotkeyPercent returns the percentage bound to a hotkey, 0 if unbound.
func (s *SettingsStore) HotkeyPercent(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hotkeys[key]
}

// SetHotkeyPercent binds a percentage to a hotkey and persists it.
func (s *SettingsStore) SetHotkeyPercent(key string, percent int) error {
	s.mu.Lock()
	s.hotkeys[key] = percent
	s.mu.Unlock()
	return s.store.SaveSetting(hotkeyPrefix+key, strconv.Itoa(percent))
}
