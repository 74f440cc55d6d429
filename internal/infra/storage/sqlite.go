package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"trader_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage wraps the SQLite database holding persisted settings and the
// order audit history.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at path.
func NewStorage(path string) (*Storage, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Pure Go SQLite driver
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SettingEntry{}, &domain.OrderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// DefaultDBPath resolves the database file path based on OS conventions.
func DefaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "TraderGo", "data", "trader.db"), nil
}

// ======================================================================================
// Setting Operations
// ======================================================================================

// SaveSetting upserts one key/value setting.
func (s *Storage) SaveSetting(key, value string) error {
	entry := domain.SettingEntry{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&entry).Error
}

// LoadSettingsMap loads all persisted settings as a map.
func (s *Storage) LoadSettingsMap() (map[string]string, error) {
	var entries []domain.SettingEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, e := range entries {
		result[e.Key] = e.Value
	}
	return result, nil
}

// ======================================================================================
// Order History Operations
// ======================================================================================

// SaveOrderRecord upserts a terminal order snapshot.
func (s *Storage) SaveOrderRecord(rec *domain.OrderRecord) error {
	return s.db.Save(rec).Error
}

// RecentOrders returns up to limit most recent terminal orders for a symbol.
// An empty symbol returns history across all symbols.
func (s *Storage) RecentOrders(symbol string, limit int) ([]domain.OrderRecord, error) {
	var records []domain.OrderRecord
	q := s.db.Order("closed_at DESC").Limit(limit)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	err := q.Find(&records).Error
	return records, err
}
