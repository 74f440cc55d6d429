package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"trader_go/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// GatewayModeSim runs against the in-memory simulated broker.
	GatewayModeSim = "sim"
	// GatewayModeWS connects to a brokerage bridge over websocket.
	GatewayModeWS = "ws"
)

// Config holds all application settings. Loaded once at startup; the
// persisted settings store may override the trading defaults afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Gateway struct {
		Mode    string `yaml:"mode"` // "sim" or "ws"
		WSURL   string `yaml:"ws_url"`
		Account string `yaml:"account"`
	} `yaml:"gateway"`

	Trading struct {
		Budget              decimal.Decimal `yaml:"budget"`
		AskOffsetCents      int             `yaml:"ask_offset_cents"`
		BidOffsetCents      int             `yaml:"bid_offset_cents"`
		MaxChaseOffsetCents int             `yaml:"max_chase_offset_cents"` // 0 = unbounded
		ChaseIntervalMS     int             `yaml:"chase_interval_ms"`
	} `yaml:"trading"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Gateway.Mode {
	case GatewayModeSim:
	case GatewayModeWS:
		if !strings.HasPrefix(c.Gateway.WSURL, "ws://") && !strings.HasPrefix(c.Gateway.WSURL, "wss://") {
			return &domain.ConfigError{Field: "gateway.ws_url",
				Err: fmt.Errorf("invalid websocket URL: %q", c.Gateway.WSURL)}
		}
	default:
		return &domain.ConfigError{Field: "gateway.mode",
			Err: fmt.Errorf("unknown mode: %q", c.Gateway.Mode)}
	}

	if c.Trading.Budget.IsNegative() {
		return &domain.ConfigError{Field: "trading.budget",
			Err: errors.New("must not be negative")}
	}
	if c.Trading.AskOffsetCents < 0 || c.Trading.BidOffsetCents < 0 {
		return &domain.ConfigError{Field: "trading.offsets",
			Err: errors.New("must not be negative")}
	}
	if c.Trading.MaxChaseOffsetCents < 0 {
		return &domain.ConfigError{Field: "trading.max_chase_offset_cents",
			Err: errors.New("must not be negative")}
	}
	if c.Trading.MaxChaseOffsetCents > 0 && c.Trading.MaxChaseOffsetCents < c.Trading.BidOffsetCents {
		return &domain.ConfigError{Field: "trading.max_chase_offset_cents",
			Err: errors.New("must not be below the baseline bid offset")}
	}
	if c.Trading.ChaseIntervalMS <= 0 {
		return &domain.ConfigError{Field: "trading.chase_interval_ms",
			Err: errors.New("must be positive")}
	}

	return nil
}

// overrideWithEnv replaces settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("TRADER_GATEWAY_WS_URL"); url != "" {
		cfg.Gateway.WSURL = url
	}
	if acct := os.Getenv("TRADER_GATEWAY_ACCOUNT"); acct != "" {
		cfg.Gateway.Account = acct
	}
	if addr := os.Getenv("TRADER_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
}
