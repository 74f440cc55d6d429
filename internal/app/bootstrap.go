package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trader_go/internal/api"
	"trader_go/internal/domain"
	"trader_go/internal/engine"
	"trader_go/internal/event"
	"trader_go/internal/gateway/sim"
	"trader_go/internal/gateway/ws"
	"trader_go/internal/infra"
	"trader_go/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Storage  *storage.Storage
	Settings *storage.SettingsStore
	Metrics  *infra.Metrics
	Engine   *engine.Engine
	Gateway  domain.GatewayWorker
	Server   *api.Server
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize wires config, logging, storage, gateway and the engine.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("Bootstrapping trader",
		slog.String("name", cfg.App.Name), slog.String("version", cfg.App.Version))

	dbPath, err := storage.DefaultDBPath()
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("Database initialized", slog.String("path", dbPath))

	settings, err := storage.NewSettingsStore(store, storage.TradingDefaults{
		Budget:         cfg.Trading.Budget,
		AskOffsetCents: cfg.Trading.AskOffsetCents,
		BidOffsetCents: cfg.Trading.BidOffsetCents,
	})
	if err != nil {
		return err
	}
	b.Settings = settings

	b.Metrics = &infra.Metrics{}

	event.Warmup()

	engineCfg := engine.Config{
		Settings:            settings,
		Metrics:             b.Metrics,
		History:             store,
		ChaseInterval:       time.Duration(cfg.Trading.ChaseIntervalMS) * time.Millisecond,
		MaxChaseOffsetCents: cfg.Trading.MaxChaseOffsetCents,
	}

	// The gateway delivers into the engine inbox, so the engine is built
	// first and the gateway attached before Run.
	eng := engine.NewEngine(engineCfg)

	switch cfg.Gateway.Mode {
	case infra.GatewayModeWS:
		b.Gateway = ws.NewClient(cfg.Gateway.WSURL, cfg.Gateway.Account, eng.Inbox())
	default:
		b.Gateway = sim.NewGateway(eng.Inbox())
	}
	eng.AttachGateway(b.Gateway)
	b.Engine = eng

	b.Server = api.NewServer(eng, b.Metrics)
	return nil
}

// Run starts the gateway, engine loop and remote-control server, blocking
// until the context is cancelled.
func (b *Bootstrap) Run(ctx context.Context) error {
	if err := b.Gateway.Connect(ctx); err != nil {
		return err
	}
	defer b.Gateway.Disconnect()

	go b.Engine.Run(ctx)

	addr := b.Config.Server.ListenAddr
	if addr == "" {
		return waitForDone(ctx)
	}

	slog.Info("Remote control listening", slog.String("addr", addr))
	return b.Server.Start(ctx, addr)
}

func waitForDone(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
