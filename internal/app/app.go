package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"axesim/internal/catalog"
	"axesim/internal/config"
	"axesim/internal/database"
	"axesim/internal/server"
	"axesim/internal/sim"
)

const (
	httpReadTimeout = 10 * time.Second
	httpIdleTimeout = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

// App owns the fleet, the HTTP surface and the optional history recorder.
type App struct {
	cfg        config.AppConfig
	log        *slog.Logger
	fleet      *sim.MinerFleet
	publisher  *server.PublishManager
	recorder   *HistoryRecorder
	httpServer *http.Server
}

// New builds an App with the startup fleet created and all dependencies
// wired. store may be nil when telemetry history is disabled.
func New(cfg config.AppConfig, store *database.Store, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fleet := sim.NewFleet(cfg.Fleet.TickHz, logger)

	scenario := catalog.Scenario(cfg.Fleet.Scenario)
	modelIDs := cfg.ModelIDs(cfg.Fleet.Count)
	miners := make([]*sim.VirtualMiner, 0, len(modelIDs))
	for i, modelID := range modelIDs {
		minerID := fmt.Sprintf("m_%03d", i+1)
		miner := sim.New(minerID, catalog.Model(modelID), scenario,
			sim.WithWarmup(cfg.Fleet.WarmupS),
			sim.WithConfigRamp(cfg.Fleet.ConfigRampS))
		miners = append(miners, miner)
		fleet.Add(miner)
	}

	var publisher *server.PublishManager
	if cfg.Publish.Enabled {
		apiPort, err := addrPort(cfg.HTTP.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse http addr: %w", err)
		}
		publisher = server.NewPublishManager(cfg.Publish.Host, apiPort, cfg.Publish.StartPort, cfg.Publish.Ports, logger)
		for _, miner := range miners {
			if _, err := publisher.Publish(miner); err != nil {
				publisher.Close()
				return nil, fmt.Errorf("publish miner %s: %w", miner.ID(), err)
			}
		}
	}

	srvOpts := server.Options{
		Store:             store,
		DefaultModelID:    cfg.Fleet.Model,
		DefaultScenarioID: cfg.Fleet.Scenario,
		TickHz:            cfg.Fleet.TickHz,
		WarmupS:           cfg.Fleet.WarmupS,
		ConfigRampS:       cfg.Fleet.ConfigRampS,
		CompatAPI:         cfg.CompatEnabled(),
	}
	if publisher != nil {
		srvOpts.Publisher = publisher
	}

	srv, err := server.New(fleet, srvOpts, logger)
	if err != nil {
		return nil, err
	}

	var recorder *HistoryRecorder
	if store != nil {
		interval := time.Duration(cfg.History.IntervalSeconds) * time.Second
		recorder = NewHistoryRecorder(store, fleet, interval, logger)
	}

	// No WriteTimeout: the SSE telemetry stream holds its response open.
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: httpReadTimeout,
		IdleTimeout:       httpIdleTimeout,
	}

	return &App{
		cfg:        cfg,
		log:        logger.With("component", "app"),
		fleet:      fleet,
		publisher:  publisher,
		recorder:   recorder,
		httpServer: httpServer,
	}, nil
}

// Run starts the services and blocks until the context is cancelled or a
// service fails.
func (a *App) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.fleet.Start()

	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	if a.recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.log.Info("service started", "service", "history_recorder")
			a.recorder.Run(ctx)
			a.log.Info("service stopped", "service", "history_recorder")
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.log.Info("http listening", "addr", a.cfg.HTTP.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error("http shutdown failed", "err", err)
	}

	if a.publisher != nil {
		a.publisher.Close()
	}
	a.fleet.Stop()

	cancel()
	wg.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func addrPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("port %q: %w", portStr, err)
	}
	return port, nil
}
