package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"axesim/internal/app"
	"axesim/internal/config"
	"axesim/internal/database"
	"axesim/internal/sim"

	_ "modernc.org/sqlite"
)

func main() {
	// A local .env can override deployment settings without editing flags.
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("AXESIM_CONFIG", "config.json"), "Path to JSON config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	count := flag.Int("count", 0, "How many miners to create at startup")
	model := flag.String("model", "", "Model preset id (used when -models is not set)")
	models := flag.String("models", "", "Comma-separated model preset ids to cycle across miners")
	scenario := flag.String("scenario", "", "Scenario preset id")
	tickHz := flag.Float64("tick-hz", 0, "Fleet tick rate")
	warmupS := flag.Float64("warmup-s", -1, "Seconds to ramp from 0 to full hashrate after boot")
	configRampS := flag.Float64("config-ramp-s", -1, "Seconds to ramp after frequency changes")
	seed := flag.Int64("seed", 0, "Deterministic RNG seed (0 keeps the default)")
	publishMiners := flag.Bool("publish-miners", false, "Publish each miner's device API on a dedicated port")
	publishStartPort := flag.Int("publish-start-port", 0, "First port for published miner APIs (0 lets the OS pick)")
	publishPorts := flag.String("publish-ports", "", "Comma-separated explicit ports for published miner APIs")
	noCompatAPI := flag.Bool("no-compat-api", false, "Disable /api/system/* endpoints on the main listener")
	historyDB := flag.String("history-db", "", "SQLite path for telemetry history (empty disables recording)")
	logLevel := flag.String("log-level", envOr("AXESIM_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config failed", "err", err)
		os.Exit(1)
	}

	applyFlagOverrides(&cfg, flagOverrides{
		addr:             *addr,
		count:            *count,
		model:            *model,
		models:           *models,
		scenario:         *scenario,
		tickHz:           *tickHz,
		warmupS:          *warmupS,
		configRampS:      *configRampS,
		seed:             *seed,
		publishMiners:    *publishMiners,
		publishStartPort: *publishStartPort,
		publishPorts:     *publishPorts,
		noCompatAPI:      *noCompatAPI,
		historyDB:        *historyDB,
	})

	if cfg.Fleet.Seed != 0 {
		sim.SetSeed(cfg.Fleet.Seed)
		logger.Info("deterministic seed set", "seed", cfg.Fleet.Seed)
	}

	var store *database.Store
	if cfg.History.Path != "" {
		db, err := sql.Open("sqlite", cfg.History.Path)
		if err != nil {
			logger.Error("open history database failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		// SQLite is a single-writer store; keep one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		if err := db.Ping(); err != nil {
			logger.Error("ping history database failed", "err", err)
			os.Exit(1)
		}

		store, err = database.New(db)
		if err != nil {
			logger.Error("configure history database failed", "err", err)
			os.Exit(1)
		}
		if err := store.Init(context.Background()); err != nil {
			logger.Error("initialise history schema failed", "err", err)
			os.Exit(1)
		}
	}

	appInstance, err := app.New(cfg, store, logger)
	if err != nil {
		logger.Error("initialise app failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("axesim starting",
		"http_addr", cfg.HTTP.Addr,
		"miners", cfg.Fleet.Count,
		"scenario", cfg.Fleet.Scenario)

	if err := appInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("app terminated with error", "err", err)
		os.Exit(1)
	}

	logger.Info("axesim stopped")
}

type flagOverrides struct {
	addr             string
	count            int
	model            string
	models           string
	scenario         string
	tickHz           float64
	warmupS          float64
	configRampS      float64
	seed             int64
	publishMiners    bool
	publishStartPort int
	publishPorts     string
	noCompatAPI      bool
	historyDB        string
}

func applyFlagOverrides(cfg *config.AppConfig, o flagOverrides) {
	if o.addr != "" {
		cfg.HTTP.Addr = o.addr
	} else if env := os.Getenv("AXESIM_ADDR"); env != "" {
		cfg.HTTP.Addr = env
	}
	if o.count > 0 {
		cfg.Fleet.Count = o.count
	}
	if o.model != "" {
		cfg.Fleet.Model = o.model
	}
	if o.models != "" {
		cfg.Fleet.Models = splitList(o.models)
	}
	if o.scenario != "" {
		cfg.Fleet.Scenario = o.scenario
	}
	if o.tickHz > 0 {
		cfg.Fleet.TickHz = o.tickHz
	}
	if o.warmupS >= 0 {
		cfg.Fleet.WarmupS = o.warmupS
	}
	if o.configRampS >= 0 {
		cfg.Fleet.ConfigRampS = o.configRampS
	}
	if o.seed != 0 {
		cfg.Fleet.Seed = o.seed
	} else if env := os.Getenv("AXESIM_SEED"); env != "" {
		if parsed, err := strconv.ParseInt(env, 10, 64); err == nil {
			cfg.Fleet.Seed = parsed
		}
	}
	if o.publishMiners {
		cfg.Publish.Enabled = true
	}
	if o.publishStartPort > 0 {
		cfg.Publish.StartPort = o.publishStartPort
	}
	if o.publishPorts != "" {
		cfg.Publish.Ports = parsePorts(o.publishPorts)
	}
	if o.noCompatAPI {
		disabled := false
		cfg.HTTP.CompatAPI = &disabled
	}
	if o.historyDB != "" {
		cfg.History.Path = o.historyDB
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePorts(raw string) []int {
	var ports []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if port, err := strconv.Atoi(part); err == nil {
			ports = append(ports, port)
		}
	}
	return ports
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
