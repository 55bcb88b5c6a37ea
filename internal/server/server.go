package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"axesim/internal/catalog"
	"axesim/internal/database"
	"axesim/internal/sim"
)

// Publisher exposes per-miner device APIs on dedicated ports. Implemented by
// the publish manager; nil when publishing is disabled.
type Publisher interface {
	Publish(m *sim.VirtualMiner) (int, error)
	Unpublish(minerID string)
	Ports() map[string]int
}

// Server exposes the reference fleet API, the device-compat endpoints and the
// bundled dashboard.
type Server struct {
	fleet     *sim.MinerFleet
	store     *database.Store
	publisher Publisher
	log       *slog.Logger
	mux       *http.ServeMux
	static    http.Handler

	defaultModelID    string
	defaultScenarioID string
	tickHz            float64
	warmupS           float64
	configRampS       float64
	compatAPI         bool
}

// Options configures a Server.
type Options struct {
	Store     *database.Store
	Publisher Publisher

	DefaultModelID    string
	DefaultScenarioID string
	TickHz            float64
	WarmupS           float64
	ConfigRampS       float64
	CompatAPI         bool
}

// New constructs a Server with routes configured.
func New(fleet *sim.MinerFleet, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	static, err := staticHandler()
	if err != nil {
		return nil, fmt.Errorf("prepare static assets: %w", err)
	}

	if opts.DefaultModelID == "" {
		opts.DefaultModelID = catalog.DefaultModelID
	}
	if opts.DefaultScenarioID == "" {
		opts.DefaultScenarioID = catalog.DefaultScenarioID
	}
	if opts.TickHz <= 0 {
		opts.TickHz = 1.0
	}

	s := &Server{
		fleet:             fleet,
		store:             opts.Store,
		publisher:         opts.Publisher,
		log:               logger.With("component", "http"),
		mux:               http.NewServeMux(),
		static:            static,
		defaultModelID:    opts.DefaultModelID,
		defaultScenarioID: opts.DefaultScenarioID,
		tickHz:            opts.TickHz,
		warmupS:           opts.WarmupS,
		configRampS:       opts.ConfigRampS,
		compatAPI:         opts.CompatAPI,
	}

	s.routes()
	return s, nil
}

// Handler exposes the configured mux, wrapped with CORS, for http.Server.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", http.HandlerFunc(s.handleHealthz))

	s.mux.Handle("/v1/models", http.HandlerFunc(s.handleModels))
	s.mux.Handle("/v1/scenarios", http.HandlerFunc(s.handleScenarios))
	s.mux.Handle("/v1/miners", http.HandlerFunc(s.handleMiners))
	s.mux.Handle("/v1/miners/", http.HandlerFunc(s.handleMinerRoutes))
	s.mux.Handle("/v1/published", http.HandlerFunc(s.handlePublished))

	if s.compatAPI {
		s.mux.Handle("/api/system/info", http.HandlerFunc(s.handleCompatInfo))
		s.mux.Handle("/api/system", http.HandlerFunc(s.handleCompatPatch))
		s.mux.Handle("/api/system/restart", http.HandlerFunc(s.handleCompatRestart))
	}

	// Static assets and dashboard.
	s.mux.Handle("/", http.HandlerFunc(s.handleStatic))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"timestamp_ms": time.Now().UnixMilli(),
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/v1/") || strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}
	s.static.ServeHTTP(w, r)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	models := catalog.Models()
	out := make([]modelDTO, 0, len(models))
	for _, m := range models {
		out = append(out, toModelDTO(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	scenarios := catalog.Scenarios()
	out := make([]scenarioDTO, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, scenarioDTO{ScenarioID: sc.ScenarioID})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": out})
}

func (s *Server) handleMiners(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMiners(w, r)
	case http.MethodPost:
		s.createMiner(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleMinerRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/miners/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	minerID := strings.TrimSpace(parts[0])
	if minerID == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodDelete:
			s.deleteMiner(w, r, minerID)
		default:
			methodNotAllowed(w, http.MethodDelete)
		}
		return
	}

	switch strings.Join(parts[1:], "/") {
	case "telemetry":
		if r.Method == http.MethodGet {
			s.minerTelemetry(w, r, minerID)
			return
		}
		methodNotAllowed(w, http.MethodGet)
	case "config":
		if r.Method == http.MethodPatch {
			s.patchMinerConfig(w, r, minerID)
			return
		}
		methodNotAllowed(w, http.MethodPatch)
	case "actions/restart":
		if r.Method == http.MethodPost {
			s.restartMiner(w, r, minerID)
			return
		}
		methodNotAllowed(w, http.MethodPost)
	case "events":
		if r.Method == http.MethodGet {
			s.minerEvents(w, r, minerID)
			return
		}
		methodNotAllowed(w, http.MethodGet)
	case "history":
		if r.Method == http.MethodGet {
			s.minerHistory(w, r, minerID)
			return
		}
		methodNotAllowed(w, http.MethodGet)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) listMiners(w http.ResponseWriter, r *http.Request) {
	ids := s.fleet.ListIDs()
	out := make([]minerSummaryDTO, 0, len(ids))
	for _, id := range ids {
		miner := s.fleet.Get(id)
		if miner == nil {
			continue
		}
		out = append(out, minerSummaryDTO{
			MinerID:    id,
			ModelID:    miner.Model().ModelID,
			ScenarioID: miner.Scenario().ScenarioID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"miners": out})
}

type createMinerRequest struct {
	MinerID    string   `json:"miner_id"`
	ModelID    string   `json:"model_id"`
	ScenarioID string   `json:"scenario_id"`
	TickHz     float64  `json:"tick_hz"`
	Seed       *float64 `json:"seed"`
}

func (s *Server) createMiner(w http.ResponseWriter, r *http.Request) {
	// An absent or malformed body creates a default miner; device tools POST
	// here without a payload.
	var req createMinerRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			req = createMinerRequest{}
		}
	}

	modelID := req.ModelID
	if modelID == "" {
		modelID = s.defaultModelID
	}
	scenarioID := req.ScenarioID
	if scenarioID == "" {
		scenarioID = s.defaultScenarioID
	}

	if req.Seed != nil {
		seed := *req.Seed
		if seed != float64(int64(seed)) {
			writeAPIError(w, http.StatusBadRequest, "invalid_seed", "seed must be an integer", nil)
			return
		}
		sim.SetSeed(int64(seed))
	}

	minerID := strings.TrimSpace(req.MinerID)
	if minerID == "" {
		minerID = "m_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}

	miner := sim.New(minerID, catalog.Model(modelID), catalog.Scenario(scenarioID),
		sim.WithWarmup(s.warmupS), sim.WithConfigRamp(s.configRampS))
	s.fleet.Add(miner)

	if s.publisher != nil {
		if _, err := s.publisher.Publish(miner); err != nil {
			s.fleet.Remove(minerID)
			writeAPIError(w, http.StatusConflict, "publish_failed", "Failed to publish miner API port",
				map[string]any{"reason": err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"miner_id": minerID})
}

func (s *Server) deleteMiner(w http.ResponseWriter, r *http.Request, minerID string) {
	if s.publisher != nil {
		s.publisher.Unpublish(minerID)
	}
	s.fleet.Remove(minerID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) minerTelemetry(w http.ResponseWriter, r *http.Request, minerID string) {
	miner := s.fleet.Get(minerID)
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "miner not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, miner.Telemetry())
}

func (s *Server) patchMinerConfig(w http.ResponseWriter, r *http.Request, minerID string) {
	miner := s.fleet.Get(minerID)
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "miner not found", nil)
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_patch", "invalid JSON payload", nil)
		return
	}

	applied, err := miner.ApplyConfig(patch)
	if err != nil {
		if errors.Is(err, sim.ErrInvalidPatch) {
			writeAPIError(w, http.StatusBadRequest, "invalid_patch", err.Error(), nil)
			return
		}
		s.log.Error("apply config failed", "miner", minerID, "err", err)
		writeAPIError(w, http.StatusInternalServerError, "internal", "failed to apply config", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"applied":   applied,
		"telemetry": miner.Telemetry(),
	})
}

func (s *Server) restartMiner(w http.ResponseWriter, r *http.Request, minerID string) {
	miner := s.fleet.Get(minerID)
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "miner not found", nil)
		return
	}
	miner.Restart()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "restarting",
		"timestamp_ms": time.Now().UnixMilli(),
	})
}

func (s *Server) minerHistory(w http.ResponseWriter, r *http.Request, minerID string) {
	if s.store == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "telemetry history is not enabled", nil)
		return
	}
	if s.fleet.Get(minerID) == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "miner not found", nil)
		return
	}

	limit := 60
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	samples, err := s.store.ListSamples(r.Context(), minerID, limit)
	if err != nil {
		s.log.Error("list history failed", "miner", minerID, "err", err)
		writeAPIError(w, http.StatusInternalServerError, "internal", "failed to fetch history", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

func (s *Server) handlePublished(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}

	var ports map[string]int
	if s.publisher != nil {
		ports = s.publisher.Ports()
	}

	items := make([]publishedDTO, 0, len(ports))
	for _, minerID := range sortedKeys(ports) {
		port := ports[minerID]
		items = append(items, publishedDTO{
			MinerID:  minerID,
			Port:     port,
			InfoURL:  fmt.Sprintf("http://%s:%d/api/system/info", host, port),
			PatchURL: fmt.Sprintf("http://%s:%d/api/system", host, port),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"published": items})
}
