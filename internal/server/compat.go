package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"axesim/internal/catalog"
	"axesim/internal/sim"
)

// compatPick returns the miner the single-device compatibility endpoints
// operate on: the first fleet member, auto-created when the fleet is empty so
// a bare `curl /api/system/info` always answers like a device would.
func (s *Server) compatPick() *sim.VirtualMiner {
	ids := s.fleet.ListIDs()
	if len(ids) == 0 {
		miner := sim.New("m_compat",
			catalog.Model(s.defaultModelID),
			catalog.Scenario(s.defaultScenarioID),
			sim.WithWarmup(s.warmupS),
			sim.WithConfigRamp(s.configRampS))
		s.fleet.Add(miner)
		return miner
	}
	return s.fleet.Get(ids[0])
}

func requestIPv4(r *http.Request) string {
	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	if host == "" {
		return "0.0.0.0"
	}
	return host
}

func (s *Server) handleCompatInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	miner := s.compatPick()
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "no miner available", nil)
		return
	}
	writeJSON(w, http.StatusOK, buildSystemInfo(miner, requestIPv4(r)))
}

func (s *Server) handleCompatPatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, http.MethodPatch)
		return
	}
	miner := s.compatPick()
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "no miner available", nil)
		return
	}
	applyCompatPatch(w, r, miner)
}

func (s *Server) handleCompatRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	miner := s.compatPick()
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "no miner available", nil)
		return
	}
	miner.Restart()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "restarting",
		"uptime": miner.UptimeSeconds(),
	})
}

// applyCompatPatch mirrors the device firmware: a bad payload is ignored and
// the endpoint answers 200 with an empty body either way.
func applyCompatPatch(w http.ResponseWriter, r *http.Request, miner *sim.VirtualMiner) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err == nil {
		_, _ = miner.ApplyConfig(patch)
	}
	w.WriteHeader(http.StatusOK)
}
