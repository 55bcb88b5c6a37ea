package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// minerEvents streams telemetry snapshots as server-sent events, one event
// per simulator timestamp change.
func (s *Server) minerEvents(w http.ResponseWriter, r *http.Request, minerID string) {
	miner := s.fleet.Get(minerID)
	if miner == nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "miner not found", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, "internal", "streaming not supported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.log.Debug("sse client connected", "miner", minerID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastTS int64
	send := func() bool {
		tel := miner.Telemetry()
		if tel.Timestamp == lastTS {
			return true
		}
		lastTS = tel.Timestamp
		data, err := json.Marshal(tel)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: telemetry\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("sse client disconnected", "miner", minerID)
			return
		case <-ticker.C:
			if s.fleet.Get(minerID) == nil {
				return
			}
			if !send() {
				return
			}
		}
	}
}
