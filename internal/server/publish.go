package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/phayes/freeport"

	"axesim/internal/sim"
)

// PublishManager exposes each miner's device API on its own port, so fleet
// controllers that scan for devices see N distinct endpoints. Ports come from
// an explicit list when configured, otherwise sequentially from a start port,
// otherwise from the OS via freeport. Ports freed by Unpublish are reused
// before new ones are claimed.
type PublishManager struct {
	host    string
	apiPort int
	log     *slog.Logger

	mu       sync.Mutex
	servers  map[string]*http.Server
	ports    map[string]int
	reserved map[int]struct{}
	reusable []int
	explicit []int
	nextPort int
}

// NewPublishManager builds a manager binding on host. apiPort is the main
// API listener's port; it is never handed out. startPort of 0 with no
// explicit ports delegates allocation to the OS.
func NewPublishManager(host string, apiPort, startPort int, explicitPorts []int, logger *slog.Logger) *PublishManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishManager{
		host:     host,
		apiPort:  apiPort,
		log:      logger.With("component", "publish"),
		servers:  make(map[string]*http.Server),
		ports:    make(map[string]int),
		reserved: make(map[int]struct{}),
		explicit: append([]int(nil), explicitPorts...),
		nextPort: startPort,
	}
}

// Publish starts a device API server for the miner and returns its port.
// Publishing an already-published miner returns the existing port.
func (p *PublishManager) Publish(m *sim.VirtualMiner) (int, error) {
	p.mu.Lock()
	if port, ok := p.ports[m.ID()]; ok {
		p.mu.Unlock()
		return port, nil
	}
	port, err := p.allocPortLocked()
	if err != nil {
		p.mu.Unlock()
		return 0, err
	}
	p.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", p.host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		p.releasePort(port)
		return 0, fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{Handler: newDeviceHandler(m)}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			p.log.Error("published miner server failed", "miner", m.ID(), "port", port, "err", err)
		}
	}()

	p.mu.Lock()
	p.servers[m.ID()] = srv
	p.ports[m.ID()] = port
	p.mu.Unlock()

	p.log.Info("miner published", "miner", m.ID(), "port", port)
	return port, nil
}

// Unpublish stops the miner's device server and recycles its port.
func (p *PublishManager) Unpublish(minerID string) {
	p.mu.Lock()
	srv := p.servers[minerID]
	port, hadPort := p.ports[minerID]
	delete(p.servers, minerID)
	delete(p.ports, minerID)
	p.mu.Unlock()

	if srv != nil {
		_ = srv.Close()
	}
	if hadPort {
		p.releasePort(port)
		p.log.Info("miner unpublished", "miner", minerID, "port", port)
	}
}

// Ports returns a copy of the miner-to-port mapping.
func (p *PublishManager) Ports() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.ports))
	for id, port := range p.ports {
		out[id] = port
	}
	return out
}

// Close unpublishes every miner.
func (p *PublishManager) Close() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.servers))
	for id := range p.servers {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.Unpublish(id)
	}
}

func (p *PublishManager) allocPortLocked() (int, error) {
	if len(p.reusable) > 0 {
		port := p.reusable[0]
		p.reusable = p.reusable[1:]
		p.reserved[port] = struct{}{}
		return port, nil
	}
	if len(p.explicit) > 0 {
		port := p.explicit[0]
		p.explicit = p.explicit[1:]
		if port == p.apiPort {
			return 0, fmt.Errorf("publish port %d conflicts with the API port", port)
		}
		p.reserved[port] = struct{}{}
		return port, nil
	}
	if p.nextPort > 0 {
		port := p.nextPort
		for {
			if port > 65535 {
				return 0, fmt.Errorf("no publish ports available")
			}
			if _, taken := p.reserved[port]; !taken && port != p.apiPort {
				break
			}
			port++
		}
		p.nextPort = port + 1
		p.reserved[port] = struct{}{}
		return port, nil
	}

	port, err := freeport.GetFreePort()
	if err != nil {
		return 0, fmt.Errorf("allocate free port: %w", err)
	}
	p.reserved[port] = struct{}{}
	return port, nil
}

func (p *PublishManager) releasePort(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.reserved, port)
	p.reusable = append(p.reusable, port)
	sort.Ints(p.reusable)
}

// newDeviceHandler serves the single-device API for one published miner.
func newDeviceHandler(miner *sim.VirtualMiner) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "miner_id": miner.ID()})
	})

	mux.HandleFunc("/api/system/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, buildSystemInfo(miner, requestIPv4(r)))
	})

	mux.HandleFunc("/api/system", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		applyCompatPatch(w, r, miner)
	})

	mux.HandleFunc("/api/system/restart", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		miner.Restart()
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "restarting",
			"uptime": miner.UptimeSeconds(),
		})
	})

	return corsMiddleware(mux)
}
