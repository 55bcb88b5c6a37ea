package sim

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// MinerFleet owns a set of miners and a single worker goroutine that ticks
// them at a fixed cadence. The fleet lock is held only to snapshot the miner
// list, never across Tick calls, so Add/Remove stay responsive while a large
// fleet is being advanced.
type MinerFleet struct {
	mu      sync.Mutex
	miners  map[string]*VirtualMiner
	period  time.Duration
	log     *slog.Logger
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewFleet builds an empty fleet ticking at tickHz (clamped to >= 0.1 Hz).
func NewFleet(tickHz float64, logger *slog.Logger) *MinerFleet {
	if logger == nil {
		logger = slog.Default()
	}
	if tickHz < 0.1 {
		tickHz = 0.1
	}
	return &MinerFleet{
		miners: make(map[string]*VirtualMiner),
		period: time.Duration(float64(time.Second) / tickHz),
		log:    logger.With("component", "fleet"),
	}
}

// Start launches the tick worker. Calling Start on a running fleet is a
// no-op; after Stop it may be called again.
func (f *MinerFleet) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}
	f.running = true
	f.stop = make(chan struct{})
	f.done = make(chan struct{})
	f.log.Info("fleet ticking", "period", f.period)
	go f.run(f.stop, f.done)
}

// Stop signals the worker to exit at its next wake and waits for it.
func (f *MinerFleet) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	stop, done := f.stop, f.done
	f.mu.Unlock()

	close(stop)
	<-done
}

func (f *MinerFleet) run(stop, done chan struct{}) {
	defer close(done)
	for {
		start := time.Now()

		f.mu.Lock()
		snapshot := make([]*VirtualMiner, 0, len(f.miners))
		for _, m := range f.miners {
			snapshot = append(snapshot, m)
		}
		f.mu.Unlock()

		for _, m := range snapshot {
			m.Tick()
		}

		sleep := f.period - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-stop:
			return
		case <-time.After(sleep):
		}
	}
}

// Add registers a miner; it is picked up on the next tick pass.
func (f *MinerFleet) Add(m *VirtualMiner) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.miners[m.ID()] = m
}

// Remove drops a miner. Removing an unknown id is a no-op.
func (f *MinerFleet) Remove(minerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.miners, minerID)
}

// Get returns the miner for minerID, or nil.
func (f *MinerFleet) Get(minerID string) *VirtualMiner {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.miners[minerID]
}

// ListIDs returns the current miner ids in a stable order.
func (f *MinerFleet) ListIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.miners))
	for id := range f.miners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of miners in the fleet.
func (f *MinerFleet) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.miners)
}
