package sim

import (
	"hash/fnv"
	"math/rand"
	"sync/atomic"
)

// fleetSeed is the process-wide base seed. Each miner derives its own RNG
// stream from (fleetSeed, miner id), so per-miner sequences do not depend on
// the order the fleet ticks miners in.
var fleetSeed atomic.Int64

// SetSeed fixes the base seed for all miners created afterwards. The CLI
// calls this once at startup for deterministic runs.
func SetSeed(seed int64) {
	fleetSeed.Store(seed)
}

func newMinerRand(minerID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(minerID))
	return rand.New(rand.NewSource(fleetSeed.Load() ^ int64(h.Sum64())))
}
