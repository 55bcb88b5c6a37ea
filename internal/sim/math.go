package sim

import (
	"math"
	"math/rand"
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// approach moves current toward target along a first-order exponential with
// time constant tau. tau <= 0 snaps to the target.
func approach(current, target, dt, tau float64) float64 {
	if tau <= 0 {
		return target
	}
	alpha := 1.0 - math.Exp(-math.Max(0, dt)/tau)
	return current + (target-current)*alpha
}

// rateLimit bounds the per-second slew of current toward target.
func rateLimit(current, target, dt, maxDeltaPerS float64) float64 {
	if dt <= 0 {
		return current
	}
	maxDelta := maxDeltaPerS * dt
	return current + clamp(target-current, -maxDelta, maxDelta)
}

// poisson draws from Poisson(lam) using Knuth's multiplicative method.
func poisson(rng *rand.Rand, lam float64) int {
	if lam <= 0 {
		return 0
	}
	bound := math.Exp(-lam)
	k := 0
	p := 1.0
	for p > bound {
		k++
		p *= rng.Float64()
	}
	if k < 1 {
		return 0
	}
	return k - 1
}

// uniform returns a draw from U(lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// requiredCoreVoltageMV models the minimum stable core voltage at a given
// frequency as a power law about the stock operating point.
func requiredCoreVoltageMV(stockMV, stockMHz, freqMHz, exponent float64) float64 {
	if stockMHz <= 0 {
		return stockMV
	}
	ratio := math.Max(0.1, freqMHz/stockMHz)
	return stockMV * math.Pow(ratio, exponent)
}

// undervoltSeverity maps a voltage deficit below the requirement (less the
// deadband) onto [0, 1]. Zero at no deficit, approaching 1 exponentially
// with softMV as the scale (about 0.63 at a deficit of softMV).
func undervoltSeverity(requiredMV, actualMV, softMV, deadbandMV float64) float64 {
	deficit := math.Max(0, requiredMV-actualMV-math.Max(0, deadbandMV))
	if softMV <= 0 {
		if deficit > 0 {
			return 1.0
		}
		return 0.0
	}
	return 1.0 - math.Exp(-deficit/softMV)
}
