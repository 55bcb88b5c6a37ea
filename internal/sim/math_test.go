package sim

import (
	"math"
	"math/rand"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 0, 0},
	}
	for _, tc := range cases {
		if got := clamp(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestApproach(t *testing.T) {
	// Zero tau snaps to the target.
	if got := approach(0, 100, 1, 0); got != 100 {
		t.Errorf("approach with tau=0 = %v, want 100", got)
	}

	// One time constant covers ~63% of the gap.
	got := approach(0, 100, 10, 10)
	if got < 60 || got > 66 {
		t.Errorf("approach after one tau = %v, want ~63", got)
	}

	// Negative dt must not move backwards.
	if got := approach(50, 100, -1, 10); got != 50 {
		t.Errorf("approach with negative dt = %v, want 50", got)
	}
}

func TestRateLimit(t *testing.T) {
	if got := rateLimit(0, 100, 1, 18); got != 18 {
		t.Errorf("rateLimit up = %v, want 18", got)
	}
	if got := rateLimit(100, 0, 1, 18); got != 82 {
		t.Errorf("rateLimit down = %v, want 82", got)
	}
	if got := rateLimit(0, 5, 1, 18); got != 5 {
		t.Errorf("rateLimit within bound = %v, want 5", got)
	}
	if got := rateLimit(50, 100, 0, 18); got != 50 {
		t.Errorf("rateLimit with dt=0 = %v, want 50", got)
	}
}

func TestPoisson(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	if got := poisson(rng, 0); got != 0 {
		t.Errorf("poisson(0) = %d, want 0", got)
	}
	if got := poisson(rng, -3); got != 0 {
		t.Errorf("poisson(-3) = %d, want 0", got)
	}

	// The sample mean over many draws should land near lambda.
	const lambda = 4.0
	const n = 20000
	sum := 0
	for i := 0; i < n; i++ {
		sum += poisson(rng, lambda)
	}
	mean := float64(sum) / n
	if math.Abs(mean-lambda) > 0.15 {
		t.Errorf("poisson mean = %v, want ~%v", mean, lambda)
	}
}

func TestRequiredCoreVoltage(t *testing.T) {
	// At stock frequency the requirement equals the stock voltage.
	if got := requiredCoreVoltageMV(1175, 600, 600, 0.30); math.Abs(got-1175) > 1e-9 {
		t.Errorf("required at stock = %v, want 1175", got)
	}

	// Overclocking raises it, downclocking lowers it.
	up := requiredCoreVoltageMV(1175, 600, 625, 0.30)
	down := requiredCoreVoltageMV(1175, 600, 490, 0.30)
	if up <= 1175 {
		t.Errorf("required at 625MHz = %v, want > 1175", up)
	}
	if down >= 1175 {
		t.Errorf("required at 490MHz = %v, want < 1175", down)
	}

	// Degenerate stock frequency falls back to the stock voltage.
	if got := requiredCoreVoltageMV(1175, 0, 600, 0.30); got != 1175 {
		t.Errorf("required with zero stock freq = %v, want 1175", got)
	}
}

func TestUndervoltSeverity(t *testing.T) {
	// No deficit inside the deadband.
	if got := undervoltSeverity(1175, 1160, 80, 20); got != 0 {
		t.Errorf("severity inside deadband = %v, want 0", got)
	}

	// Growing deficit grows severity toward 1.
	s1 := undervoltSeverity(1175, 1100, 80, 20)
	s2 := undervoltSeverity(1175, 1000, 80, 20)
	if !(s1 > 0 && s2 > s1 && s2 < 1) {
		t.Errorf("severity not monotone: s1=%v s2=%v", s1, s2)
	}

	// Hard cliff when no soft margin is configured.
	if got := undervoltSeverity(1175, 1000, 0, 20); got != 1 {
		t.Errorf("severity with soft=0 = %v, want 1", got)
	}
	if got := undervoltSeverity(1175, 1170, 0, 20); got != 0 {
		t.Errorf("severity with soft=0 and no deficit = %v, want 0", got)
	}
}
