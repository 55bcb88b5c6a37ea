package sim

import (
	"sync"
	"testing"
	"time"

	"axesim/internal/catalog"
)

func TestFleetAddRemoveGet(t *testing.T) {
	fleet := NewFleet(1.0, nil)

	a := New("m_a", catalog.Model("bm1370_4chip"), catalog.Scenario("healthy"), WithRand(1))
	b := New("m_b", catalog.Model("bm1366_1chip_5v"), catalog.Scenario("healthy"), WithRand(2))
	fleet.Add(a)
	fleet.Add(b)

	if got := fleet.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if fleet.Get("m_a") != a {
		t.Error("Get returned the wrong miner")
	}
	if fleet.Get("m_missing") != nil {
		t.Error("Get for unknown id returned a miner")
	}

	ids := fleet.ListIDs()
	if len(ids) != 2 || ids[0] != "m_a" || ids[1] != "m_b" {
		t.Errorf("ListIDs = %v, want sorted [m_a m_b]", ids)
	}

	fleet.Remove("m_a")
	fleet.Remove("m_a") // idempotent
	if fleet.Get("m_a") != nil {
		t.Error("removed miner still reachable")
	}
}

func TestFleetTicksMiners(t *testing.T) {
	fleet := NewFleet(50.0, nil)
	clock := newFakeClock()
	m := New("m_tick", catalog.Model("bm1370_4chip"), catalog.Scenario("healthy"),
		WithClock(clock), WithRand(3), WithWarmup(0), WithConfigRamp(0))
	fleet.Add(m)

	fleet.Start()
	fleet.Start() // second call is a no-op

	// The worker calls Tick; the fake clock supplies the simulated dt.
	for i := 0; i < 10; i++ {
		clock.advance(time.Second)
		time.Sleep(30 * time.Millisecond)
	}
	fleet.Stop()

	if got := m.Telemetry().HashRate; got <= 0 {
		t.Errorf("hashRate = %.2f after ticking, want > 0", got)
	}

	// The fleet can be restarted after a stop.
	fleet.Start()
	fleet.Stop()
}

func TestFleetConcurrentAccess(t *testing.T) {
	fleet := NewFleet(100.0, nil)
	for _, id := range []string{"m_1", "m_2", "m_3"} {
		fleet.Add(New(id, catalog.Model("bm1370_4chip"), catalog.Scenario("healthy"), WithWarmup(0)))
	}
	fleet.Start()
	defer fleet.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				for _, id := range fleet.ListIDs() {
					if m := fleet.Get(id); m != nil {
						_ = m.Telemetry()
						_, _ = m.ApplyConfig(map[string]any{"fanspeed": 40 + j%60})
					}
				}
			}
		}()
	}

	// Mutate membership while readers and the ticker are running.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			m := New("m_extra", catalog.Model("bm1366_4chip"), catalog.Scenario("healthy"), WithWarmup(0))
			fleet.Add(m)
			fleet.Remove("m_extra")
		}
	}()

	wg.Wait()
}
