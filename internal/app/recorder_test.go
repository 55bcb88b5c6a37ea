package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"axesim/internal/catalog"
	"axesim/internal/database"
	"axesim/internal/sim"

	_ "modernc.org/sqlite"
)

func TestHistoryRecorderRecords(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	store, err := database.New(db)
	if err != nil {
		t.Fatalf("configure store: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	fleet := sim.NewFleet(1.0, nil)
	miner := sim.New("m_rec", catalog.Model("bm1370_4chip"), catalog.Scenario("healthy"),
		sim.WithRand(1), sim.WithWarmup(0))
	fleet.Add(miner)
	miner.Tick()

	recorder := NewHistoryRecorder(store, fleet, time.Second, nil)
	if err := recorder.record(ctx); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := recorder.record(ctx); err != nil {
		t.Fatalf("record second: %v", err)
	}

	samples, err := store.ListSamples(ctx, "m_rec", 10)
	if err != nil {
		t.Fatalf("ListSamples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}
	got := samples[0]
	if got.MinerID != "m_rec" || got.PoolState == "" {
		t.Errorf("sample = %+v", got)
	}
	if got.ExpectedGHS != 600*2040*4/1000.0 {
		t.Errorf("expected hashrate = %.1f", got.ExpectedGHS)
	}

	// An empty fleet records nothing and does not error.
	empty := NewHistoryRecorder(store, sim.NewFleet(1.0, nil), time.Second, nil)
	if err := empty.record(ctx); err != nil {
		t.Errorf("record on empty fleet: %v", err)
	}
}
