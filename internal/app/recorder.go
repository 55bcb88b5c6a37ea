package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"axesim/internal/database"
	"axesim/internal/sim"
)

// HistoryRecorder samples every miner's telemetry on a fixed cadence and
// stores the readings so dashboards can chart a run after the fact. The
// simulator itself never reads these rows back.
type HistoryRecorder struct {
	store    *database.Store
	fleet    *sim.MinerFleet
	log      *slog.Logger
	interval time.Duration
}

// NewHistoryRecorder constructs a telemetry recording service.
func NewHistoryRecorder(store *database.Store, fleet *sim.MinerFleet, interval time.Duration, logger *slog.Logger) *HistoryRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HistoryRecorder{
		store:    store,
		fleet:    fleet,
		log:      logger.With("component", "history"),
		interval: interval,
	}
}

// Run starts the recording loop until cancellation.
func (r *HistoryRecorder) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	r.log.Info("starting history loop", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("stopping history loop", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := r.record(ctx); err != nil {
				r.log.Error("history record failed", "err", err)
			}
		}
	}
}

func (r *HistoryRecorder) record(ctx context.Context) error {
	ids := r.fleet.ListIDs()
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UTC()
	samples := make([]database.Sample, 0, len(ids))
	for _, id := range ids {
		miner := r.fleet.Get(id)
		if miner == nil {
			continue
		}
		tel := miner.Telemetry()
		samples = append(samples, database.Sample{
			MinerID:        tel.MinerID,
			RecordedAt:     now,
			HashrateGHS:    tel.HashRate,
			ExpectedGHS:    tel.ExpectedHashrate,
			PowerW:         tel.Power,
			ChipTempC:      tel.Temp,
			VRTempC:        tel.VRTemp,
			FanDutyPct:     tel.FanSpeed,
			FanRPM:         tel.FanRPM,
			ErrorPct:       tel.ErrorPercentage,
			SharesAccepted: tel.SharesAccepted,
			SharesRejected: tel.SharesRejected,
			ASICErrors:     tel.ASICErrors,
			PoolState:      tel.PoolState,
			LastSubmitMs:   tel.LastSubmitMs,
		})
	}

	if err := r.store.RecordSamples(ctx, samples); err != nil {
		return fmt.Errorf("record samples: %w", err)
	}

	r.log.Debug("telemetry recorded", "miners", len(samples))
	return nil
}
