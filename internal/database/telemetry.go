package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Sample is one recorded telemetry reading for a miner.
type Sample struct {
	ID             int64     `json:"id"`
	MinerID        string    `json:"miner_id"`
	RecordedAt     time.Time `json:"recorded_at"`
	HashrateGHS    float64   `json:"hashrate_ghs"`
	ExpectedGHS    float64   `json:"expected_ghs"`
	PowerW         float64   `json:"power_w"`
	ChipTempC      float64   `json:"chip_temp_c"`
	VRTempC        float64   `json:"vr_temp_c"`
	FanDutyPct     int       `json:"fan_duty_pct"`
	FanRPM         int       `json:"fan_rpm"`
	ErrorPct       float64   `json:"error_pct"`
	SharesAccepted int64     `json:"shares_accepted"`
	SharesRejected int64     `json:"shares_rejected"`
	ASICErrors     int64     `json:"asic_errors"`
	PoolState      string    `json:"pool_state"`
	LastSubmitMs   *int64    `json:"last_submit_ms"`
}

// RecordSamples stores a batch of telemetry readings in one transaction.
func (s *Store) RecordSamples(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin telemetry tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sample := range samples {
		minerID := strings.TrimSpace(sample.MinerID)
		if minerID == "" {
			return fmt.Errorf("miner id is required")
		}
		recordedAt := sample.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO telemetry_samples (
                miner_id,
                recorded_at,
                hashrate_ghs,
                expected_ghs,
                power_w,
                chip_temp_c,
                vr_temp_c,
                fan_duty_pct,
                fan_rpm,
                error_pct,
                shares_accepted,
                shares_rejected,
                asic_errors,
                pool_state,
                last_submit_ms
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, minerID,
			recordedAt,
			sample.HashrateGHS,
			sample.ExpectedGHS,
			sample.PowerW,
			sample.ChipTempC,
			sample.VRTempC,
			sample.FanDutyPct,
			sample.FanRPM,
			sample.ErrorPct,
			sample.SharesAccepted,
			sample.SharesRejected,
			sample.ASICErrors,
			sample.PoolState,
			nullableInt64(sample.LastSubmitMs)); err != nil {
			return fmt.Errorf("insert telemetry sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit telemetry tx: %w", err)
	}

	return nil
}

// ListSamples returns the most recent samples for a miner, newest first.
func (s *Store) ListSamples(ctx context.Context, minerID string, limit int) ([]Sample, error) {
	minerID = strings.TrimSpace(minerID)
	if minerID == "" {
		return nil, fmt.Errorf("miner id is required")
	}
	if limit <= 0 {
		limit = 60
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT
            id,
            miner_id,
            recorded_at,
            hashrate_ghs,
            expected_ghs,
            power_w,
            chip_temp_c,
            vr_temp_c,
            fan_duty_pct,
            fan_rpm,
            error_pct,
            shares_accepted,
            shares_rejected,
            asic_errors,
            pool_state,
            last_submit_ms
        FROM telemetry_samples
        WHERE miner_id = ?
        ORDER BY recorded_at DESC, id DESC
        LIMIT ?
    `, minerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query telemetry samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			sample     Sample
			lastSubmit sql.NullInt64
		)
		if err := rows.Scan(
			&sample.ID,
			&sample.MinerID,
			&sample.RecordedAt,
			&sample.HashrateGHS,
			&sample.ExpectedGHS,
			&sample.PowerW,
			&sample.ChipTempC,
			&sample.VRTempC,
			&sample.FanDutyPct,
			&sample.FanRPM,
			&sample.ErrorPct,
			&sample.SharesAccepted,
			&sample.SharesRejected,
			&sample.ASICErrors,
			&sample.PoolState,
			&lastSubmit,
		); err != nil {
			return nil, fmt.Errorf("scan telemetry sample: %w", err)
		}
		sample.LastSubmitMs = int64PtrFromNull(lastSubmit)
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry samples: %w", err)
	}

	return samples, nil
}
