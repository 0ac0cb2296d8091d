package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// WeeklyRepository implements contracts.WeeklyRepository
type WeeklyRepository struct {
	pool *pgxpool.Pool
}

// NewWeeklyRepository creates a new weekly repository
func NewWeeklyRepository(pool *pgxpool.Pool) *WeeklyRepository {
	return &WeeklyRepository{pool: pool}
}

// UpsertRecords upserts weekly type records keyed by (country, week, type)
func (r *WeeklyRepository) UpsertRecords(ctx context.Context, records []contracts.WeeklyTypeRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO risk.weekly_type_records
			(week_id, country_code, signal_type, today7, baseline7, ratio7,
			 share7, event_count7, is_active, reason, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (country_code, week_id, signal_type) DO UPDATE SET
			today7 = EXCLUDED.today7,
			baseline7 = EXCLUDED.baseline7,
			ratio7 = EXCLUDED.ratio7,
			share7 = EXCLUDED.share7,
			event_count7 = EXCLUDED.event_count7,
			is_active = EXCLUDED.is_active,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at
	`

	for _, rec := range records {
		_, err := r.pool.Exec(ctx, query,
			rec.WeekID, rec.CountryCode, string(rec.Type), rec.Today7, rec.Baseline7,
			rec.Ratio7, rec.Share7, rec.EventCount7, rec.IsActive, string(rec.Reason),
			rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert weekly record %s/%s/%s: %w",
				rec.CountryCode, rec.WeekID, rec.Type, err)
		}
	}
	return nil
}

// UpsertAggregate upserts a country/week rollup
func (r *WeeklyRepository) UpsertAggregate(ctx context.Context, agg *contracts.WeeklyAggregate) error {
	query := `
		INSERT INTO risk.weekly_aggregates
			(week_id, country_code, level, max_ratio_active, active_types)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (country_code, week_id) DO UPDATE SET
			level = EXCLUDED.level,
			max_ratio_active = EXCLUDED.max_ratio_active,
			active_types = EXCLUDED.active_types
	`

	activeTypes := make([]string, len(agg.ActiveTypes))
	for i, t := range agg.ActiveTypes {
		activeTypes[i] = string(t)
	}

	_, err := r.pool.Exec(ctx, query,
		agg.WeekID, agg.CountryCode, string(agg.Level), agg.MaxRatioActive, activeTypes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly aggregate %s/%s: %w",
			agg.CountryCode, agg.WeekID, err)
	}
	return nil
}

// GetRecordsByCountry retrieves a country's most recent weekly type
// records, newest weeks first
func (r *WeeklyRepository) GetRecordsByCountry(ctx context.Context, country string, limit int) ([]contracts.WeeklyTypeRecord, error) {
	query := `
		SELECT week_id, country_code, signal_type, today7, baseline7, ratio7,
		       share7, event_count7, is_active, reason, updated_at
		FROM risk.weekly_type_records
		WHERE country_code = $1
		ORDER BY week_id DESC, signal_type ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, country, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.WeeklyTypeRecord
	for rows.Next() {
		var rec contracts.WeeklyTypeRecord
		var signalType, reason string
		if err := rows.Scan(
			&rec.WeekID, &rec.CountryCode, &signalType, &rec.Today7, &rec.Baseline7,
			&rec.Ratio7, &rec.Share7, &rec.EventCount7, &rec.IsActive, &reason,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rec.Type = contracts.SignalType(signalType)
		rec.Reason = contracts.GateReason(reason)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAggregatesByCountry retrieves a country's most recent weekly
// rollups, newest weeks first
func (r *WeeklyRepository) GetAggregatesByCountry(ctx context.Context, country string, limit int) ([]*contracts.WeeklyAggregate, error) {
	query := `
		SELECT week_id, country_code, level, max_ratio_active, active_types
		FROM risk.weekly_aggregates
		WHERE country_code = $1
		ORDER BY week_id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, country, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggs []*contracts.WeeklyAggregate
	for rows.Next() {
		var agg contracts.WeeklyAggregate
		var level string
		var activeTypes []string
		if err := rows.Scan(
			&agg.WeekID, &agg.CountryCode, &level, &agg.MaxRatioActive, &activeTypes,
		); err != nil {
			return nil, err
		}
		agg.Level = contracts.AlertLevel(level)
		agg.ActiveTypes = make([]contracts.SignalType, len(activeTypes))
		for i, t := range activeTypes {
			agg.ActiveTypes[i] = contracts.SignalType(t)
		}
		aggs = append(aggs, &agg)
	}
	return aggs, rows.Err()
}
