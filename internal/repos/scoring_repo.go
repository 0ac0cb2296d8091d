// Package repos holds the Postgres repositories for scoring and weekly
// output. Writes are upserts keyed the same way the engine is
// idempotent: re-running a date or week overwrites cleanly.
package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halcyonlabs/georadar/internal/contracts"
)

// ScoringRepository implements contracts.ScoringRepository
type ScoringRepository struct {
	pool *pgxpool.Pool
}

// NewScoringRepository creates a new scoring repository
func NewScoringRepository(pool *pgxpool.Pool) *ScoringRepository {
	return &ScoringRepository{pool: pool}
}

// SaveBatch upserts a run's results keyed by (country, date)
func (r *ScoringRepository) SaveBatch(ctx context.Context, results []*contracts.ScoringResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO risk.daily_scores
			(country_code, score_date, level, bundle_count, composite_score,
			 external_pressure_noise, signals, scores)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (country_code, score_date) DO UPDATE SET
			level = EXCLUDED.level,
			bundle_count = EXCLUDED.bundle_count,
			composite_score = EXCLUDED.composite_score,
			external_pressure_noise = EXCLUDED.external_pressure_noise,
			signals = EXCLUDED.signals,
			scores = EXCLUDED.scores
	`

	for _, result := range results {
		signals, err := json.Marshal(result.Signals)
		if err != nil {
			return fmt.Errorf("failed to marshal signals for %s: %w", result.CountryCode, err)
		}
		scores, err := json.Marshal(result.Scores)
		if err != nil {
			return fmt.Errorf("failed to marshal scores for %s: %w", result.CountryCode, err)
		}

		_, err = r.pool.Exec(ctx, query,
			result.CountryCode, result.Date, string(result.Level), result.BundleCount,
			result.CompositeScore, result.ExternalPressureNoise, signals, scores,
		)
		if err != nil {
			return fmt.Errorf("failed to save result for %s: %w", result.CountryCode, err)
		}
	}
	return nil
}

// GetByDate retrieves every country's result for a date, ordered by country
func (r *ScoringRepository) GetByDate(ctx context.Context, date time.Time) ([]*contracts.ScoringResult, error) {
	query := `
		SELECT country_code, score_date, level, bundle_count, composite_score,
		       external_pressure_noise, signals, scores
		FROM risk.daily_scores
		WHERE score_date = $1
		ORDER BY country_code ASC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*contracts.ScoringResult
	for rows.Next() {
		result, err := scanScoringResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// GetByCountryAndDate retrieves one country's result for a date
func (r *ScoringRepository) GetByCountryAndDate(ctx context.Context, country string, date time.Time) (*contracts.ScoringResult, error) {
	query := `
		SELECT country_code, score_date, level, bundle_count, composite_score,
		       external_pressure_noise, signals, scores
		FROM risk.daily_scores
		WHERE country_code = $1 AND score_date = $2
	`

	row := r.pool.QueryRow(ctx, query, country, date)
	return scanScoringResult(row.Scan)
}

// scanScoringResult decodes one daily_scores row
func scanScoringResult(scan func(dest ...any) error) (*contracts.ScoringResult, error) {
	var result contracts.ScoringResult
	var level string
	var signals, scores []byte

	if err := scan(
		&result.CountryCode, &result.Date, &level, &result.BundleCount,
		&result.CompositeScore, &result.ExternalPressureNoise, &signals, &scores,
	); err != nil {
		return nil, err
	}
	result.Level = contracts.AlertLevel(level)

	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &result.Signals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signals: %w", err)
		}
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &result.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
		}
	}
	return &result, nil
}
