package contracts

import (
	"context"
	"time"
)

// BaselineSource resolves a long-run baseline for a country and signal
// type. Implementations never fail: absent data degrades to a default.
type BaselineSource interface {
	Resolve(country string, t SignalType) BaselineRecord
}

// HistoryReader exposes trailing-window median queries over daily counts.
// Only days strictly before the query date count, so appending today's
// snapshot first never feeds a spike into its own baseline. historyDays
// reports how many days inside the requested window actually have data;
// callers treat a short window as insufficient history.
type HistoryReader interface {
	RollingMedian(country string, metric SignalType, before time.Time, windowDays int) (median float64, historyDays int)
}

// ScoringRepository persists daily scoring results
type ScoringRepository interface {
	SaveBatch(ctx context.Context, results []*ScoringResult) error
	GetByDate(ctx context.Context, date time.Time) ([]*ScoringResult, error)
	GetByCountryAndDate(ctx context.Context, country string, date time.Time) (*ScoringResult, error)
}

// WeeklyRepository persists weekly surge records and aggregates
type WeeklyRepository interface {
	UpsertRecords(ctx context.Context, records []WeeklyTypeRecord) error
	UpsertAggregate(ctx context.Context, agg *WeeklyAggregate) error
	GetRecordsByCountry(ctx context.Context, country string, limit int) ([]WeeklyTypeRecord, error)
	GetAggregatesByCountry(ctx context.Context, country string, limit int) ([]*WeeklyAggregate, error)
}

// SnapshotSource supplies daily per-country counts, normally the event
// feed client. Per-day failures are local: a missing day is skipped.
type SnapshotSource interface {
	FetchDaily(ctx context.Context, date time.Time) ([]DailySnapshot, error)
}
