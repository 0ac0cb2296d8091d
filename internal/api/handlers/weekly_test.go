package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

type stubWeeklyRepo struct {
	records    []contracts.WeeklyTypeRecord
	aggregates []*contracts.WeeklyAggregate
	lastLimit  int
}

func (s *stubWeeklyRepo) UpsertRecords(ctx context.Context, records []contracts.WeeklyTypeRecord) error {
	return nil
}

func (s *stubWeeklyRepo) UpsertAggregate(ctx context.Context, agg *contracts.WeeklyAggregate) error {
	return nil
}

func (s *stubWeeklyRepo) GetRecordsByCountry(ctx context.Context, country string, limit int) ([]contracts.WeeklyTypeRecord, error) {
	s.lastLimit = limit
	var out []contracts.WeeklyTypeRecord
	for _, r := range s.records {
		if r.CountryCode == country {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubWeeklyRepo) GetAggregatesByCountry(ctx context.Context, country string, limit int) ([]*contracts.WeeklyAggregate, error) {
	s.lastLimit = limit
	var out []*contracts.WeeklyAggregate
	for _, a := range s.aggregates {
		if a.CountryCode == country {
			out = append(out, a)
		}
	}
	return out, nil
}

func newWeeklyRouter(repo contracts.WeeklyRepository) http.Handler {
	h := NewWeeklyHandler(repo, logger.NewWriter(io.Discard))
	r := mux.NewRouter()
	r.HandleFunc("/api/weekly/{country}", h.GetByCountry).Methods("GET")
	r.HandleFunc("/api/weekly/{country}/records", h.GetRecords).Methods("GET")
	return r
}

func TestWeeklyGetByCountry(t *testing.T) {
	repo := &stubWeeklyRepo{aggregates: []*contracts.WeeklyAggregate{
		{WeekID: "2026-W35", CountryCode: "UA", Level: contracts.LevelOrange,
			MaxRatioActive: 3.1, ActiveTypes: []contracts.SignalType{contracts.SignalR1}},
	}}

	rec := httptest.NewRecorder()
	newWeeklyRouter(repo).ServeHTTP(rec, httptest.NewRequest("GET", "/api/weekly/UA", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*contracts.WeeklyAggregate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, contracts.LevelOrange, got[0].Level)
	assert.Equal(t, defaultWeeklyLimit, repo.lastLimit)
}

func TestWeeklyGetByCountry_LimitParam(t *testing.T) {
	repo := &stubWeeklyRepo{aggregates: []*contracts.WeeklyAggregate{
		{WeekID: "2026-W35", CountryCode: "UA", Level: contracts.LevelYellow},
	}}

	rec := httptest.NewRecorder()
	newWeeklyRouter(repo).ServeHTTP(rec, httptest.NewRequest("GET", "/api/weekly/UA?limit=4", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, repo.lastLimit)
}

func TestWeeklyGetByCountry_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newWeeklyRouter(&stubWeeklyRepo{}).ServeHTTP(rec, httptest.NewRequest("GET", "/api/weekly/XX", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeeklyGetRecords(t *testing.T) {
	repo := &stubWeeklyRepo{records: []contracts.WeeklyTypeRecord{
		{WeekID: "2026-W35", CountryCode: "UA", Type: contracts.SignalR1, Ratio7: 2.4, IsActive: true},
		{WeekID: "2026-W35", CountryCode: "UA", Type: contracts.SignalR2, Ratio7: 0.8, Reason: contracts.GateBelowThreshold},
	}}

	rec := httptest.NewRecorder()
	newWeeklyRouter(repo).ServeHTTP(rec, httptest.NewRequest("GET", "/api/weekly/UA/records", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []contracts.WeeklyTypeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
