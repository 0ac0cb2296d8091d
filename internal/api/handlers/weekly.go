package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

const defaultWeeklyLimit = 52

// WeeklyHandler serves weekly surge aggregates and type records
type WeeklyHandler struct {
	repo   contracts.WeeklyRepository
	logger *logger.Logger
}

// NewWeeklyHandler creates a weekly handler
func NewWeeklyHandler(repo contracts.WeeklyRepository, log *logger.Logger) *WeeklyHandler {
	return &WeeklyHandler{
		repo:   repo,
		logger: log,
	}
}

// GetByCountry returns a country's weekly rollups, newest first
// GET /api/weekly/{country}?limit=52
func (h *WeeklyHandler) GetByCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	country := mux.Vars(r)["country"]

	aggs, err := h.repo.GetAggregatesByCountry(ctx, country, limitParam(r))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get weekly aggregates")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve weekly data")
		return
	}
	if len(aggs) == 0 {
		respondError(w, http.StatusNotFound, "No weekly data for this country")
		return
	}

	respondJSON(w, http.StatusOK, aggs)
}

// GetRecords returns a country's per-type weekly records, newest first
// GET /api/weekly/{country}/records?limit=52
func (h *WeeklyHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	country := mux.Vars(r)["country"]

	records, err := h.repo.GetRecordsByCountry(ctx, country, limitParam(r))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get weekly records")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve weekly records")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "No weekly records for this country")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func limitParam(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultWeeklyLimit
}
