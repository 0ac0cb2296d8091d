package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/logger"
	"github.com/halcyonlabs/georadar/pkg/redis"
)

// scoreCacheTTL keeps served dates hot briefly; published results only
// change when a date is re-run.
const scoreCacheTTL = 5 * time.Minute

// ScoreHandler serves daily scoring results
type ScoreHandler struct {
	repo   contracts.ScoringRepository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewScoreHandler creates a score handler. cache may be nil.
func NewScoreHandler(repo contracts.ScoringRepository, cache *redis.Cache, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// GetByDate returns every country's result for a date
// GET /api/scores/{date}
func (h *ScoreHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := "scores:" + date.Format("2006-01-02")
	if h.cache != nil {
		var cached []*contracts.ScoringResult
		if hit, _ := h.cache.Get(ctx, cacheKey, &cached); hit {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	results, err := h.repo.GetByDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get scores by date")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scores")
		return
	}
	if len(results) == 0 {
		respondError(w, http.StatusNotFound, "No scores for this date")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, results, scoreCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache scores")
		}
	}

	respondJSON(w, http.StatusOK, results)
}

// GetByCountry returns one country's result for a date
// GET /api/scores/{date}/{country}
func (h *ScoreHandler) GetByCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	date, err := parseDate(vars["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.repo.GetByCountryAndDate(ctx, vars["country"], date)
	if err != nil {
		h.logger.WithError(err).WithField("country", vars["country"]).Debug("Score lookup failed")
		respondError(w, http.StatusNotFound, "No score for this country and date")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return date, nil
}
