package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/halcyonlabs/georadar/internal/api/handlers"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	scoreHandler *handlers.ScoreHandler,
	weeklyHandler *handlers.WeeklyHandler,
	healthHandler *handlers.HealthHandler,
	hub *Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler.Get).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scores/{date}", scoreHandler.GetByDate).Methods("GET")
	api.HandleFunc("/scores/{date}/{country}", scoreHandler.GetByCountry).Methods("GET")
	api.HandleFunc("/weekly/{country}", weeklyHandler.GetByCountry).Methods("GET")
	api.HandleFunc("/weekly/{country}/records", weeklyHandler.GetRecords).Methods("GET")

	if hub != nil {
		r.HandleFunc("/ws/alerts", hub.ServeWS)
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
