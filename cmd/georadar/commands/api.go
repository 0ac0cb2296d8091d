package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyonlabs/georadar/internal/api"
	"github.com/halcyonlabs/georadar/internal/api/handlers"
	"github.com/halcyonlabs/georadar/pkg/redis"
)

// apiCmd starts the HTTP API server with the websocket alert stream
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Serves published daily scores and weekly surge data over HTTP and
streams new alerts over a websocket at /ws/alerts.

Endpoints:
  GET /health
  GET /api/scores/{date}
  GET /api/scores/{date}/{country}
  GET /api/weekly/{country}
  GET /api/weekly/{country}/records

Example:
  go run ./cmd/georadar api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime(true)
	if err != nil {
		return err
	}
	defer rt.close()

	var cache *redis.Cache
	if rt.redis != nil && rt.redis.Enabled() {
		cache = redis.NewCache(rt.redis, "georadar")
	}

	hub := api.NewHub(rt.log)
	router := api.NewRouter(
		handlers.NewScoreHandler(rt.scoringRepo, cache, rt.log),
		handlers.NewWeeklyHandler(rt.weeklyRepo, rt.log),
		handlers.NewHealthHandler(rt.db, rt.log),
		hub,
		rt.log,
	)
	server := api.New(rt.cfg, rt.log, router)

	// The scheduler runs alongside the server so fresh results reach
	// websocket subscribers without a separate process.
	sched, err := rt.newScheduler(hub)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
