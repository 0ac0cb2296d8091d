// Package feed pulls daily per-country event counts from the upstream
// event export service. The engine only ever sees plain DailySnapshot
// records; everything feed-specific stays here.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/config"
	"github.com/halcyonlabs/georadar/pkg/httputil"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

// Client handles communication with the event export service
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	indexURL   string
	limiter    *rate.Limiter
}

// NewClient creates an event feed client. Requests share one limiter so
// bursts of daily fetches stay inside the feed's rate policy.
func NewClient(cfg config.FeedConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("feed.client"),
		baseURL:    cfg.BaseURL,
		indexURL:   cfg.IndexURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// feedRow is one country line in a daily export file
type feedRow struct {
	CountryCode   string  `json:"country_code"`
	EventCount    int     `json:"event_count"`
	AvgTone       float64 `json:"avg_tone"`
	R1            int     `json:"r1"`
	R2            int     `json:"r2"`
	R3            int     `json:"r3"`
	R4            int     `json:"r4"`
	DomesticRatio float64 `json:"domestic_ratio"`
}

// FetchDaily downloads one date's export and converts it to snapshots.
// Malformed country rows are skipped with a warning; a row problem is
// local and never fails the whole day.
func (c *Client) FetchDaily(ctx context.Context, date time.Time) ([]contracts.DailySnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	url := fmt.Sprintf("%s/events_%s.json", c.baseURL, date.Format("2006-01-02"))
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var rows []feedRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse daily export: %w", err)
	}

	snapshots := make([]contracts.DailySnapshot, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.CountryCode == "" || row.EventCount < 0 {
			skipped++
			continue
		}
		snapshots = append(snapshots, contracts.DailySnapshot{
			CountryCode:   row.CountryCode,
			Date:          date,
			EventCount:    row.EventCount,
			AvgTone:       row.AvgTone,
			R1:            row.R1,
			R2:            row.R2,
			R3:            row.R3,
			R4:            row.R4,
			DomesticRatio: row.DomesticRatio,
		})
	}

	if skipped > 0 {
		c.logger.WithFields(map[string]interface{}{
			"date":    date.Format("2006-01-02"),
			"skipped": skipped,
		}).Warn("Skipped malformed feed rows")
	}

	c.logger.WithFields(map[string]interface{}{
		"date":      date.Format("2006-01-02"),
		"countries": len(snapshots),
	}).Debug("Fetched daily export")

	return snapshots, nil
}

// FetchRange downloads each date in [from, to]. A missing or broken day
// is skipped with a warning and reduces available history accordingly.
func (c *Client) FetchRange(ctx context.Context, from, to time.Time) (map[string][]contracts.DailySnapshot, error) {
	byDate := make(map[string][]contracts.DailySnapshot)

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			return byDate, ctx.Err()
		default:
		}

		snaps, err := c.FetchDaily(ctx, day)
		if err != nil {
			c.logger.WithError(err).WithField("date", day.Format("2006-01-02")).Warn("Skipping feed day")
			continue
		}
		byDate[day.Format("2006-01-02")] = snaps
	}

	return byDate, nil
}
