package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ExportFile is one daily export discovered on the feed's index page
type ExportFile struct {
	Date time.Time
	URL  string
}

var exportNameRe = regexp.MustCompile(`events_(\d{4}-\d{2}-\d{2})\.json$`)

// DiscoverExports parses the feed's HTML file-index page and returns the
// daily exports it links to, sorted by date ascending. Links that do not
// look like daily exports are ignored.
func (c *Client) DiscoverExports(ctx context.Context) ([]ExportFile, error) {
	if c.indexURL == "" {
		return nil, fmt.Errorf("no index URL configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, c.indexURL)
	if err != nil {
		return nil, fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read index page: %w", err)
	}

	exports, err := parseIndexHTML(string(body), c.baseURL)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("exports", len(exports)).Debug("Discovered feed exports")
	return exports, nil
}

// LatestExport returns the newest export on the index page
func (c *Client) LatestExport(ctx context.Context) (ExportFile, error) {
	exports, err := c.DiscoverExports(ctx)
	if err != nil {
		return ExportFile{}, err
	}
	if len(exports) == 0 {
		return ExportFile{}, fmt.Errorf("index page lists no daily exports")
	}
	return exports[len(exports)-1], nil
}

// parseIndexHTML extracts export links from an index page. Relative
// hrefs are resolved against the base URL.
func parseIndexHTML(html, baseURL string) ([]ExportFile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index page: %w", err)
	}

	seen := make(map[string]bool)
	var exports []ExportFile

	doc.Find("a[href]").Each(func(i int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := exportNameRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		date, err := time.Parse("2006-01-02", m[1])
		if err != nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true

		url := href
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			url = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
		}

		exports = append(exports, ExportFile{Date: date, URL: url})
	})

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Date.Before(exports[j].Date)
	})

	return exports, nil
}
