package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// persistenceFile is the on-disk shape of a store snapshot
type persistenceFile struct {
	Version string             `json:"version"`
	SavedAt time.Time          `json:"saved_at"`
	Series  map[string][]Point `json:"series"`
}

const persistenceVersion = "1.0"

// Save persists the store to path atomically (write to tmp, then rename)
func (s *Store) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data := persistenceFile{
		Version: persistenceVersion,
		SavedAt: time.Now(),
		Series:  s.series,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	return nil
}

// Load restores the store from path. A missing file means a fresh start.
// Loaded series are re-trimmed against the current retention bound.
func (s *Store) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp file from a previous crash
	tempPath := path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	jsonData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var data persistenceFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal history file: %w", err)
	}

	if data.Series == nil {
		data.Series = make(map[string][]Point)
	}

	for k, points := range data.Series {
		// Save writes sorted data, but median scans assume date order,
		// so an edited or merged file must not be trusted.
		sort.Slice(points, func(i, j int) bool {
			return points[i].Date.Before(points[j].Date)
		})
		if len(points) > s.retentionDays {
			points = points[len(points)-s.retentionDays:]
		}
		data.Series[k] = points
	}
	s.series = data.Series

	return nil
}
