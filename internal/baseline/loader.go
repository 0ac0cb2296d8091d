package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

const (
	calmestFile = "calmest_window.json"
	longFile    = "long_window.json"
)

// LoadDir builds a Provider from the precomputed baseline tables in dir.
// A missing table file is not an error (the fallback chain absorbs it);
// malformed records are skipped with a warning.
func LoadDir(dir string, log *logger.Logger) (*Provider, error) {
	log = log.WithComponent("baseline")

	calmest := loadTable(filepath.Join(dir, calmestFile), log)
	long := loadTable(filepath.Join(dir, longFile), log)

	log.WithFields(map[string]interface{}{
		"calmest_records": len(calmest),
		"long_records":    len(long),
	}).Info("Baseline tables loaded")

	return NewProvider(calmest, long), nil
}

// loadTable reads one baseline table, dropping invalid entries
func loadTable(path string, log *logger.Logger) []contracts.BaselineRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("Failed to read baseline table")
		}
		return nil
	}

	var raw []contracts.BaselineRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).WithField("path", path).Warn("Failed to parse baseline table")
		return nil
	}

	records := raw[:0]
	for _, rec := range raw {
		if rec.CountryCode == "" || !rec.Type.Valid() {
			log.WithFields(map[string]interface{}{
				"path":    path,
				"country": rec.CountryCode,
				"type":    string(rec.Type),
			}).Warn("Skipping invalid baseline record")
			continue
		}
		records = append(records, rec)
	}

	return records
}
