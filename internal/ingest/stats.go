package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/danielpatrickdp/hearth/internal/event"
)

// #region ingest-stats

// IngestStats holds monotonic event counters keyed by type and source.
// Operational, non-canonical; reset only by explicit operator action.
type IngestStats struct {
	TotalProcessed uint64            `json:"total_processed"`
	ByType         map[string]uint64 `json:"by_type"`
	BySource       map[string]uint64 `json:"by_source"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// NewStats returns empty counters.
func NewStats() IngestStats {
	return IngestStats{
		ByType:      make(map[string]uint64),
		BySource:    make(map[string]uint64),
		LastUpdated: time.Now().UTC(),
	}
}

// LoadStats reads counters from path; a missing file yields fresh counters.
func LoadStats(path string) (IngestStats, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewStats(), nil
	}
	if err != nil {
		return IngestStats{}, fmt.Errorf("read stats %s: %w", path, err)
	}

	var st IngestStats
	if err := json.Unmarshal(data, &st); err != nil {
		return IngestStats{}, fmt.Errorf("parse stats %s: %w", path, err)
	}
	if st.ByType == nil {
		st.ByType = make(map[string]uint64)
	}
	if st.BySource == nil {
		st.BySource = make(map[string]uint64)
	}
	return st, nil
}

// Observe counts one event.
func (s *IngestStats) Observe(ev event.AussenEvent) {
	s.TotalProcessed++
	s.ByType[ev.Type]++
	s.BySource[ev.Source]++
	s.LastUpdated = time.Now().UTC()
}

// Reset zeroes all counters. Operator action only; never called implicitly.
func (s *IngestStats) Reset() {
	s.TotalProcessed = 0
	s.ByType = make(map[string]uint64)
	s.BySource = make(map[string]uint64)
	s.LastUpdated = time.Now().UTC()
}

// Save writes the counters atomically.
func (s IngestStats) Save(path string) error {
	return writeJSONAtomic(path, s)
}

// #endregion ingest-stats
