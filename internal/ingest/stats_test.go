package ingest

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/hearth/internal/event"
)

func TestLoadStats_MissingFileYieldsFresh(t *testing.T) {
	stats, err := LoadStats(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalProcessed != 0 || len(stats.ByType) != 0 || len(stats.BySource) != 0 {
		t.Errorf("expected fresh counters: %+v", stats)
	}
}

func TestStats_ObserveAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	stats := NewStats()
	stats.Observe(event.AussenEvent{Type: "sensor.reading", Source: "haus-automation"})
	stats.Observe(event.AussenEvent{Type: "sensor.reading", Source: "haus-automation"})
	stats.Observe(event.AussenEvent{Type: "user.interaction", Source: "user-app"})
	if err := stats.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadStats(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalProcessed != 3 {
		t.Errorf("expected 3 processed, got %d", got.TotalProcessed)
	}
	if got.ByType["sensor.reading"] != 2 {
		t.Errorf("expected 2 sensor.reading, got %d", got.ByType["sensor.reading"])
	}
	if got.BySource["user-app"] != 1 {
		t.Errorf("expected 1 user-app, got %d", got.BySource["user-app"])
	}
}

func TestStats_AccumulateAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	stats := NewStats()
	stats.Observe(event.AussenEvent{Type: "sensor.reading", Source: "haus-automation"})
	if err := stats.Save(path); err != nil {
		t.Fatal(err)
	}

	// A later batch loads the same file and keeps counting.
	stats, err := LoadStats(path)
	if err != nil {
		t.Fatal(err)
	}
	stats.Observe(event.AussenEvent{Type: "sensor.reading", Source: "haus-automation"})
	if err := stats.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadStats(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalProcessed != 2 {
		t.Errorf("expected counters to accumulate to 2, got %d", got.TotalProcessed)
	}
}

func TestStats_Reset(t *testing.T) {
	stats := NewStats()
	stats.Observe(event.AussenEvent{Type: "sensor.reading", Source: "haus-automation"})

	stats.Reset()
	if stats.TotalProcessed != 0 || len(stats.ByType) != 0 || len(stats.BySource) != 0 {
		t.Errorf("expected zeroed counters: %+v", stats)
	}
}
