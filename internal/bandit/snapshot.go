package bandit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// #region snapshot-type

// SnapshotVersion is the current policy snapshot contract version.
const SnapshotVersion = "1"

// PolicySnapshot is the versioned, serializable capture of an engine's
// learning state. arms, counts, and values are parallel arrays.
type PolicySnapshot struct {
	Version  string    `json:"version"`
	PolicyID string    `json:"policy_id"`
	TS       string    `json:"ts"`
	Arms     []string  `json:"arms"`
	Counts   []uint32  `json:"counts"`
	Values   []float32 `json:"values"`
	Epsilon  float32   `json:"epsilon"`
	Seed     *int64    `json:"seed,omitempty"`
}

// ParseSnapshot decodes a snapshot document.
func ParseSnapshot(data []byte) (PolicySnapshot, error) {
	var snap PolicySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return PolicySnapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}

// #endregion snapshot-type

// #region snapshot

// Snapshot exports the engine state as a versioned document.
func (b *EpsilonGreedy) Snapshot() PolicySnapshot {
	snap := PolicySnapshot{
		Version:  SnapshotVersion,
		PolicyID: b.policyID,
		TS:       time.Now().UTC().Format(time.RFC3339),
		Arms:     append([]string(nil), b.arms...),
		Counts:   make([]uint32, len(b.arms)),
		Values:   make([]float32, len(b.arms)),
		Epsilon:  b.epsilon,
		Seed:     b.seed,
	}
	for i, arm := range b.arms {
		s := b.stats[arm]
		snap.Counts[i] = s.pulls
		snap.Values[i] = s.total
	}
	return snap
}

// #endregion snapshot

// #region load

// LoadReport describes how a snapshot was accepted.
type LoadReport struct {
	// Sanitized is true when the snapshot was structurally valid but carried
	// out-of-range values that were corrected rather than rejected.
	Sanitized bool
	// Warnings lists each correction that was applied.
	Warnings []string
}

// Load replaces the engine state with a snapshot. Structurally invalid
// documents (unsupported version, mismatched array lengths) are rejected and
// leave the engine untouched. Out-of-range epsilon or empty arms are accepted
// with sanitization, reported via LoadReport; availability wins over
// strictness, but the caller sees which trade was made.
func (b *EpsilonGreedy) Load(snap PolicySnapshot) (LoadReport, error) {
	if snap.Version != SnapshotVersion {
		return LoadReport{}, fmt.Errorf("unsupported snapshot version %q", snap.Version)
	}
	if len(snap.Counts) != len(snap.Arms) || len(snap.Values) != len(snap.Arms) {
		return LoadReport{}, fmt.Errorf("snapshot arrays misaligned: %d arms, %d counts, %d values",
			len(snap.Arms), len(snap.Counts), len(snap.Values))
	}

	stats := make(map[string]armStat, len(snap.Arms))
	for i, arm := range snap.Arms {
		if snap.Counts[i] == 0 && snap.Values[i] == 0 {
			continue
		}
		stats[arm] = armStat{pulls: snap.Counts[i], total: snap.Values[i]}
	}

	if snap.PolicyID != "" {
		b.policyID = snap.PolicyID
	}
	b.epsilon = snap.Epsilon
	b.arms = append([]string(nil), snap.Arms...)
	b.stats = stats
	b.seed = snap.Seed
	if snap.Seed != nil {
		b.rng = rand.New(rand.NewSource(*snap.Seed))
	}

	warnings := b.sanitize()
	return LoadReport{Sanitized: len(warnings) > 0, Warnings: warnings}, nil
}

// #endregion load

// #region apply-delta

// ApplyEpsilonDelta shifts epsilon by delta, clamped into [0,1]. Used by
// simulation replays; a live policy only changes through an accepted proposal.
func (b *EpsilonGreedy) ApplyEpsilonDelta(delta float32) {
	e := b.epsilon + delta
	if math.IsNaN(float64(e)) || math.IsInf(float64(e), 0) {
		e = 0.0
	}
	b.epsilon = float32(math.Min(1.0, math.Max(0.0, float64(e))))
}

// #endregion apply-delta
