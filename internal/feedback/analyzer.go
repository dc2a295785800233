package feedback

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// #region config

// Config tunes the evidence thresholds of the analyzer.
type Config struct {
	// MinDecisions is the sample floor below which nothing is proposed.
	MinDecisions int
	// MinConfidence gates proposal emission.
	MinConfidence float32
	// FailureThreshold is the overall failure rate that counts as a pattern
	// and triggers the exploration reduction delta.
	FailureThreshold float32
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinDecisions:     20,
		MinConfidence:    0.6,
		FailureThreshold: 0.5,
	}
}

// Detector and confidence tuning. Confidence plateaus at the sample size
// where more data stops adding certainty.
const (
	confidenceSamplePlateau = 50.0
	confidenceHighPattern   = 0.7
	confidenceLowPattern    = 0.5
	confidenceSampleWeight  = 0.4
	confidencePatternWeight = 0.6

	actionMinSamples       = 5
	actionFailureThreshold = 0.6
	recencyShareThreshold  = 0.5
	trustMinSamples        = 5
	trustSkewThreshold     = 0.3

	epsilonDelta = -0.05
)

// #endregion config

// #region analyzer

// Analyzer aggregates decision outcomes, detects patterns, and generates
// weight adjustment proposals. Stateless apart from its thresholds; safe to
// share across policies.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer; MinConfidence is clamped into [0,1].
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = 0
	}
	if cfg.MinConfidence > 1 {
		cfg.MinConfidence = 1
	}
	return &Analyzer{config: cfg}
}

// #endregion analyzer

// #region aggregate

// UngroupedKey collects outcomes whose grouping key is absent. Absence is a
// valid group, not a skip.
const UngroupedKey = "ungrouped"

// KeyFunc projects an outcome onto a grouping key; ok=false means absent.
type KeyFunc func(DecisionOutcome) (key string, ok bool)

// ByAction groups outcomes by the action taken.
func ByAction(o DecisionOutcome) (string, bool) { return o.Action, o.Action != "" }

// ByTrustLevel groups outcomes by the trust_level context feature.
func ByTrustLevel(o DecisionOutcome) (string, bool) { return o.trustLevel() }

// AggregateOutcomes groups outcomes by an arbitrary projection and computes
// per-group statistics.
func (a *Analyzer) AggregateOutcomes(outcomes []DecisionOutcome, keyFn KeyFunc) map[string]OutcomeStatistics {
	groups := make(map[string]OutcomeStatistics)
	for _, o := range outcomes {
		key, ok := keyFn(o)
		if !ok {
			key = UngroupedKey
		}
		stats := groups[key]
		stats.observe(o)
		groups[key] = stats
	}
	return groups
}

func summarize(outcomes []DecisionOutcome) OutcomeStatistics {
	var stats OutcomeStatistics
	for _, o := range outcomes {
		stats.observe(o)
	}
	return stats
}

// #endregion aggregate

// #region patterns

// AnalyzePatterns runs the heuristic detectors independently and unions
// their findings. Deterministic order: per-action failures (sorted by
// action), overall failure, recency bias, trust skew.
func (a *Analyzer) AnalyzePatterns(outcomes []DecisionOutcome) []Pattern {
	var patterns []Pattern

	if len(outcomes) < a.config.MinDecisions {
		return patterns
	}

	patterns = append(patterns, a.repeatedFailures(outcomes)...)

	overall := summarize(outcomes)
	if overall.Total >= a.config.MinDecisions && overall.FailureRate() > a.config.FailureThreshold {
		patterns = append(patterns, Pattern{
			Name: "overall_failure",
			Description: fmt.Sprintf("overall failure rate is high (%.1f%%)",
				overall.FailureRate()*100),
			Samples: overall.Total,
			Rate:    overall.FailureRate(),
		})
	}

	if p, ok := a.recencyBias(outcomes); ok {
		patterns = append(patterns, p)
	}
	if p, ok := a.trustSkew(outcomes); ok {
		patterns = append(patterns, p)
	}
	return patterns
}

// repeatedFailures flags actions whose failure rate exceeds the per-action
// threshold over enough samples.
func (a *Analyzer) repeatedFailures(outcomes []DecisionOutcome) []Pattern {
	byAction := a.AggregateOutcomes(outcomes, ByAction)

	actions := make([]string, 0, len(byAction))
	for action := range byAction {
		if action == UngroupedKey {
			continue
		}
		actions = append(actions, action)
	}
	sort.Strings(actions)

	var patterns []Pattern
	for _, action := range actions {
		stats := byAction[action]
		if stats.Total >= actionMinSamples && stats.FailureRate() > actionFailureThreshold {
			patterns = append(patterns, Pattern{
				Name: "repeated_failure",
				Description: fmt.Sprintf("high failure rate (%.1f%%) for action %q",
					stats.FailureRate()*100, action),
				Samples: stats.Total,
				Rate:    stats.FailureRate(),
			})
		}
	}
	return patterns
}

// recencyBias flags a recent window concentrating on one action while that
// action performs below the overall success rate. Heuristic over the input
// order, which the journal keeps chronological.
func (a *Analyzer) recencyBias(outcomes []DecisionOutcome) (Pattern, bool) {
	recent := outcomes[len(outcomes)/2:]
	if len(recent) < actionMinSamples {
		return Pattern{}, false
	}

	byRecent := a.AggregateOutcomes(recent, ByAction)
	var dominant string
	var dominantCount int
	for action, stats := range byRecent {
		if action == UngroupedKey {
			continue
		}
		if stats.Total > dominantCount || (stats.Total == dominantCount && action < dominant) {
			dominant = action
			dominantCount = stats.Total
		}
	}
	if dominant == "" {
		return Pattern{}, false
	}

	share := float32(dominantCount) / float32(len(recent))
	if share <= recencyShareThreshold {
		return Pattern{}, false
	}

	overallRate := summarize(outcomes).SuccessRate()
	dominantOverall := a.AggregateOutcomes(outcomes, ByAction)[dominant]
	if dominantOverall.SuccessRate() >= overallRate {
		return Pattern{}, false
	}

	return Pattern{
		Name: "recency_bias",
		Description: fmt.Sprintf("action %q takes %.0f%% of recent decisions but succeeds %.1f%% vs %.1f%% overall",
			dominant, share*100, dominantOverall.SuccessRate()*100, overallRate*100),
		Samples: dominantCount,
		Rate:    share,
	}, true
}

// trustSkew flags outcome quality correlated with the trust_level context
// feature, when present.
func (a *Analyzer) trustSkew(outcomes []DecisionOutcome) (Pattern, bool) {
	byTrust := a.AggregateOutcomes(outcomes, ByTrustLevel)
	delete(byTrust, UngroupedKey)
	if len(byTrust) < 2 {
		return Pattern{}, false
	}

	levels := make([]string, 0, len(byTrust))
	for level := range byTrust {
		if byTrust[level].Total >= trustMinSamples {
			levels = append(levels, level)
		}
	}
	if len(levels) < 2 {
		return Pattern{}, false
	}
	sort.Strings(levels)

	lo, hi := levels[0], levels[0]
	for _, level := range levels[1:] {
		if byTrust[level].SuccessRate() < byTrust[lo].SuccessRate() {
			lo = level
		}
		if byTrust[level].SuccessRate() > byTrust[hi].SuccessRate() {
			hi = level
		}
	}

	spread := byTrust[hi].SuccessRate() - byTrust[lo].SuccessRate()
	if spread <= trustSkewThreshold {
		return Pattern{}, false
	}

	return Pattern{
		Name: "trust_skew",
		Description: fmt.Sprintf("success rate differs by %.1f%% between trust levels %q (%.1f%%) and %q (%.1f%%)",
			spread*100, hi, byTrust[hi].SuccessRate()*100, lo, byTrust[lo].SuccessRate()*100),
		Samples: byTrust[hi].Total + byTrust[lo].Total,
		Rate:    spread,
	}, true
}

// #endregion patterns

// #region propose

// ProposeAdjustment generates a proposal from the analyzed outcomes, or nil
// when the evidence bar is not met (too few decisions, no patterns, or
// confidence below the minimum). Insufficient evidence is a normal nil, not
// an error.
func (a *Analyzer) ProposeAdjustment(policyID string, outcomes []DecisionOutcome) *WeightAdjustmentProposal {
	if len(outcomes) < a.config.MinDecisions {
		return nil
	}

	patterns := a.AnalyzePatterns(outcomes)
	if len(patterns) == 0 {
		return nil
	}

	confidence := a.confidence(len(outcomes), len(patterns))
	if confidence < a.config.MinConfidence {
		return nil
	}

	overall := summarize(outcomes)
	deltas := make(map[string]DeltaValue)
	var reasoning []string

	if overall.FailureRate() > a.config.FailureThreshold {
		deltas["epsilon"] = DeltaValue{Kind: DeltaAbsolute, Value: epsilonDelta}
		reasoning = append(reasoning, fmt.Sprintf(
			"reduce exploration: failure rate %.1f%% exceeds %.0f%% threshold",
			overall.FailureRate()*100, a.config.FailureThreshold*100))
	}
	for _, p := range patterns {
		if p.Name == "recency_bias" {
			deltas["recency.half_life"] = DeltaValue{Kind: DeltaRelative, Value: -20.0, Unit: "percent"}
			reasoning = append(reasoning, "shorten recency half-life: recent decisions over-concentrate on an underperforming action")
			break
		}
	}

	return &WeightAdjustmentProposal{
		ID:         uuid.New().String(),
		Version:    ProposalVersion,
		PolicyID:   policyID,
		TS:         time.Now().UTC().Format(time.RFC3339),
		Deltas:     deltas,
		Confidence: confidence,
		Evidence: Evidence{
			DecisionsAnalyzed: len(outcomes),
			FailureRate:       overall.FailureRate(),
			Patterns:          patterns,
		},
		Reasoning: reasoning,
		Status:    StatusProposed,
	}
}

// confidence is monotonic in sample size (plateauing) and pattern count,
// bounded to [0,1].
func (a *Analyzer) confidence(samples, patternCount int) float32 {
	sample := float32(samples) / confidenceSamplePlateau
	if sample > 1 {
		sample = 1
	}
	pattern := float32(confidenceLowPattern)
	if patternCount >= 2 {
		pattern = confidenceHighPattern
	}
	c := sample*confidenceSampleWeight + pattern*confidencePatternWeight
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// #endregion propose
