package feedback

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(action string, succeeded bool) DecisionOutcome {
	o := DecisionOutcome{
		DecisionID: fmt.Sprintf("d-%s-%v", action, succeeded),
		TS:         "2026-08-26T10:00:00Z",
		Action:     action,
		Outcome:    OutcomeFailure,
	}
	if succeeded {
		o.Outcome = OutcomeSuccess
	}
	return o
}

func repeat(n int, action string, succeeded bool) []DecisionOutcome {
	out := make([]DecisionOutcome, n)
	for i := range out {
		out[i] = outcome(action, succeeded)
	}
	return out
}

func TestSucceeded_OutcomeTypeWins(t *testing.T) {
	assert.True(t, DecisionOutcome{Outcome: OutcomeSuccess, Success: false}.Succeeded())
	assert.False(t, DecisionOutcome{Outcome: OutcomeFailure, Success: true}.Succeeded())
	assert.True(t, DecisionOutcome{Outcome: OutcomePartial, Success: true}.Succeeded())
	assert.False(t, DecisionOutcome{Outcome: OutcomePartial, Success: false}.Succeeded())
	assert.False(t, DecisionOutcome{Outcome: OutcomeUnknown, Success: false}.Succeeded())
}

func TestStatistics_RatesAndRewards(t *testing.T) {
	r1, r2 := float32(0.8), float32(0.4)
	nan := float32(math.NaN())
	var stats OutcomeStatistics
	stats.observe(DecisionOutcome{Outcome: OutcomeSuccess, Reward: &r1})
	stats.observe(DecisionOutcome{Outcome: OutcomeSuccess, Reward: &r2})
	stats.observe(DecisionOutcome{Outcome: OutcomeFailure, Reward: &nan})
	stats.observe(DecisionOutcome{Outcome: OutcomeFailure})

	assert.Equal(t, 4, stats.Total)
	assert.InDelta(t, 0.5, stats.SuccessRate(), 1e-6)
	assert.InDelta(t, 0.5, stats.FailureRate(), 1e-6)
	assert.InDelta(t, 0.3, stats.AverageReward(), 1e-6)
}

func TestStatistics_EmptyGroupIsZero(t *testing.T) {
	var stats OutcomeStatistics
	assert.Zero(t, stats.SuccessRate())
	assert.Zero(t, stats.FailureRate())
	assert.Zero(t, stats.AverageReward())
}

func TestAggregateOutcomes_AbsentKeyGoesToUngrouped(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	outcomes := []DecisionOutcome{
		outcome("remind.morning", true),
		outcome("remind.morning", false),
		outcome("", true), // no action recorded
	}

	groups := a.AggregateOutcomes(outcomes, ByAction)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups["remind.morning"].Total)
	assert.Equal(t, 1, groups[UngroupedKey].Total)
}

func TestAggregateOutcomes_ByTrustLevel(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	outcomes := []DecisionOutcome{
		{Outcome: OutcomeSuccess, Context: json.RawMessage(`{"trust_level":"high"}`)},
		{Outcome: OutcomeSuccess, Context: json.RawMessage(`{"features":{"trust_level":"high"}}`)},
		{Outcome: OutcomeFailure, Context: json.RawMessage(`{"trust_level":2}`)},
		{Outcome: OutcomeFailure, Context: json.RawMessage(`{"other":true}`)},
		{Outcome: OutcomeFailure},
	}

	groups := a.AggregateOutcomes(outcomes, ByTrustLevel)
	assert.Equal(t, 2, groups["high"].Total)
	assert.Equal(t, 1, groups["2"].Total)
	assert.Equal(t, 2, groups[UngroupedKey].Total)
}

func TestAnalyzePatterns_BelowSampleFloorFindsNothing(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	patterns := a.AnalyzePatterns(repeat(19, "remind.morning", false))
	assert.Empty(t, patterns)
}

func TestAnalyzePatterns_RepeatedAndOverallFailure(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	outcomes := append(repeat(16, "remind.morning", false), repeat(4, "remind.morning", true)...)

	patterns := a.AnalyzePatterns(outcomes)
	names := patternNames(patterns)
	assert.Contains(t, names, "repeated_failure")
	assert.Contains(t, names, "overall_failure")
	for _, p := range patterns {
		if p.Name == "repeated_failure" {
			assert.Equal(t, 20, p.Samples)
			assert.InDelta(t, 0.8, p.Rate, 1e-6)
		}
	}
}

func TestAnalyzePatterns_HealthyOutcomesFindNothing(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	patterns := a.AnalyzePatterns(repeat(40, "remind.morning", true))
	assert.Empty(t, patterns)
}

func TestAnalyzePatterns_RecencyBias(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	// Older half succeeds on one action; the recent half concentrates on a
	// different, underperforming one.
	outcomes := repeat(15, "remind.a", true)
	outcomes = append(outcomes, repeat(5, "remind.b", true)...)
	outcomes = append(outcomes, repeat(10, "remind.b", false)...)

	patterns := a.AnalyzePatterns(outcomes)
	assert.Contains(t, patternNames(patterns), "recency_bias")
}

func TestAnalyzePatterns_TrustSkew(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	high := json.RawMessage(`{"trust_level":"high"}`)
	low := json.RawMessage(`{"trust_level":"low"}`)

	var outcomes []DecisionOutcome
	for i := 0; i < 10; i++ {
		outcomes = append(outcomes, DecisionOutcome{Outcome: OutcomeSuccess, Context: high})
	}
	for i := 0; i < 4; i++ {
		outcomes = append(outcomes, DecisionOutcome{Outcome: OutcomeSuccess, Context: low})
	}
	for i := 0; i < 6; i++ {
		outcomes = append(outcomes, DecisionOutcome{Outcome: OutcomeFailure, Context: low})
	}

	patterns := a.AnalyzePatterns(outcomes)
	names := patternNames(patterns)
	require.Contains(t, names, "trust_skew")
	assert.NotContains(t, names, "repeated_failure")
}

func TestProposeAdjustment_NilWhenHealthy(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Nil(t, a.ProposeAdjustment("p1", repeat(40, "remind.morning", true)))
}

func TestProposeAdjustment_NilBelowSampleFloor(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Nil(t, a.ProposeAdjustment("p1", repeat(19, "remind.morning", false)))
}

func TestProposeAdjustment_NilBelowConfidence(t *testing.T) {
	a := NewAnalyzer(Config{MinDecisions: 20, MinConfidence: 0.99, FailureThreshold: 0.5})
	assert.Nil(t, a.ProposeAdjustment("p1", repeat(40, "remind.morning", false)))
}

func TestProposeAdjustment_EmitsEpsilonDelta(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	outcomes := append(repeat(32, "remind.morning", false), repeat(8, "remind.morning", true)...)

	p := a.ProposeAdjustment("remind-bandit-v1", outcomes)
	require.NotNil(t, p)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, ProposalVersion, p.Version)
	assert.Equal(t, "remind-bandit-v1", p.PolicyID)
	assert.Equal(t, StatusProposed, p.Status)
	assert.GreaterOrEqual(t, p.Confidence, float32(0.6))
	assert.LessOrEqual(t, p.Confidence, float32(1.0))

	delta, ok := p.Deltas["epsilon"]
	require.True(t, ok, "expected an epsilon delta")
	assert.Equal(t, DeltaAbsolute, delta.Kind)
	assert.InDelta(t, -0.05, delta.Value, 1e-6)

	assert.Equal(t, 40, p.Evidence.DecisionsAnalyzed)
	assert.InDelta(t, 0.8, p.Evidence.FailureRate, 1e-6)
	assert.NotEmpty(t, p.Evidence.Patterns)
	assert.NotEmpty(t, p.Reasoning)
	assert.Nil(t, p.Evidence.FailureRateSimulated)
}

func TestProposeAdjustment_ConfidenceGrowsWithSamples(t *testing.T) {
	a := NewAnalyzer(Config{MinDecisions: 20, MinConfidence: 0, FailureThreshold: 0.5})

	small := a.ProposeAdjustment("p1", repeat(25, "remind.morning", false))
	large := a.ProposeAdjustment("p1", repeat(50, "remind.morning", false))
	require.NotNil(t, small)
	require.NotNil(t, large)
	assert.Greater(t, large.Confidence, small.Confidence)

	// Plateau: more samples beyond the plateau add no confidence.
	huge := a.ProposeAdjustment("p1", repeat(100, "remind.morning", false))
	require.NotNil(t, huge)
	assert.InDelta(t, float64(large.Confidence), float64(huge.Confidence), 1e-6)
}

func patternNames(patterns []Pattern) []string {
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		names = append(names, p.Name)
	}
	return names
}
