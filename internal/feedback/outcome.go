// Package feedback turns batches of decision outcomes into evidence-backed
// weight adjustment proposals. It analyzes and proposes, never modifies live
// weights; the only output is a proposed-status document for an external
// approver. All functions are pure over their inputs.
package feedback

import (
	"encoding/json"
	"fmt"
	"math"
)

// #region outcome-type

// OutcomeType classifies how a decision played out.
type OutcomeType string

const (
	OutcomeSuccess OutcomeType = "success"
	OutcomeFailure OutcomeType = "failure"
	OutcomePartial OutcomeType = "partial"
	OutcomeUnknown OutcomeType = "unknown"
)

// DecisionOutcome is the recorded result of one decision, supplied by the
// external execution system. Immutable input to the analyzer.
type DecisionOutcome struct {
	DecisionID string          `json:"decision_id"`
	TS         string          `json:"ts"`
	PolicyID   string          `json:"policy_id,omitempty"`
	Action     string          `json:"action,omitempty"`
	Outcome    OutcomeType     `json:"outcome"`
	Success    bool            `json:"success"`
	Reward     *float32        `json:"reward,omitempty"`
	Context    json.RawMessage `json:"context,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// Succeeded resolves the outcome classification: the outcome type wins for
// success/failure; the boolean drives partial and unknown.
func (o DecisionOutcome) Succeeded() bool {
	switch o.Outcome {
	case OutcomeSuccess:
		return true
	case OutcomeFailure:
		return false
	default:
		return o.Success
	}
}

// trustLevel extracts a trust_level attribute from the outcome context,
// either top-level or nested under features. Accepts strings and numbers.
func (o DecisionOutcome) trustLevel() (string, bool) {
	if len(o.Context) == 0 {
		return "", false
	}
	var ctx struct {
		TrustLevel json.RawMessage `json:"trust_level"`
		Features   struct {
			TrustLevel json.RawMessage `json:"trust_level"`
		} `json:"features"`
	}
	if err := json.Unmarshal(o.Context, &ctx); err != nil {
		return "", false
	}
	raw := ctx.TrustLevel
	if len(raw) == 0 {
		raw = ctx.Features.TrustLevel
	}
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%g", n), true
	}
	return "", false
}

// #endregion outcome-type

// #region statistics

// OutcomeStatistics aggregates a group of outcomes.
type OutcomeStatistics struct {
	Total       int     `json:"total"`
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	TotalReward float32 `json:"total_reward"`
}

func (s *OutcomeStatistics) observe(o DecisionOutcome) {
	s.Total++
	if o.Succeeded() {
		s.Successes++
	} else {
		s.Failures++
	}
	if o.Reward != nil && !math.IsNaN(float64(*o.Reward)) && !math.IsInf(float64(*o.Reward), 0) {
		s.TotalReward += *o.Reward
	}
}

// SuccessRate is successes/total, 0.0 for an empty group.
func (s OutcomeStatistics) SuccessRate() float32 {
	if s.Total == 0 {
		return 0.0
	}
	return float32(s.Successes) / float32(s.Total)
}

// FailureRate is 1 - SuccessRate, 0.0 for an empty group.
func (s OutcomeStatistics) FailureRate() float32 {
	if s.Total == 0 {
		return 0.0
	}
	return 1.0 - s.SuccessRate()
}

// AverageReward is the mean recorded reward, 0.0 for an empty group.
func (s OutcomeStatistics) AverageReward() float32 {
	if s.Total == 0 {
		return 0.0
	}
	return s.TotalReward / float32(s.Total)
}

// #endregion statistics
