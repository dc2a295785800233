// Package policy defines the contract between decision engines and their
// callers. Concrete engines live in their own packages (e.g. bandit).
package policy

import "encoding/json"

// #region context

// Context carries the information a policy uses to make a decision.
type Context struct {
	// Kind categorizes the context (e.g. "reminder", "routine").
	Kind string `json:"kind"`
	// Features holds arbitrary structured attributes.
	Features json.RawMessage `json:"features"`
}

// JSON serializes the context for embedding in a Decision. Returns nil if the
// context cannot be serialized; decisions still carry action and why.
func (c Context) JSON() json.RawMessage {
	b, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return b
}

// #endregion context

// #region decision

// Decision is a policy's answer to a Context. Produced fresh on every Decide
// call and never retained by the engine.
type Decision struct {
	// ID identifies the decision so that outcomes can refer back to it.
	// Assigned at the caller boundary, not by the engine.
	ID string `json:"decision_id,omitempty"`
	// Action is the chosen action, typically a prefixed slot name.
	Action string `json:"action"`
	// Score is the engine's value estimate for the action, 0.0..1.0.
	Score float32 `json:"score"`
	// Why records which branch of the engine fired ("explore ε", "exploit").
	// Stable tags; downstream tooling matches on them.
	Why string `json:"why"`
	// Context echoes the serialized input context for logging and debugging.
	Context json.RawMessage `json:"context,omitempty"`
}

// #endregion decision

// #region policy-interface

// Policy is the interface every decision engine implements.
type Policy interface {
	// Decide chooses an action for the given context. Never fails: a
	// degenerate configuration yields a fallback decision.
	Decide(ctx Context) Decision

	// Feedback reports the reward observed for a previously decided action.
	// Actions the engine does not recognize are ignored.
	Feedback(ctx Context, action string, reward float32)
}

// #endregion policy-interface
