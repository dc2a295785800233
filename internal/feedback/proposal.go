package feedback

// #region deltas

// DeltaKind tags how a delta value is applied.
type DeltaKind string

const (
	// DeltaAbsolute is added to the parameter as-is.
	DeltaAbsolute DeltaKind = "absolute"
	// DeltaRelative scales the parameter; Unit names the scale (e.g. "percent").
	DeltaRelative DeltaKind = "relative"
)

// DeltaValue is one proposed parameter adjustment.
type DeltaValue struct {
	Kind  DeltaKind `json:"kind"`
	Value float32   `json:"value"`
	Unit  string    `json:"unit,omitempty"`
}

// #endregion deltas

// #region evidence

// Pattern is one detected statistical pattern with the evidence that
// triggered it.
type Pattern struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Samples     int     `json:"samples"`
	Rate        float32 `json:"rate"`
}

// Evidence backs a proposal with the numbers it was derived from.
type Evidence struct {
	DecisionsAnalyzed    int       `json:"decisions_analyzed"`
	FailureRate          float32   `json:"failure_rate"`
	FailureRateSimulated *float32  `json:"failure_rate_simulated,omitempty"`
	SimulationMethod     string    `json:"simulation_method,omitempty"`
	Patterns             []Pattern `json:"patterns"`
}

// #endregion evidence

// #region proposal

// ProposalStatus tracks the approval lifecycle. Only the external approver
// transitions a proposal out of proposed.
type ProposalStatus string

const (
	StatusProposed   ProposalStatus = "proposed"
	StatusAccepted   ProposalStatus = "accepted"
	StatusRejected   ProposalStatus = "rejected"
	StatusSuperseded ProposalStatus = "superseded"
)

// ProposalVersion is the current proposal contract version.
const ProposalVersion = "1"

// WeightAdjustmentProposal is a non-binding, evidence-backed suggestion to
// adjust policy parameters. status is the only externally-writable field
// after creation.
type WeightAdjustmentProposal struct {
	ID         string                `json:"id"`
	Version    string                `json:"version"`
	PolicyID   string                `json:"policy_id"`
	TS         string                `json:"ts"`
	Deltas     map[string]DeltaValue `json:"deltas"`
	Confidence float32               `json:"confidence"`
	Evidence   Evidence              `json:"evidence"`
	Reasoning  []string              `json:"reasoning,omitempty"`
	Status     ProposalStatus        `json:"status"`
}

// #endregion proposal
