package ingest

import (
	"context"
	"log"
	"time"

	"github.com/danielpatrickdp/hearth/internal/event"
)

// #region adapter

// Page is one batch of events returned by a source adapter together with
// pagination metadata.
type Page struct {
	Events     []event.AussenEvent
	NextCursor *Cursor
	HasMore    bool
}

// Adapter produces ordered pages of events. Retries, backoff, and timeouts on
// the underlying transport are the adapter's concern; the state machine only
// judges whether a returned page is structurally trustworthy.
type Adapter interface {
	// Fetch returns the page at cursor. A nil cursor means the beginning.
	Fetch(ctx context.Context, cursor *Cursor) (Page, error)
	// Mode identifies the source family for state-file bookkeeping.
	Mode() Mode
}

// #endregion adapter

// #region phases

// Phase is the machine's current step, exposed for observability.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFetching Phase = "fetching"
	PhaseApplying Phase = "applying"
	PhaseFaulted  Phase = "faulted"
)

// #endregion phases

// #region machine

// BatchReport summarizes one successful RunBatch.
type BatchReport struct {
	// Events is the number of events counted in this batch.
	Events int
	// HasMore signals the adapter reported further pages.
	HasMore bool
	// Advanced is true when the cursor moved.
	Advanced bool
}

// Machine drives an Adapter and persists progress. Single-writer: the state
// file is the source of truth and must not be mutated by two machines at
// once. Faulted is not sticky; the next RunBatch fetches again from the last
// good cursor.
type Machine struct {
	statePath string
	statsPath string
	mode      Mode
	phase     Phase
}

// NewMachine creates a machine persisting to the given state and stats files.
func NewMachine(statePath, statsPath string, mode Mode) *Machine {
	return &Machine{statePath: statePath, statsPath: statsPath, mode: mode, phase: PhaseIdle}
}

// Phase returns the machine's current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Resume loads the persisted state for this machine's mode.
func (m *Machine) Resume() (IngestState, error) {
	return Resume(m.statePath, m.mode)
}

// #endregion machine

// #region run-batch

// RunBatch fetches the page at state.cursor, counts its events, validates the
// pagination contract, and persists the advanced state. On any failure the
// cursor is left unchanged and last_error is persisted, so no event is ever
// skipped because of a misbehaving source. Never retries internally.
func (m *Machine) RunBatch(ctx context.Context, st IngestState, adapter Adapter) (IngestState, BatchReport, error) {
	m.phase = PhaseFetching

	page, err := adapter.Fetch(ctx, st.Cursor)
	if err != nil {
		ie := sourceUnavailable(err)
		m.fault(&st, ie)
		return st, BatchReport{}, ie
	}

	m.phase = PhaseApplying

	stats, err := LoadStats(m.statsPath)
	if err != nil {
		log.Printf("[INGEST] stats unreadable, starting fresh: %v", err)
		stats = NewStats()
	}
	for _, ev := range page.Events {
		stats.Observe(ev)
	}
	stats.LastUpdated = time.Now().UTC()
	if err := stats.Save(m.statsPath); err != nil {
		ie := &IngestError{Kind: KindSourceUnavailable, Msg: "persist stats", Err: err}
		m.fault(&st, ie)
		return st, BatchReport{}, ie
	}
	log.Printf("[INGEST] processed %d events (mode=%s)", len(page.Events), m.mode)

	if ie := validatePage(st.Cursor, page); ie != nil {
		m.fault(&st, ie)
		return st, BatchReport{}, ie
	}

	report := BatchReport{Events: len(page.Events), HasMore: page.HasMore}
	if page.NextCursor != nil && (st.Cursor == nil || !page.NextCursor.Equal(*st.Cursor)) {
		st.Cursor = page.NextCursor
		report.Advanced = true
	}

	now := time.Now().UTC()
	st.Mode = m.mode
	st.LastOK = &now
	st.LastError = nil
	if err := st.Save(m.statePath); err != nil {
		ie := &IngestError{Kind: KindSourceUnavailable, Msg: "persist state", Err: err}
		m.phase = PhaseFaulted
		return st, BatchReport{}, ie
	}

	if report.Advanced {
		log.Printf("[INGEST] cursor advanced to %s", st.Cursor)
	}
	m.phase = PhaseIdle
	return st, report, nil
}

// validatePage applies the protocol hardening checks from the pagination
// contract. Evaluated before any cursor movement.
func validatePage(current *Cursor, page Page) *IngestError {
	if page.HasMore && page.NextCursor == nil {
		return protocolViolation("missing next_cursor with has_more=true")
	}
	if page.NextCursor == nil || current == nil {
		return nil
	}
	if page.HasMore && page.NextCursor.Equal(*current) {
		return protocolViolation("cursor stalled at %s with has_more=true", current)
	}
	if page.NextCursor.Kind != current.Kind {
		return protocolViolation("cursor kind changed from %s to %s", current.Kind, page.NextCursor.Kind)
	}
	if behind, ordered := page.NextCursor.Behind(*current); ordered && behind {
		return protocolViolation("cursor rewound from %s to %s", current, page.NextCursor)
	}
	return nil
}

// fault persists the failure with the cursor unchanged. last_ok is preserved
// so operators can see when the source last behaved.
func (m *Machine) fault(st *IngestState, ie *IngestError) {
	m.phase = PhaseFaulted
	log.Printf("[INGEST] batch failed: %v", ie)

	st.Mode = m.mode
	st.LastError = &ErrorRecord{Kind: ie.Kind, Message: ie.Error(), At: time.Now().UTC()}
	if err := st.Save(m.statePath); err != nil {
		log.Printf("[INGEST] CRITICAL: failed to persist error state to %s: %v", m.statePath, err)
	}
}

// #endregion run-batch
