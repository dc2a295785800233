// Package journal persists decision outcomes in SQLite so the feedback
// analyzer can work over history that outlives a single process run.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/hearth/internal/feedback"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS decision_outcomes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	decision_id   TEXT NOT NULL,
	policy_id     TEXT,
	action        TEXT,
	outcome       TEXT NOT NULL,
	success       INTEGER NOT NULL,
	reward        REAL,
	ts            TEXT NOT NULL,
	context_json  TEXT,
	metadata_json TEXT,
	created_at    TEXT NOT NULL
);
`

const schemaIndex = `
CREATE INDEX IF NOT EXISTS idx_decision_outcomes_policy
ON decision_outcomes(policy_id, id);
`

// #endregion schema

// #region journal

// Journal is an append-only outcome store. Single-writer, like the rest of
// the pipeline.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(schemaIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// #endregion journal

// #region record

// Record appends one outcome row.
func (j *Journal) Record(o feedback.DecisionOutcome) error {
	success := 0
	if o.Success {
		success = 1
	}

	var reward any
	if o.Reward != nil {
		reward = float64(*o.Reward)
	}
	var policyID, action, contextJSON, metadataJSON any
	if o.PolicyID != "" {
		policyID = o.PolicyID
	}
	if o.Action != "" {
		action = o.Action
	}
	if len(o.Context) > 0 {
		contextJSON = string(o.Context)
	}
	if len(o.Metadata) > 0 {
		metadataJSON = string(o.Metadata)
	}

	_, err := j.db.Exec(`
		INSERT INTO decision_outcomes
		(decision_id, policy_id, action, outcome, success, reward, ts, context_json, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.DecisionID,
		policyID,
		action,
		string(o.Outcome),
		success,
		reward,
		o.TS,
		contextJSON,
		metadataJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// #endregion record

// #region list

// ListByPolicy returns outcomes for a policy in insertion order, which the
// analyzer's recency detector relies on. limit <= 0 returns everything.
func (j *Journal) ListByPolicy(policyID string, limit int) ([]feedback.DecisionOutcome, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT decision_id, policy_id, action, outcome, success, reward, ts, context_json, metadata_json
		FROM decision_outcomes
		WHERE policy_id = ?
		ORDER BY id ASC
		LIMIT ?`,
		policyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []feedback.DecisionOutcome
	for rows.Next() {
		var o feedback.DecisionOutcome
		var policy, action, contextJSON, metadataJSON sql.NullString
		var outcome string
		var success int
		var reward sql.NullFloat64

		if err := rows.Scan(&o.DecisionID, &policy, &action, &outcome, &success, &reward, &o.TS, &contextJSON, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.PolicyID = policy.String
		o.Action = action.String
		o.Outcome = feedback.OutcomeType(outcome)
		o.Success = success != 0
		if reward.Valid {
			r := float32(reward.Float64)
			o.Reward = &r
		}
		if contextJSON.Valid {
			o.Context = []byte(contextJSON.String)
		}
		if metadataJSON.Valid {
			o.Metadata = []byte(metadataJSON.String)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Count returns the number of recorded outcomes for a policy.
func (j *Journal) Count(policyID string) (int, error) {
	var n int
	err := j.db.QueryRow(
		`SELECT COUNT(*) FROM decision_outcomes WHERE policy_id = ?`, policyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outcomes: %w", err)
	}
	return n, nil
}

// #endregion list
