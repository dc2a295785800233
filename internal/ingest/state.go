package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// #region error-record

// ErrorRecord is the persisted form of the last batch failure.
type ErrorRecord struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// #endregion error-record

// #region ingest-state

// IngestState is the durable progress record, one file per (domain, mode).
// Owned exclusively by the state machine; never deleted automatically.
type IngestState struct {
	Cursor    *Cursor      `json:"cursor"`
	Mode      Mode         `json:"mode"`
	LastOK    *time.Time   `json:"last_ok"`
	LastError *ErrorRecord `json:"last_error"`
}

// Resume loads persisted state from path. A missing file yields the default
// state (nil cursor: start from the beginning). A state file written by a
// different mode is an error, not a silent cursor reuse.
func Resume(path string, mode Mode) (IngestState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return IngestState{Mode: mode}, nil
	}
	if err != nil {
		return IngestState{}, fmt.Errorf("read state %s: %w", path, err)
	}

	var st IngestState
	if err := json.Unmarshal(data, &st); err != nil {
		return IngestState{}, fmt.Errorf("parse state %s: %w", path, err)
	}
	if st.Mode != mode {
		return IngestState{}, fmt.Errorf("state file %s is mode %q, expected %q", path, st.Mode, mode)
	}
	return st, nil
}

// Save writes the state atomically (temp file + rename) so a crash mid-write
// never leaves a torn state behind.
func (s IngestState) Save(path string) error {
	return writeJSONAtomic(path, s)
}

// #endregion ingest-state

// #region atomic-write

func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// #endregion atomic-write
