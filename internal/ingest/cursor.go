// Package ingest drives event consumption from a source adapter: it resumes
// from persisted state, validates each returned page, counts events, and
// advances a cursor exactly once per position.
package ingest

import "fmt"

// #region mode

// Mode selects which source family a state file belongs to.
type Mode string

const (
	// ModeFile ingests from a local line-delimited JSON file.
	ModeFile Mode = "file"
	// ModeRemote ingests from the paginated remote event service.
	ModeRemote Mode = "remote"
)

// #endregion mode

// #region cursor

// CursorKind distinguishes the two cursor variants. They carry different
// comparison semantics and must not be conflated.
type CursorKind string

const (
	// KindLineOffset is a zero-based line position in a local file.
	// Ordered: compared numerically.
	KindLineOffset CursorKind = "line_offset"
	// KindOpaqueToken is a server-assigned pagination token. Compared only
	// for equality; no ordering is assumed.
	KindOpaqueToken CursorKind = "opaque_token"
)

// Cursor is an ingest position marker. Once advanced it is never rewound
// except by explicit operator override.
type Cursor struct {
	Kind  CursorKind `json:"kind"`
	Value uint64     `json:"value"`
}

// LineOffset builds a file-mode cursor.
func LineOffset(n uint64) Cursor {
	return Cursor{Kind: KindLineOffset, Value: n}
}

// OpaqueToken builds a remote-mode cursor.
func OpaqueToken(n uint64) Cursor {
	return Cursor{Kind: KindOpaqueToken, Value: n}
}

// Equal reports whether two cursors mark the same position. Valid for both
// kinds; this is the only comparison opaque tokens support.
func (c Cursor) Equal(o Cursor) bool {
	return c.Kind == o.Kind && c.Value == o.Value
}

// Behind reports whether c is ordered before o. ok is false when the cursors
// are not orderable (opaque tokens or mixed kinds).
func (c Cursor) Behind(o Cursor) (behind, ok bool) {
	if c.Kind != KindLineOffset || o.Kind != KindLineOffset {
		return false, false
	}
	return c.Value < o.Value, true
}

func (c Cursor) String() string {
	return fmt.Sprintf("%s:%d", c.Kind, c.Value)
}

// KindForMode returns the cursor kind a mode's adapter produces.
func KindForMode(m Mode) CursorKind {
	if m == ModeRemote {
		return KindOpaqueToken
	}
	return KindLineOffset
}

// #endregion cursor
