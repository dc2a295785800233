// Package source provides the event source adapters consumed by the ingest
// state machine: a file-backed reader for local replays and a paginated
// remote reader for the live event service.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/hearth/internal/event"
	"github.com/danielpatrickdp/hearth/internal/ingest"
)

// #region file-source

// FileSource reads line-delimited JSON events from a local file. The cursor
// is the zero-based line offset; blank lines are skipped but still advance
// the offset. One Fetch drains the file, so pages never report has_more.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed adapter.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Mode identifies this adapter as the file source family.
func (s *FileSource) Mode() ingest.Mode { return ingest.ModeFile }

// Fetch reads all events at and after the cursor's line offset.
func (s *FileSource) Fetch(_ context.Context, cursor *ingest.Cursor) (ingest.Page, error) {
	offset := uint64(0)
	if cursor != nil {
		if cursor.Kind != ingest.KindLineOffset {
			return ingest.Page{}, fmt.Errorf("file source requires a %s cursor, got %s", ingest.KindLineOffset, cursor.Kind)
		}
		offset = cursor.Value
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return ingest.Page{}, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var events []event.AussenEvent
	var linesRead uint64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var idx uint64
	for scanner.Scan() {
		line := scanner.Text()
		if idx < offset {
			idx++
			continue
		}
		idx++
		linesRead++
		if strings.TrimSpace(line) == "" {
			continue
		}
		var ev event.AussenEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return ingest.Page{}, fmt.Errorf("parse event at line %d: %w", idx-1, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return ingest.Page{}, fmt.Errorf("read input file: %w", err)
	}

	next := ingest.LineOffset(offset + linesRead)
	return ingest.Page{Events: events, NextCursor: &next, HasMore: false}, nil
}

// #endregion file-source
