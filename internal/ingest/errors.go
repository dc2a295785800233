package ingest

import (
	"errors"
	"fmt"
)

// #region error-kind

// ErrorKind classifies ingest failures for state recording and exit codes.
type ErrorKind string

const (
	// KindSourceUnavailable marks a transient adapter failure (network,
	// parse). The caller may retry with the unchanged cursor.
	KindSourceUnavailable ErrorKind = "source_unavailable"
	// KindProtocolViolation marks a structurally untrustworthy page from the
	// source. Fatal for the batch; the cursor is never advanced past it.
	KindProtocolViolation ErrorKind = "protocol_violation"
)

// #endregion error-kind

// #region ingest-error

// IngestError is the typed failure returned by RunBatch.
type IngestError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *IngestError) Unwrap() error { return e.Err }

func protocolViolation(format string, args ...any) *IngestError {
	return &IngestError{Kind: KindProtocolViolation, Msg: fmt.Sprintf(format, args...)}
}

func sourceUnavailable(err error) *IngestError {
	return &IngestError{Kind: KindSourceUnavailable, Msg: "adapter fetch failed", Err: err}
}

// IsProtocolViolation reports whether err carries a protocol violation.
func IsProtocolViolation(err error) bool {
	var ie *IngestError
	return errors.As(err, &ie) && ie.Kind == KindProtocolViolation
}

// IsSourceUnavailable reports whether err is a transient source failure.
func IsSourceUnavailable(err error) bool {
	var ie *IngestError
	return errors.As(err, &ie) && ie.Kind == KindSourceUnavailable
}

// #endregion ingest-error
