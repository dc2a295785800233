// Package event defines the normalized external event format shared by all
// ingest sources.
package event

import "encoding/json"

// #region aussen-event

// AussenEvent is a normalized external event as delivered by a sensor feed,
// webhook, or the remote event service. Compatible with the
// aussen.event JSON contract. Immutable once read.
type AussenEvent struct {
	// ID is an optional unique identifier, typically a UUID.
	ID string `json:"id,omitempty"`
	// Type categorizes the event (e.g. "sensor.reading", "user.interaction").
	Type string `json:"type"`
	// Source names the producing system (e.g. "haus-automation", "user-app").
	Source string `json:"source"`
	// Title is an optional human-readable label.
	Title string `json:"title,omitempty"`
	// Summary is an optional short description.
	Summary string `json:"summary,omitempty"`
	// URL points at further information about the event.
	URL string `json:"url,omitempty"`
	// Tags support categorization and filtering.
	Tags []string `json:"tags,omitempty"`
	// TS is an ISO-8601 timestamp of when the event occurred.
	TS string `json:"ts,omitempty"`
	// Features carries structured data relevant to policy decisions.
	Features map[string]json.RawMessage `json:"features,omitempty"`
	// Meta carries data useful for logging or debugging only.
	Meta map[string]json.RawMessage `json:"meta,omitempty"`
}

// #endregion aussen-event

// #region domain-validation

// ValidDomain reports whether s is a valid event namespace identifier
// (e.g. "aussen", "sensor.v1"). Single-label identifiers are valid;
// the rules mirror DNS hostname labels but apply to event routing names:
// dot-separated labels of 1-63 ASCII alphanumeric/hyphen chars, 253 total,
// no leading/trailing hyphens or dots, no whitespace, no Unicode.
func ValidDomain(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	if s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}

	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '.' {
			continue
		}
		label := s[start:i]
		start = i + 1

		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !isAlnum(label[0]) || !isAlnum(label[len(label)-1]) {
			return false
		}
		for j := 0; j < len(label); j++ {
			if !isAlnum(label[j]) && label[j] != '-' {
				return false
			}
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// #endregion domain-validation
