package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/hearth/internal/event"
	"github.com/danielpatrickdp/hearth/internal/ingest"
)

// #region env

const (
	EnvBaseURL = "HEARTH_BASE_URL"
	EnvAPIURL  = "HEARTH_API_URL"
	EnvToken   = "HEARTH_TOKEN"
)

// #endregion env

// #region wire-types

// eventEnvelope is one entry of the remote events response.
type eventEnvelope struct {
	Type    string            `json:"type,omitempty"`
	Payload event.AussenEvent `json:"payload"`
}

type batchMeta struct {
	Count       *uint32 `json:"count,omitempty"`
	GeneratedAt string  `json:"generated_at,omitempty"`
}

// eventsResponse is the remote pagination contract. next_cursor is null at
// EOF, which is legal only together with has_more=false; the state machine
// enforces that.
type eventsResponse struct {
	Events     []eventEnvelope `json:"events"`
	NextCursor *uint64         `json:"next_cursor"`
	HasMore    bool            `json:"has_more"`
	Meta       *batchMeta      `json:"meta,omitempty"`
}

// #endregion wire-types

// #region remote-source

// Doer abstracts the HTTP client so tests can inject a fake transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteSource fetches paginated events from the remote event service. The
// cursor is an opaque server-assigned token echoed back verbatim.
type RemoteSource struct {
	eventsURL *url.URL
	token     string
	domain    string
	limit     uint32
	client    Doer
}

// NewRemoteSource builds an adapter against base, authenticating with token
// and filtering to the given event domain.
func NewRemoteSource(base, token, domain string, limit uint32) (*RemoteSource, error) {
	if !event.ValidDomain(domain) {
		return nil, fmt.Errorf("invalid event domain %q", domain)
	}
	u, err := BuildEventsURL(base)
	if err != nil {
		return nil, err
	}
	return &RemoteSource{
		eventsURL: u,
		token:     token,
		domain:    domain,
		limit:     limit,
		client:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// NewRemoteSourceWithClient creates a RemoteSource with an injected HTTP
// client. Used for testing without a live service.
func NewRemoteSourceWithClient(base, token, domain string, limit uint32, client Doer) (*RemoteSource, error) {
	s, err := NewRemoteSource(base, token, domain, limit)
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

// NewRemoteSourceFromEnv reads base URL and token from HEARTH_BASE_URL
// (HEARTH_API_URL as fallback) and HEARTH_TOKEN.
func NewRemoteSourceFromEnv(domain string, limit uint32) (*RemoteSource, error) {
	base := os.Getenv(EnvBaseURL)
	if base == "" {
		base = os.Getenv(EnvAPIURL)
	}
	if base == "" {
		return nil, fmt.Errorf("%s or %s env var is required", EnvBaseURL, EnvAPIURL)
	}
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, fmt.Errorf("%s env var is required", EnvToken)
	}
	return NewRemoteSource(base, token, domain, limit)
}

// Mode identifies this adapter as the remote source family.
func (s *RemoteSource) Mode() ingest.Mode { return ingest.ModeRemote }

// #endregion remote-source

// #region url-building

// BuildEventsURL normalizes a configured base URL into the /v1/events
// endpoint. Accepts bare hosts, hosts with path prefixes, and bases that
// already include /v1 or /v1/events.
func BuildEventsURL(base string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", base)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		segments = nil
	}

	n := len(segments)
	switch {
	case n >= 2 && segments[n-2] == "v1" && segments[n-1] == "events":
		segments = segments[:n-2]
	case n >= 1 && segments[n-1] == "v1":
		segments = segments[:n-1]
	}
	segments = append(segments, "v1", "events")

	u.Path = "/" + strings.Join(segments, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// #endregion url-building

// #region fetch

// Fetch requests one page at cursor. Transport and decode failures surface as
// plain errors; the state machine classifies them as transient.
func (s *RemoteSource) Fetch(ctx context.Context, cursor *ingest.Cursor) (ingest.Page, error) {
	q := url.Values{}
	q.Set("domain", s.domain)
	q.Set("limit", strconv.FormatUint(uint64(s.limit), 10))
	if cursor != nil {
		if cursor.Kind != ingest.KindOpaqueToken {
			return ingest.Page{}, fmt.Errorf("remote source requires an %s cursor, got %s", ingest.KindOpaqueToken, cursor.Kind)
		}
		q.Set("cursor", strconv.FormatUint(cursor.Value, 10))
	}

	target := *s.eventsURL
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return ingest.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Auth", s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ingest.Page{}, fmt.Errorf("fetch %s: %w", target.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ingest.Page{}, fmt.Errorf("fetch %s: unexpected status %d", target.String(), resp.StatusCode)
	}

	var body eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ingest.Page{}, fmt.Errorf("decode events response: %w", err)
	}

	page := ingest.Page{HasMore: body.HasMore}
	for _, env := range body.Events {
		page.Events = append(page.Events, env.Payload)
	}
	if body.NextCursor != nil {
		c := ingest.OpaqueToken(*body.NextCursor)
		page.NextCursor = &c
	}
	return page, nil
}

// #endregion fetch
