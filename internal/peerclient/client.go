package peerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/correlation"
	"example.com/clinichub/services/appointment/internal/metrics"
)

// DefaultCooldown is how long an origin stays gated after a failure.
const DefaultCooldown = 30 * time.Second

// ErrCoolingDown is returned by Do when the target origin is inside its
// cooldown window and the call was short-circuited.
var ErrCoolingDown = errors.New("peer origin is cooling down")

// Client issues HTTP calls to sibling service instances and collaborator
// services. A failing call gates the whole origin (scheme+host[:port]) for
// the cooldown window; no network attempt is made against a gated origin.
type Client struct {
	httpClient *http.Client
	health     HealthStore
	cooldown   time.Duration
	collector  *metrics.Metrics
	now        func() time.Time
}

// NewClient creates a peer client. The health store must be shared by every
// caller that talks to the same set of origins.
func NewClient(health HealthStore, timeout time.Duration, collector *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		health:     health,
		cooldown:   DefaultCooldown,
		collector:  collector,
		now:        time.Now,
	}
}

// WithCooldown overrides the cooldown window.
func (c *Client) WithCooldown(d time.Duration) *Client {
	if d > 0 {
		c.cooldown = d
	}
	return c
}

// Origin extracts scheme+host[:port] from a URL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid peer URL")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("peer URL %q has no origin", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Do performs an HTTP request against a peer, honoring the per-origin
// cooldown gate. The correlation id from the context is forwarded on the
// request. A gated origin returns (nil, ErrCoolingDown) without touching
// the network; a failed call records the failure time for the origin and
// returns the error.
func (c *Client) Do(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	origin, err := Origin(rawURL)
	if err != nil {
		return nil, err
	}

	if lastFailure, ok := c.health.LastFailure(origin); ok {
		if c.now().Before(lastFailure.Add(c.cooldown)) {
			if c.collector != nil {
				c.collector.IncrementCounter(metrics.PeerCallsShortCircuit)
			}
			log.Debug().Str("origin", origin).Msg("Peer call short-circuited during cooldown")
			return nil, ErrCoolingDown
		}
		// Cooldown elapsed; forget the failure and probe again.
		c.health.ClearFailure(origin)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build peer request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id, ok := correlation.FromContext(ctx); ok {
		req.Header.Set(correlation.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.health.MarkFailure(origin, c.now())
		if c.collector != nil {
			c.collector.IncrementCounter(metrics.PeerCallFailures)
		}
		log.Warn().Err(err).Str("origin", origin).Msg("Peer call failed, origin gated")
		return nil, errors.Wrap(err, "peer call failed")
	}

	return resp, nil
}

// GetJSON performs a GET and decodes the response body into out. It returns
// (false, nil) when the peer has no data for the request: a 404 response or
// a short-circuited origin both count as "no result" so callers can continue
// their fallback chain.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out interface{}) (bool, error) {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		if errors.Is(err, ErrCoolingDown) {
			return false, nil
		}
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		// A peer answering with server errors is as unhealthy as one that is
		// unreachable; gate the origin so the cooldown covers it too.
		c.markOriginFailure(rawURL, resp.StatusCode)
		return false, errors.Errorf("peer returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return false, errors.Errorf("peer returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errors.Wrap(err, "failed to decode peer response")
	}
	return true, nil
}

func (c *Client) markOriginFailure(rawURL string, status int) {
	origin, err := Origin(rawURL)
	if err != nil {
		return
	}
	c.health.MarkFailure(origin, c.now())
	if c.collector != nil {
		c.collector.IncrementCounter(metrics.PeerCallFailures)
	}
	log.Warn().Int("status", status).Str("origin", origin).Msg("Peer returned server error, origin gated")
}

// GetResource fetches GET {base}/internal/{resource}/{id}.
func (c *Client) GetResource(ctx context.Context, baseURL, resource, id string, out interface{}) (bool, error) {
	return c.GetJSON(ctx, joinURL(baseURL, "internal", resource, id), out)
}

// GetResourceByUsername fetches GET {base}/internal/{resource}/by-username/{name}.
func (c *Client) GetResourceByUsername(ctx context.Context, baseURL, resource, name string, out interface{}) (bool, error) {
	return c.GetJSON(ctx, joinURL(baseURL, "internal", resource, "by-username", name), out)
}

// Authenticate posts credentials to the auth collaborator's internal
// endpoint and decodes the token response into out.
func (c *Client) Authenticate(ctx context.Context, baseURL string, credentials interface{}, out interface{}) (bool, error) {
	payload, err := json.Marshal(credentials)
	if err != nil {
		return false, errors.Wrap(err, "failed to marshal credentials")
	}

	resp, err := c.Do(ctx, http.MethodPost, joinURL(baseURL, "internal", "auth", "authenticate"), bytes.NewReader(payload))
	if err != nil {
		if errors.Is(err, ErrCoolingDown) {
			return false, nil
		}
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, errors.Errorf("authentication failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errors.Wrap(err, "failed to decode auth response")
	}
	return true, nil
}

func joinURL(base string, parts ...string) string {
	joined := strings.TrimRight(base, "/")
	for _, p := range parts {
		joined += "/" + url.PathEscape(p)
	}
	return joined
}

// String implements fmt.Stringer for log output.
func (c *Client) String() string {
	return fmt.Sprintf("peerclient(cooldown=%s)", c.cooldown)
}
