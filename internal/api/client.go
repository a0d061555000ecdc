package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/SultokTheF/uiren-mobile/internal/auth"
	"github.com/SultokTheF/uiren-mobile/internal/logger"
	"github.com/SultokTheF/uiren-mobile/internal/metrics"
	"github.com/SultokTheF/uiren-mobile/internal/session"
)

const (
	refreshPath = "user/token/refresh/"

	// Refresh ahead of expiry to avoid a guaranteed 401 round-trip.
	proactiveRefreshWindow = 30 * time.Second
)

// Doer is the request surface services depend on.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body interface{}, out interface{}) error
}

// Response is a successful (2xx) backend reply.
type Response struct {
	Status int
	Body   []byte
}

type Options struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// Client issues requests against the backend with transparent bearer-token
// attachment and a single refresh-and-retry on 401. Refreshes are
// single-flight: concurrent 401s trigger exactly one call to the refresh
// endpoint.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions session.Store
	limiter  *rate.Limiter
	timeout  time.Duration
	refresh  singleflight.Group
}

func New(baseURL string, sessions session.Store, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}

	// The per-request context deadline is the single timeout authority, so
	// ErrTimeout and NetworkError stay distinguishable.
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		sessions: sessions,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		timeout:  opts.Timeout,
	}
}

// Do issues one logical request. At most one refresh-and-retry happens per
// call: a 401 after the retry is returned as an HTTPError, never looped.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, query url.Values) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Err: err}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if token != "" && auth.ExpiresWithin(token, proactiveRefreshWindow) {
		// Best effort only; on failure the stale token goes out and the 401
		// path below remains authoritative.
		if fresh, err := c.refreshAccessToken(ctx); err == nil {
			token = fresh
		}
	}

	start := time.Now()
	resp, err := c.send(ctx, method, path, payload, query, token)
	if err != nil {
		metrics.RecordAPIRequest(method, path, errorLabel(err), time.Since(start).Seconds())
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized {
		fresh, refreshErr := c.freshAccessToken(ctx, token)
		if refreshErr != nil {
			metrics.RecordAPIRequest(method, path, errorLabel(refreshErr), time.Since(start).Seconds())
			return nil, refreshErr
		}

		resp, err = c.send(ctx, method, path, payload, query, fresh)
		if err != nil {
			metrics.RecordAPIRequest(method, path, errorLabel(err), time.Since(start).Seconds())
			return nil, err
		}
	}

	metrics.RecordAPIRequest(method, path, strconv.Itoa(resp.Status), time.Since(start).Seconds())

	if resp.Status < 200 || resp.Status > 299 {
		return nil, &HTTPError{Status: resp.Status, Body: resp.Body}
	}

	return resp, nil
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, query)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
// A nil out discards the response body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *Response, out interface{}) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs one HTTP exchange with a bounded timeout. It never inspects
// the status code; retry policy lives in Do.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, query url.Values, token string) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// freshAccessToken returns a token newer than the one that just got a 401.
// If another request already refreshed, the stored token is reused instead of
// hitting the refresh endpoint again.
func (c *Client) freshAccessToken(ctx context.Context, rejected string) (string, error) {
	current, err := c.sessions.AccessToken(ctx)
	if err == nil && current != "" && current != rejected {
		return current, nil
	}
	return c.refreshAccessToken(ctx)
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers share one in-flight exchange and its result.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("token-refresh", func() (interface{}, error) {
		refreshToken, err := c.sessions.RefreshToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read refresh token: %w", err)
		}
		if refreshToken == "" {
			metrics.RecordTokenRefresh("no_token")
			return nil, ErrNoRefreshToken
		}

		payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
		if err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, http.MethodPost, refreshPath, payload, nil, "")
		if err != nil {
			metrics.RecordTokenRefresh("failure")
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		if resp.Status < 200 || resp.Status > 299 {
			metrics.RecordTokenRefresh("failure")
			logger.Errorf("Token refresh rejected with status %d", resp.Status)
			return nil, ErrSessionExpired
		}

		var tokens struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(resp.Body, &tokens); err != nil || tokens.Access == "" {
			metrics.RecordTokenRefresh("failure")
			return nil, ErrSessionExpired
		}

		if err := c.sessions.SetAccessToken(ctx, tokens.Access); err != nil {
			return nil, fmt.Errorf("failed to store refreshed token: %w", err)
		}

		metrics.RecordTokenRefresh("success")
		logger.Debug("Access token refreshed")
		return tokens.Access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNoRefreshToken):
		return "no_refresh_token"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	default:
		return "network_error"
	}
}
