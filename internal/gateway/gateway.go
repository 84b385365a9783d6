// Package gateway wraps the remote API: reachability short-circuit with
// offline queue handoff, bearer-token injection, a bounded 401
// refresh-and-retry, and structured error classification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/tokenstore"
)

const defaultTimeout = 30 * time.Second

// Enqueuer accepts mutating requests that failed due to connectivity loss.
// Implemented by the offline operation queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, method, endpoint string, body []byte) (bool, error)
}

// Gateway issues authenticated requests against the remote API.
type Gateway struct {
	baseURL string
	http    *http.Client
	tokens  tokenstore.Store
	monitor reachability.Monitor
	queue   Enqueuer // set after construction; nil disables queueing
	timeout time.Duration
}

// New constructs a Gateway. The offline queue is attached later via SetQueue
// because the queue replays through the gateway.
func New(baseURL string, httpClient *http.Client, tokens tokenstore.Store, monitor reachability.Monitor) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gateway{
		baseURL: baseURL,
		http:    httpClient,
		tokens:  tokens,
		monitor: monitor,
		timeout: defaultTimeout,
	}
}

// SetQueue attaches the offline operation queue.
func (g *Gateway) SetQueue(q Enqueuer) { g.queue = q }

// SetTimeout overrides the default per-request timeout.
func (g *Gateway) SetTimeout(d time.Duration) {
	if d > 0 {
		g.timeout = d
	}
}

// BaseURL returns the configured API root.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Do issues method+path with an optional JSON body and returns the response
// body. Offline mutating calls on queueable endpoints are handed to the
// queue and reported as OFFLINE. A 401 triggers exactly one token refresh
// followed by one retry of the original call.
func (g *Gateway) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if !g.monitor.Online() {
		g.handoff(ctx, method, path, body)
		return nil, apierr.New(apierr.CodeOffline, fmt.Sprintf("%s %s while offline", method, path))
	}
	return g.do(ctx, method, path, body, "application/json", true)
}

// Replay re-issues a previously queued operation. It bypasses the offline
// handoff so a failed replay is kept by the queue instead of re-enqueued.
func (g *Gateway) Replay(ctx context.Context, method, endpoint string, body []byte) error {
	if !g.monitor.Online() {
		return apierr.New(apierr.CodeOffline, "still offline")
	}
	_, err := g.do(ctx, method, endpoint, body, "application/json", true)
	return err
}

// Exists performs an existence check (HEAD) against path. 404 is a clean
// "does not exist", not an error.
func (g *Gateway) Exists(ctx context.Context, path string) (bool, error) {
	if !g.monitor.Online() {
		return false, apierr.New(apierr.CodeOffline, "existence check while offline")
	}
	ctx, cancel := g.withDeadline(ctx)
	defer cancel()

	req, err := g.newRequest(ctx, http.MethodHead, path, nil, "")
	if err != nil {
		return false, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return false, apierr.FromTransport("HEAD "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, apierr.FromStatus(resp.StatusCode, nil, "HEAD "+path)
	}
}

// do performs one attempt plus, on 401, one refresh-and-retry. The retried
// flag threads through so a second 401 fails terminally instead of looping.
func (g *Gateway) do(ctx context.Context, method, path string, body []byte, contentType string, allowRefresh bool) ([]byte, error) {
	ctx, cancel := g.withDeadline(ctx)
	defer cancel()

	var payload io.Reader
	if body != nil {
		payload = bytes.NewReader(body)
	}
	req, err := g.newRequest(ctx, method, path, payload, contentType)
	if err != nil {
		return nil, err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, apierr.FromTransport(method+" "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil

	case resp.StatusCode == http.StatusUnauthorized:
		if !allowRefresh {
			g.clearSession()
			return nil, apierr.FromStatus(resp.StatusCode, nil, method+" "+path)
		}
		if err := g.refresh(ctx); err != nil {
			g.clearSession()
			return nil, apierr.Wrap(apierr.CodeAuthError, err)
		}
		return g.do(ctx, method, path, body, contentType, false)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apierr.FromTransport(method+" "+path, err)
		}
		return data, nil

	default:
		data, _ := io.ReadAll(resp.Body)
		return nil, apierr.FromStatus(resp.StatusCode, data, method+" "+path)
	}
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if tok, err := g.tokens.Load(); err == nil && tok.Access != "" {
		req.Header.Set("Authorization", "Bearer "+tok.Access)
	}
	return req, nil
}

// Refresh forces a token refresh outside the automatic 401 path. Callers
// use it to proactively renew a session about to expire.
func (g *Gateway) Refresh(ctx context.Context) error {
	if err := g.refresh(ctx); err != nil {
		return apierr.Wrap(apierr.CodeAuthError, err)
	}
	return nil
}

// refresh exchanges the persisted refresh token for a new pair.
func (g *Gateway) refresh(ctx context.Context) error {
	tok, err := g.tokens.Load()
	if err != nil || tok.Refresh == "" {
		return fmt.Errorf("no refresh token available")
	}
	body, err := json.Marshal(map[string]string{"refresh_token": tok.Refresh})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+AuthRefresh(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token refresh: status %d", resp.StatusCode)
	}

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return err
	}
	return g.tokens.Save(tokenstore.Tokens{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

// clearSession wipes persisted tokens after a terminal auth failure.
func (g *Gateway) clearSession() {
	if err := g.tokens.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear session tokens")
	}
}

// handoff forwards an offline mutating call to the queue. Enqueue itself
// decides whether the endpoint is queueable.
func (g *Gateway) handoff(ctx context.Context, method, path string, body []byte) {
	if g.queue == nil {
		return
	}
	queued, err := g.queue.Enqueue(ctx, method, path, body)
	if err != nil {
		log.Error().Err(err).Str("endpoint", path).Msg("offline enqueue failed")
		return
	}
	if queued {
		log.Info().Str("method", method).Str("endpoint", path).Msg("operation queued for replay")
	}
}

func (g *Gateway) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}
