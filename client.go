// Package client is the VoxStory SDK: a synchronization and caching layer
// between story-narration UIs and the VoxStory API. It owns the request
// gateway, offline operation queue, audio cache, catalog cache, synthesis
// orchestrator, and the playback/recording session state machines.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/audiocache"
	"github.com/voxstory/voxstory-client/internal/catalog"
	"github.com/voxstory/voxstory-client/internal/clock"
	"github.com/voxstory/voxstory-client/internal/gateway"
	"github.com/voxstory/voxstory-client/internal/job"
	"github.com/voxstory/voxstory-client/internal/localstore"
	"github.com/voxstory/voxstory-client/internal/opqueue"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/session"
	"github.com/voxstory/voxstory-client/internal/shardqueue"
	"github.com/voxstory/voxstory-client/internal/synth"
	"github.com/voxstory/voxstory-client/internal/tokenstore"
	"github.com/voxstory/voxstory-client/internal/types"
)

const probeInterval = 30 * time.Second

// Client is the single context object UIs hold. Construct once with New,
// share freely, release with Close.
type Client struct {
	// construction knobs, set by options before wiring
	env         string
	baseURL     string
	dataDir     string
	httpTimeout time.Duration
	debug       bool

	tokens     tokenstore.Store
	monitor    reachability.Monitor
	ownMonitor bool
	clk        clock.Clock
	exec       executor

	store   *localstore.Store
	gw      *gateway.Gateway
	queue   *opqueue.Queue
	cache   *audiocache.Manager
	catalog *catalog.Cache
	synth   *synth.Orchestrator

	unsubscribe func()
	closedOnce  uint32
}

// New constructs a fully wired Client. Defaults: production base URL,
// ./data/voxstory data dir, file-backed token store, probe-based
// reachability monitor, 30s HTTP timeout.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		env:         "prod",
		dataDir:     "./data/voxstory",
		httpTimeout: 30 * time.Second,
		clk:         clock.Real{},
		ownMonitor:  true,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.baseURL = c.resolveBaseURL()

	// Open the store before spawning anything with a background goroutine
	// (probe monitor, shard executor) so a failed constructor leaks nothing.
	store, err := localstore.Open(filepath.Join(c.dataDir, "voxstory.db"))
	if err != nil {
		return nil, err
	}
	c.store = store

	if c.tokens == nil {
		c.tokens = tokenstore.NewFileStore(filepath.Join(c.dataDir, "tokens.json"))
	}
	if c.monitor == nil {
		c.monitor = reachability.NewProbe(c.baseURL+"/health", probeInterval)
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor()
	}

	// No Timeout on the http.Client: it would cap entire transfers,
	// aborting long narration downloads and sample uploads mid-stream. The
	// gateway bounds request/response calls per request via context; streams
	// run under the caller's context alone.
	httpClient := &http.Client{}
	if c.debug {
		httpClient.Transport = &debugTransport{base: http.DefaultTransport}
	}

	c.gw = gateway.New(c.baseURL, httpClient, c.tokens, c.monitor)
	c.gw.SetTimeout(c.httpTimeout)
	c.queue = opqueue.New(c.store, c.gw)
	c.gw.SetQueue(c.queue)

	c.cache = audiocache.New(c.store, c.gw, c.monitor, filepath.Join(c.dataDir, "audio"))
	c.catalog = catalog.New(c.store, c.gw, c.monitor)
	c.synth = synth.New(c.gw, c.cache, c.store, c.queue, c.monitor, c.clk)

	// Regained connectivity drains the offline queue in the background.
	c.unsubscribe = c.monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		j := job.New(func(ctx context.Context) error {
			res, err := c.queue.Drain(ctx)
			if err != nil {
				return err
			}
			if res.Processed > 0 || res.Discarded > 0 {
				log.Info().Int("processed", res.Processed).Int("discarded", res.Discarded).Int("remaining", res.Remaining).Msg("offline queue drained")
			}
			return nil
		})
		if err := c.exec.Submit(context.Background(), "queue-drain", j); err != nil {
			log.Warn().Err(err).Msg("auto-drain submit failed")
		}
	})

	return c, nil
}

// Close stops the background executor, the reachability monitor (when owned
// by the client), and the local store. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	if c.ownMonitor && c.monitor != nil {
		_ = c.monitor.Close()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// AwaitSync blocks until all previously submitted async jobs for the given
// voiceID have been executed by the internal executor. It works by
// submitting a no-op job and waiting for it to run, thereby guaranteeing
// FIFO ordering has flushed.
func (c *Client) AwaitSync(ctx context.Context, voiceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan struct{})
	j := job.New(func(context.Context) error {
		close(done)
		return nil
	})
	if err := c.exec.Submit(ctx, voiceID, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// newDefaultExecutor constructs the shardqueue executor with sane defaults.
func newDefaultExecutor() *shardqueue.ShardExecutor {
	cfg := shardqueue.Config{Shards: 4, QueueSize: 1000}
	return shardqueue.NewShardExecutor(cfg)
}

// --------------------------------------------------------------------
// Auth operations
// --------------------------------------------------------------------

// Login exchanges credentials for a token pair and persists it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(types.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	resp, err := c.gw.Do(ctx, http.MethodPost, gateway.AuthLogin(), body)
	if err != nil {
		return err
	}
	return c.saveTokens(resp)
}

// Register creates an account. Servers that auto-confirm return a token
// pair, which is persisted; otherwise the caller logs in after confirming.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := c.gw.Do(ctx, http.MethodPost, gateway.AuthRegister(), body)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return nil
	}
	var pair types.AuthTokens
	if err := json.Unmarshal(resp, &pair); err != nil || pair.AccessToken == "" {
		return nil
	}
	return c.tokens.Save(tokenstore.Tokens{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

// Me fetches the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	resp, err := c.gw.Do(ctx, http.MethodGet, gateway.AuthMe(), nil)
	if err != nil {
		return nil, err
	}
	var p types.Profile
	if err := json.Unmarshal(resp, &p); err != nil {
		return nil, apierr.Wrap(apierr.CodeAPIError, err)
	}
	return &p, nil
}

// RefreshSession proactively exchanges the refresh token for a new pair.
// The gateway also refreshes automatically on the first 401 of a request.
func (c *Client) RefreshSession(ctx context.Context) error {
	return c.gw.Refresh(ctx)
}

// Logout clears the persisted token pair. Purely local.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// RequestPasswordReset asks the server to start a password reset flow.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body, err := json.Marshal(types.ResetPasswordRequest{Email: email})
	if err != nil {
		return err
	}
	_, err = c.gw.Do(ctx, http.MethodPost, gateway.AuthResetPassword(), body)
	return err
}

// ResendConfirmation asks the server to resend the signup email.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	body, err := json.Marshal(types.ResendConfirmationRequest{Email: email})
	if err != nil {
		return err
	}
	_, err = c.gw.Do(ctx, http.MethodPost, gateway.AuthResendConfirmation(), body)
	return err
}

func (c *Client) saveTokens(resp []byte) error {
	var pair types.AuthTokens
	if err := json.Unmarshal(resp, &pair); err != nil {
		return apierr.Wrap(apierr.CodeAPIError, err)
	}
	return c.tokens.Save(tokenstore.Tokens{Access: pair.AccessToken, Refresh: pair.RefreshToken})
}

// --------------------------------------------------------------------
// Voice operations
// --------------------------------------------------------------------

// CloneVoice uploads a recorded sample and persists the returned voice id
// as the current voice. Fails fast when offline; clone requests are never
// queued.
func (c *Client) CloneVoice(ctx context.Context, samplePath, name string, onProgress ProgressFunc) (string, error) {
	return c.synth.CloneVoice(ctx, samplePath, name, onProgress)
}

// CurrentVoice returns the locally persisted voice id, or "" when no voice
// has been cloned on this device.
func (c *Client) CurrentVoice(ctx context.Context) (string, error) {
	return c.store.GetSetting(localstore.KeyCurrentVoiceID)
}

// ListVoices fetches the caller's voices from the server.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := c.gw.Do(ctx, http.MethodGet, gateway.Voices(), nil)
	if err != nil {
		return nil, err
	}
	var out types.ListVoicesResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, apierr.Wrap(apierr.CodeAPIError, err)
	}
	return out.Voices, nil
}

// VerifyCurrentVoice reconciles the locally persisted voice id against the
// server's voice list. Server truth wins: a local id the server no longer
// knows is cleared, and a missing local id adopts the server's first voice.
// When the list cannot be fetched the local value is returned together with
// a VERIFICATION_ERROR so callers can flag the degraded answer.
func (c *Client) VerifyCurrentVoice(ctx context.Context) (string, error) {
	local, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return "", apierr.Wrap(apierr.CodeStorageError, err)
	}

	voices, err := c.ListVoices(ctx)
	if err != nil {
		return local, apierr.Wrap(apierr.CodeVerificationError, err)
	}

	for _, v := range voices {
		if v.ID == local && local != "" {
			return local, nil
		}
	}
	if len(voices) > 0 {
		adopted := voices[0].ID
		if err := c.store.SetSetting(localstore.KeyCurrentVoiceID, adopted); err != nil {
			log.Warn().Err(err).Msg("persisting reconciled voice id failed")
		}
		return adopted, nil
	}
	if local != "" {
		if err := c.store.DeleteSetting(localstore.KeyCurrentVoiceID); err != nil {
			log.Warn().Err(err).Msg("clearing stale voice id failed")
		}
	}
	return "", nil
}

// DeleteVoice removes the current voice. Local cleanup (cached audio and
// the current-voice pointer) always happens; the server-side delete is
// queued when offline.
func (c *Client) DeleteVoice(ctx context.Context) (DeleteResult, error) {
	voiceID, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return DeleteResult{}, apierr.Wrap(apierr.CodeStorageError, err)
	}
	if voiceID == "" {
		return DeleteResult{}, apierr.New(apierr.CodeMissingVoiceID, "no voice to delete")
	}
	return c.synth.DeleteVoice(ctx, voiceID)
}

// --------------------------------------------------------------------
// Story catalog operations
// --------------------------------------------------------------------

// Stories returns the story catalog, serving the cached copy inside the
// freshness window and degrading to it on any fetch failure.
func (c *Client) Stories(ctx context.Context, forceRefresh bool) (CatalogResult, error) {
	res, err := c.catalog.Stories(ctx, forceRefresh)
	if err != nil {
		return res, err
	}
	voiceID, verr := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if verr == nil && voiceID != "" {
		res.Stories = c.cache.MarkLocal(ctx, voiceID, res.Stories)
	}
	return res, nil
}

// StoriesWithLocalAudio returns only catalog stories whose narration for
// the current voice is downloaded and verified on disk. Works offline.
func (c *Client) StoriesWithLocalAudio(ctx context.Context) ([]Story, error) {
	res, err := c.Stories(ctx, false)
	if err != nil {
		return nil, err
	}
	local := res.Stories[:0:0]
	for _, s := range res.Stories {
		if s.HasLocalAudio {
			local = append(local, s)
		}
	}
	return local, nil
}

// CoverURL resolves a story's cover image URL for the given size variant.
// Descriptors without a template fall back to the API cover endpoint.
func (c *Client) CoverURL(s Story, size string) string {
	if s.CoverURLTemplate != "" {
		return strings.ReplaceAll(s.CoverURLTemplate, "{size}", size)
	}
	return c.baseURL + gateway.StoryCover(s.ID)
}

// --------------------------------------------------------------------
// Narration operations
// --------------------------------------------------------------------

// Narrate produces a playable narration of storyID in the current voice:
// cache hit, remote download, or full generate-poll-download, whichever the
// state requires. Progress is reported through onProgress.
func (c *Client) Narrate(ctx context.Context, storyID string, onProgress ProgressFunc) (NarrationResult, error) {
	voiceID, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return NarrationResult{}, apierr.Wrap(apierr.CodeStorageError, err)
	}
	return c.synth.Narrate(ctx, voiceID, storyID, onProgress)
}

// PrefetchNarration schedules Narrate on the shard executor, keyed by the
// current voice so prefetches for one voice stay FIFO. Returns immediately.
func (c *Client) PrefetchNarration(ctx context.Context, storyID string) (*EnqueueAck, error) {
	voiceID, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeStorageError, err)
	}
	if voiceID == "" {
		return nil, apierr.New(apierr.CodeMissingVoiceID, "no cloned voice available")
	}

	shard := job.ShardLabel(voiceID)
	j := job.New(func(jctx context.Context) error {
		if _, err := c.synth.Narrate(jctx, voiceID, storyID, nil); err != nil {
			narrationsFailedTotal.WithLabelValues(shard).Inc()
			return err
		}
		return nil
	})
	if err := c.exec.Submit(ctx, voiceID, j); err != nil {
		if errors.Is(err, shardqueue.ErrQueueFull) {
			return nil, ErrBackPressure
		}
		return nil, err
	}
	narrationsEnqueuedTotal.WithLabelValues(shard).Inc()
	return &EnqueueAck{VoiceID: voiceID, StoryID: storyID, Status: "enqueued"}, nil
}

// NarrationExists reports whether a narration for storyID in the current
// voice is available, preferring the verified local copy.
func (c *Client) NarrationExists(ctx context.Context, storyID string) (bool, string, error) {
	voiceID, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return false, "", apierr.Wrap(apierr.CodeStorageError, err)
	}
	if voiceID == "" {
		return false, "", nil
	}
	res, err := c.cache.CheckExists(ctx, voiceID, storyID)
	if err != nil {
		return false, "", err
	}
	return res.Exists, res.LocalURI, nil
}

// DownloadNarration fetches an already generated narration for storyID in
// the current voice, serving the verified cached copy when present. Unlike
// Narrate it never triggers generation.
func (c *Client) DownloadNarration(ctx context.Context, storyID string, onProgress func(float64)) (string, error) {
	voiceID, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return "", apierr.Wrap(apierr.CodeStorageError, err)
	}
	if voiceID == "" {
		return "", apierr.New(apierr.CodeMissingVoiceID, "no cloned voice available")
	}
	res, err := c.cache.Download(ctx, voiceID, storyID, onProgress)
	if err != nil {
		return "", err
	}
	return res.URI, nil
}

// RecoverNarration discards a corrupt cached narration and downloads a
// fresh copy. Wired as the playback decode-error handler.
func (c *Client) RecoverNarration(ctx context.Context, storyID string, onProgress func(float64)) (string, error) {
	voiceID, err := c.store.GetSetting(localstore.KeyCurrentVoiceID)
	if err != nil {
		return "", apierr.Wrap(apierr.CodeStorageError, err)
	}
	if voiceID == "" {
		return "", apierr.New(apierr.CodeMissingVoiceID, "no cloned voice available")
	}
	res, err := c.cache.RecoverCorrupt(ctx, voiceID, storyID, onProgress)
	if err != nil {
		return "", err
	}
	return res.URI, nil
}

// --------------------------------------------------------------------
// Queue operations
// --------------------------------------------------------------------

// DrainQueue replays queued offline operations in FIFO order. Entries past
// the retention window are discarded without a network call.
func (c *Client) DrainQueue(ctx context.Context) (DrainResult, error) {
	return c.queue.Drain(ctx)
}

// QueueLen returns the number of pending offline operations.
func (c *Client) QueueLen(ctx context.Context) (int, error) {
	return c.queue.Len(ctx)
}

// Online reports current API reachability.
func (c *Client) Online() bool { return c.monitor.Online() }

// --------------------------------------------------------------------
// Session constructors
// --------------------------------------------------------------------

// NewPlayback wraps an AudioPlayer capability in the playback state
// machine. The Client holds no playback state; sessions are independent.
func (c *Client) NewPlayback(player AudioPlayer) *Playback {
	return session.NewPlayback(player)
}

// NewRecording wraps an AudioRecorder capability with a fixed budget
// countdown (session.BudgetShort or session.BudgetLong).
func (c *Client) NewRecording(recorder AudioRecorder, budget time.Duration) *Recording {
	return session.NewRecording(recorder, budget)
}
