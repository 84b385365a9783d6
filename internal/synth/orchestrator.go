// Package synth drives the voice cloning upload and the asynchronous
// narration workflow, including the bounded polling loop against the
// eventually-consistent narration resource.
package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/audiocache"
	"github.com/voxstory/voxstory-client/internal/clock"
	"github.com/voxstory/voxstory-client/internal/gateway"
	"github.com/voxstory/voxstory-client/internal/localstore"
	"github.com/voxstory/voxstory-client/internal/opqueue"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/types"
)

const (
	// DefaultPollInterval spaces the existence checks while the server
	// renders narration.
	DefaultPollInterval = 5 * time.Second
	// DefaultMaxPollAttempts bounds the polling loop (~2 minutes total).
	DefaultMaxPollAttempts = 24
)

// NarrationResult reports where a finished narration lives.
type NarrationResult struct {
	URI       string
	FromCache bool
}

// DeleteResult reports the outcome of a voice deletion. Local cleanup has
// always happened by the time this is returned; Queued marks a deferred
// server-side deletion and Discrepancy flags a failed immediate one for
// telemetry.
type DeleteResult struct {
	Queued      bool
	Discrepancy apierr.Code
}

// Orchestrator coordinates cloning, narration generation, and deletion.
type Orchestrator struct {
	gw      *gateway.Gateway
	cache   *audiocache.Manager
	store   *localstore.Store
	queue   *opqueue.Queue
	monitor reachability.Monitor
	clk     clock.Clock

	pollInterval    time.Duration
	maxPollAttempts int
}

// New constructs an Orchestrator with default polling bounds.
func New(gw *gateway.Gateway, cache *audiocache.Manager, store *localstore.Store, queue *opqueue.Queue, monitor reachability.Monitor, clk clock.Clock) *Orchestrator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Orchestrator{
		gw:              gw,
		cache:           cache,
		store:           store,
		queue:           queue,
		monitor:         monitor,
		clk:             clk,
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
	}
}

// SetPolling overrides the poll bounds; tests shrink them.
func (o *Orchestrator) SetPolling(interval time.Duration, maxAttempts int) {
	if interval > 0 {
		o.pollInterval = interval
	}
	if maxAttempts > 0 {
		o.maxPollAttempts = maxAttempts
	}
}

// CloneVoice uploads a recorded sample and persists the returned voice id
// as the current voice. The user is actively waiting on this flow, so an
// offline device fails fast instead of queueing.
func (o *Orchestrator) CloneVoice(ctx context.Context, samplePath, name string, onProgress ProgressFunc) (string, error) {
	if !o.monitor.Online() {
		return "", apierr.New(apierr.CodeCloneError, "voice cloning requires a network connection")
	}

	onProgress.emit(StageUploading, 0)
	fields := map[string]string{}
	if name != "" {
		fields["name"] = name
	}
	body, err := o.gw.UploadFile(ctx, gateway.Voices(), "file", samplePath, fields, func(f float64) {
		onProgress.emit(StageUploading, f)
	})
	if err != nil {
		onProgress.emit(StageFailed, 0)
		return "", err
	}

	var resp types.CloneVoiceResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.VoiceID == "" {
		onProgress.emit(StageFailed, 0)
		return "", apierr.New(apierr.CodeCloneError, "clone response missing voice_id")
	}

	if err := o.store.SetSetting(localstore.KeyCurrentVoiceID, resp.VoiceID); err != nil {
		// The voice exists server-side; report it even though the local
		// pointer write failed.
		log.Error().Err(err).Str("voice", resp.VoiceID).Msg("could not persist current voice id")
	}
	onProgress.emit(StageReady, 1)
	return resp.VoiceID, nil
}

// Narrate produces (or fetches) the narration for storyID in voiceID.
// The generation trigger is fire-and-tolerate: a lost acknowledgement does
// not abort the flow because the job may have started server-side anyway.
func (o *Orchestrator) Narrate(ctx context.Context, voiceID, storyID string, onProgress ProgressFunc) (NarrationResult, error) {
	if err := types.ValidateIDPresent(voiceID, "voiceId"); err != nil {
		return NarrationResult{}, apierr.New(apierr.CodeMissingVoiceID, err.Error())
	}
	if err := types.ValidateIDPresent(storyID, "storyId"); err != nil {
		return NarrationResult{}, apierr.Wrap(apierr.CodeAPIError, err)
	}

	// A verified local copy wins before any network traffic; a narration
	// already rendered server-side skips the trigger and polling entirely.
	remoteReady := false
	if res, err := o.cache.CheckExists(ctx, voiceID, storyID); err == nil && res.Exists {
		if res.LocalURI != "" {
			onProgress.emit(StageReady, 1)
			return NarrationResult{URI: res.LocalURI, FromCache: true}, nil
		}
		remoteReady = true
	}

	if !remoteReady {
		onProgress.emit(StageRequested, 0)
		if _, err := o.gw.Do(ctx, http.MethodPost, gateway.NarrationAudio(voiceID, storyID), nil); err != nil {
			if apierr.CodeOf(err) == apierr.CodeOffline {
				// Queued by the gateway handoff; the caller sees OFFLINE now
				// and the narration proceeds after the queue drains.
				return NarrationResult{}, err
			}
			log.Warn().Err(err).Str("voice", voiceID).Str("story", storyID).
				Msg("generation trigger failed, polling anyway")
		}

		ready, err := o.poll(ctx, voiceID, storyID, onProgress)
		if err != nil {
			onProgress.emit(StageFailed, 0)
			return NarrationResult{}, err
		}
		if !ready {
			onProgress.emit(StageTimedOut, 0.5)
			return NarrationResult{}, apierr.New(apierr.CodeGenerationTimeout, "narration was not ready within the polling budget")
		}
	}

	onProgress.emit(StageDownloading, 0.5)
	dl, err := o.cache.Download(ctx, voiceID, storyID, func(f float64) {
		onProgress.emit(StageDownloading, 0.5+f/2)
	})
	if err != nil {
		onProgress.emit(StageFailed, 0.5)
		return NarrationResult{}, err
	}
	onProgress.emit(StageReady, 1)
	return NarrationResult{URI: dl.URI, FromCache: dl.FromCache}, nil
}

// poll checks narration existence at a fixed interval for a bounded number
// of attempts. Coarse processing progress is the attempt fraction mapped
// onto the first half of the combined scale.
func (o *Orchestrator) poll(ctx context.Context, voiceID, storyID string, onProgress ProgressFunc) (bool, error) {
	path := gateway.NarrationAudio(voiceID, storyID)
	for attempt := 1; attempt <= o.maxPollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		exists, err := o.gw.Exists(ctx, path)
		if err != nil {
			if apierr.CodeOf(err) == apierr.CodeOffline {
				return false, err
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("narration existence check failed")
		}
		if exists {
			return true, nil
		}
		onProgress.emit(StagePolling, float64(attempt)/float64(o.maxPollAttempts)/2)
		if attempt < o.maxPollAttempts {
			if err := o.clk.Sleep(ctx, o.pollInterval); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// DeleteVoice removes a voice. Local cleanup (cached audio + current-voice
// pointer) always happens; the server-side deletion is queued when offline
// and tolerated-but-flagged when it fails online, since local state is
// already consistent either way.
func (o *Orchestrator) DeleteVoice(ctx context.Context, voiceID string) (DeleteResult, error) {
	if err := types.ValidateIDPresent(voiceID, "voiceId"); err != nil {
		return DeleteResult{}, apierr.New(apierr.CodeMissingVoiceID, err.Error())
	}

	if err := o.cache.ClearForVoice(ctx, voiceID); err != nil {
		log.Warn().Err(err).Str("voice", voiceID).Msg("cached audio cleanup failed")
	}
	current, _ := o.store.GetSetting(localstore.KeyCurrentVoiceID)
	if current == voiceID {
		if err := o.store.DeleteSetting(localstore.KeyCurrentVoiceID); err != nil {
			log.Warn().Err(err).Msg("could not clear current voice pointer")
		}
	}

	if !o.monitor.Online() {
		if _, err := o.queue.Enqueue(ctx, http.MethodDelete, gateway.Voice(voiceID), nil); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{Queued: true}, nil
	}

	if _, err := o.gw.Do(ctx, http.MethodDelete, gateway.Voice(voiceID), nil); err != nil {
		log.Warn().Err(err).Str("voice", voiceID).Msg("server-side voice deletion failed, local state already cleaned")
		return DeleteResult{Discrepancy: apierr.CodeOf(err)}, nil
	}
	return DeleteResult{}, nil
}
