package session

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// PlaybackState is the snapshot consumed by UIs. Times are in seconds,
// converted from the capability's millisecond reports.
type PlaybackState struct {
	IsPlaying       bool
	PositionSeconds float64
	DurationSeconds float64
	IsBuffering     bool
	LastError       string
}

// Playback is the single active playback session. Loading a new source
// always releases the prior one; there is at most one loaded resource.
type Playback struct {
	mu     sync.Mutex
	player AudioPlayer

	loaded    bool
	playing   bool
	finished  bool
	position  float64
	duration  float64
	buffering bool
	lastErr   string

	onCorrupt func()
}

// NewPlayback wraps the given player capability.
func NewPlayback(player AudioPlayer) *Playback {
	p := &Playback{player: player}
	player.OnStatus(p.handleStatus)
	return p
}

// Load prepares uri for playback, unloading any prior source first.
// onCorrupt fires when the capability reports a decode failure; callers
// wire it to the cache recovery path.
func (p *Playback) Load(ctx context.Context, uri string, autoplay bool, onCorrupt func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		if err := p.player.Unload(); err != nil {
			log.Warn().Err(err).Msg("unloading previous playback source failed")
		}
	}
	p.loaded = false
	p.playing = false
	p.finished = false
	p.position = 0
	p.duration = 0
	p.lastErr = ""
	p.onCorrupt = onCorrupt

	if err := p.player.Load(ctx, uri, autoplay); err != nil {
		return err
	}
	p.loaded = true
	p.playing = autoplay
	return nil
}

// TogglePlayPause flips play state. Resuming after natural completion
// restarts from zero.
func (p *Playback) TogglePlayPause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return nil
	}

	if p.playing {
		if err := p.player.Pause(); err != nil {
			return err
		}
		p.playing = false
		return nil
	}

	if p.finished {
		if err := p.player.SeekMillis(0); err != nil {
			return err
		}
		p.position = 0
		p.finished = false
	}
	if err := p.player.Play(); err != nil {
		return err
	}
	p.playing = true
	return nil
}

// Seek jumps to sec, clamped to [0, duration].
func (p *Playback) Seek(sec float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(sec)
}

// Rewind moves back by sec.
func (p *Playback) Rewind(sec float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(p.position - sec)
}

// Forward moves ahead by sec.
func (p *Playback) Forward(sec float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(p.position + sec)
}

func (p *Playback) seekLocked(sec float64) error {
	if !p.loaded {
		return nil
	}
	if sec < 0 {
		sec = 0
	}
	if p.duration > 0 && sec > p.duration {
		sec = p.duration
	}
	if err := p.player.SeekMillis(int64(sec * 1000)); err != nil {
		return err
	}
	p.position = sec
	p.finished = false
	return nil
}

// Unload releases the active resource. Safe to call when nothing is loaded.
func (p *Playback) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return nil
	}
	p.loaded = false
	p.playing = false
	return p.player.Unload()
}

// State returns the current snapshot.
func (p *Playback) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlaybackState{
		IsPlaying:       p.playing,
		PositionSeconds: p.position,
		DurationSeconds: p.duration,
		IsBuffering:     p.buffering,
		LastError:       p.lastErr,
	}
}

func (p *Playback) handleStatus(s PlayerStatus) {
	p.mu.Lock()

	if s.Err != nil {
		p.lastErr = s.Err.Error()
		corrupt := IsDecodeError(s.Err) && p.onCorrupt != nil
		onCorrupt := p.onCorrupt
		if corrupt {
			// A corrupt file is a recovery trigger, not just an error report:
			// stop playback and let the wired handler re-fetch.
			p.playing = false
			p.loaded = false
			if err := p.player.Unload(); err != nil {
				log.Warn().Err(err).Msg("unload after decode error failed")
			}
		}
		p.mu.Unlock()
		if corrupt {
			onCorrupt()
		}
		return
	}

	p.position = float64(s.PositionMillis) / 1000
	if s.DurationMillis > 0 {
		p.duration = float64(s.DurationMillis) / 1000
	}
	p.buffering = s.IsBuffering
	if s.DidJustFinish {
		// End of track pauses without resetting position; the next resume
		// restarts from zero via TogglePlayPause.
		p.playing = false
		p.finished = true
	} else {
		p.playing = s.IsPlaying
	}
	p.mu.Unlock()
}

// decode error signatures reported by platform audio backends.
var decodeSignatures = []string{"decod", "corrupt", "malformed", "invalid frame"}

// IsDecodeError reports whether err looks like a corrupted-media failure
// rather than a transient playback problem.
func IsDecodeError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range decodeSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
