package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Recording budget variants. The clone flow records 30s samples; the
// extended flow allows 60s.
const (
	BudgetShort = 30 * time.Second
	BudgetLong  = 60 * time.Second
)

// RecordingState is the snapshot consumed by UIs.
type RecordingState struct {
	IsRecording      bool
	RemainingSeconds float64
	ProducedFileURI  string
}

// Recording is the single active recording session: a fixed-budget
// countdown that auto-stops and reports the produced file. Manual stop
// cancels the auto-stop timer so the recorder is never stopped twice.
type Recording struct {
	mu       sync.Mutex
	recorder AudioRecorder
	budget   time.Duration

	recording bool
	startedAt time.Time
	timer     *time.Timer
	stopOnce  *sync.Once
	fileURI   string

	onComplete func(uri string, err error)
}

// NewRecording wraps the recorder capability with the given budget.
func NewRecording(recorder AudioRecorder, budget time.Duration) *Recording {
	if budget <= 0 {
		budget = BudgetShort
	}
	return &Recording{recorder: recorder, budget: budget}
}

// Start begins recording. onComplete fires exactly once, on auto-stop or
// manual Stop, with the produced file URI.
func (r *Recording) Start(ctx context.Context, onComplete func(uri string, err error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return nil
	}
	if err := r.recorder.Start(ctx); err != nil {
		return err
	}
	r.recording = true
	r.startedAt = time.Now()
	r.fileURI = ""
	r.onComplete = onComplete
	r.stopOnce = &sync.Once{}
	r.timer = time.AfterFunc(r.budget, func() {
		if err := r.Stop(); err != nil {
			log.Warn().Err(err).Msg("auto-stop failed")
		}
	})
	return nil
}

// Stop finalizes the recording. The countdown timer is cancelled first so
// an auto-stop racing a manual stop collapses into a single stop.
func (r *Recording) Stop() error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil
	}
	once := r.stopOnce
	r.mu.Unlock()

	var stopErr error
	once.Do(func() {
		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
			r.timer = nil
		}
		r.recording = false
		onComplete := r.onComplete
		r.mu.Unlock()

		uri, err := r.recorder.Stop()
		stopErr = err

		r.mu.Lock()
		r.fileURI = uri
		r.mu.Unlock()

		if onComplete != nil {
			onComplete(uri, err)
		}
	})
	return stopErr
}

// State returns the current snapshot, including the countdown remainder.
func (r *Recording) State() RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()

	var remaining float64
	if r.recording {
		remaining = (r.budget - time.Since(r.startedAt)).Seconds()
		if remaining < 0 {
			remaining = 0
		}
	}
	return RecordingState{
		IsRecording:      r.recording,
		RemainingSeconds: remaining,
		ProducedFileURI:  r.fileURI,
	}
}
