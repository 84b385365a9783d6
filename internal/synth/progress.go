package synth

// Stage names the phase a synthesis request is in. The lifecycle per
// (voice, story) request is:
//
//	IDLE → UPLOADING (clone only) → REQUESTED → POLLING → READY | TIMED_OUT | FAILED
type Stage string

const (
	StageIdle        Stage = "IDLE"
	StageUploading   Stage = "UPLOADING"
	StageRequested   Stage = "REQUESTED"
	StagePolling     Stage = "POLLING"
	StageDownloading Stage = "DOWNLOADING"
	StageReady       Stage = "READY"
	StageTimedOut    Stage = "TIMED_OUT"
	StageFailed      Stage = "FAILED"
)

// Progress is the typed event delivered to progress subscribers. Fraction
// is the combined 0-1 estimate: the processing phase maps to 0-0.5 by
// attempt count, the download phase to 0.5-1 by transfer fraction.
type Progress struct {
	Stage    Stage
	Fraction float64
}

// ProgressFunc receives progress events. May be nil everywhere it appears.
type ProgressFunc func(Progress)

func (f ProgressFunc) emit(stage Stage, fraction float64) {
	if f != nil {
		f(Progress{Stage: stage, Fraction: fraction})
	}
}
