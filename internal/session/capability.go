// Package session exposes the playback and recording state machines the UI
// consumes. The underlying record/play primitives are external
// capabilities; this package defines their contracts and owns the
// position/duration/seek and countdown logic built on top of them.
package session

import "context"

// PlayerStatus is the periodic status report from the audio capability.
// Positions are in milliseconds, as native players report them.
type PlayerStatus struct {
	PositionMillis int64
	DurationMillis int64
	IsPlaying      bool
	IsBuffering    bool
	DidJustFinish  bool
	Err            error
}

// AudioPlayer is the playback capability: "can play a file, report
// position/duration". Implementations deliver status updates through the
// callback registered with OnStatus; updates arrive on a single goroutine.
type AudioPlayer interface {
	Load(ctx context.Context, uri string, autoplay bool) error
	Play() error
	Pause() error
	SeekMillis(pos int64) error
	Unload() error
	OnStatus(fn func(PlayerStatus))
}

// AudioRecorder is the recording capability: "can record to a file".
type AudioRecorder interface {
	Start(ctx context.Context) error
	// Stop finalizes the recording and returns the produced file URI.
	Stop() (string, error)
}
