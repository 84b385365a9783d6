package client

import (
	"github.com/voxstory/voxstory-client/internal/catalog"
	"github.com/voxstory/voxstory-client/internal/opqueue"
	"github.com/voxstory/voxstory-client/internal/session"
	"github.com/voxstory/voxstory-client/internal/synth"
	"github.com/voxstory/voxstory-client/internal/tokenstore"
	"github.com/voxstory/voxstory-client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.

// Requests
type (
	LoginRequest              = types.LoginRequest
	RegisterRequest           = types.RegisterRequest
	ResetPasswordRequest      = types.ResetPasswordRequest
	ResendConfirmationRequest = types.ResendConfirmationRequest
)

// Domain entities
type (
	Voice      = types.Voice
	Story      = types.Story
	Profile    = types.Profile
	AuthTokens = types.AuthTokens
	Tokens     = tokenstore.Tokens
	TokenStore = tokenstore.Store
)

// Results
type (
	CatalogResult   = catalog.Result
	DrainResult     = opqueue.DrainResult
	NarrationResult = synth.NarrationResult
	DeleteResult    = synth.DeleteResult
	EnqueueAck      = types.EnqueueAck
)

// Progress reporting
type (
	Progress     = synth.Progress
	ProgressFunc = synth.ProgressFunc
	Stage        = synth.Stage
)

// Synthesis stages re-exported for UIs driving progress indicators.
const (
	StageIdle        = synth.StageIdle
	StageUploading   = synth.StageUploading
	StageRequested   = synth.StageRequested
	StagePolling     = synth.StagePolling
	StageDownloading = synth.StageDownloading
	StageReady       = synth.StageReady
	StageTimedOut    = synth.StageTimedOut
	StageFailed      = synth.StageFailed
)

// Session capabilities and state machines
type (
	AudioPlayer    = session.AudioPlayer
	AudioRecorder  = session.AudioRecorder
	PlayerStatus   = session.PlayerStatus
	Playback       = session.Playback
	PlaybackState  = session.PlaybackState
	Recording      = session.Recording
	RecordingState = session.RecordingState
)
