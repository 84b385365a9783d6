// Package audiocache maps (voice, story) pairs to locally downloaded
// narration files. A registry row is only trusted after the backing file is
// confirmed to exist on disk; dangling rows are pruned on sight.
package audiocache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/gateway"
	"github.com/voxstory/voxstory-client/internal/localstore"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/types"
)

const copyChunkSize = 64 * 1024

// ExistsResult reports whether audio for a (voice, story) pair is available.
// Verified is false when the answer came from a degraded path (e.g. a server
// check that could not be performed).
type ExistsResult struct {
	Exists   bool
	LocalURI string
	Verified bool
}

// DownloadResult reports where a narration landed.
type DownloadResult struct {
	URI       string
	FromCache bool
}

// Manager owns the audio registry and download pipeline.
type Manager struct {
	store   *localstore.Store
	gw      *gateway.Gateway
	monitor reachability.Monitor
	dir     string
	now     func() time.Time
}

// New constructs a Manager storing files under dir.
func New(store *localstore.Store, gw *gateway.Gateway, monitor reachability.Monitor, dir string) *Manager {
	return &Manager{store: store, gw: gw, monitor: monitor, dir: dir, now: time.Now}
}

// CheckExists consults the local registry first, verifying the backing file
// on disk. A dangling row is pruned and the check falls through to a server
// existence probe when online; offline with no valid local entry reports
// exists:false rather than an error.
func (m *Manager) CheckExists(ctx context.Context, voiceID, storyID string) (ExistsResult, error) {
	if uri, ok, err := m.verifiedLocal(ctx, voiceID, storyID); err != nil {
		return ExistsResult{}, err
	} else if ok {
		return ExistsResult{Exists: true, LocalURI: uri, Verified: true}, nil
	}

	if !m.monitor.Online() {
		return ExistsResult{}, nil
	}
	exists, err := m.gw.Exists(ctx, gateway.NarrationAudio(voiceID, storyID))
	if err != nil {
		// Degrade to "unknown, assume absent" instead of blocking the caller.
		log.Warn().Err(err).Str("voice", voiceID).Str("story", storyID).Msg("server existence check failed")
		return ExistsResult{Exists: false, Verified: false}, nil
	}
	return ExistsResult{Exists: exists, Verified: true}, nil
}

// verifiedLocal returns the registered path when the file is still present,
// pruning the row otherwise.
func (m *Manager) verifiedLocal(ctx context.Context, voiceID, storyID string) (string, bool, error) {
	var entry localstore.AudioEntry
	err := m.store.DB().WithContext(ctx).
		First(&entry, "voice_id = ? AND story_id = ?", voiceID, storyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apierr.Wrap(apierr.CodeStorageError, err)
	}

	if _, err := os.Stat(entry.LocalPath); err == nil {
		return entry.LocalPath, true, nil
	}

	prunedEntriesTotal.Inc()
	log.Info().Str("voice", voiceID).Str("story", storyID).Str("path", entry.LocalPath).
		Msg("pruning registry entry with missing file")
	if err := m.removeEntry(ctx, voiceID, storyID); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// Download returns a verified local copy immediately, or streams the
// narration into the cache. Progress is reported as a 0-1 fraction.
// Cancelling ctx aborts the transfer and discards the partial file.
func (m *Manager) Download(ctx context.Context, voiceID, storyID string, onProgress func(float64)) (DownloadResult, error) {
	if uri, ok, err := m.verifiedLocal(ctx, voiceID, storyID); err != nil {
		return DownloadResult{}, err
	} else if ok {
		cacheHitsTotal.Inc()
		if onProgress != nil {
			onProgress(1)
		}
		return DownloadResult{URI: uri, FromCache: true}, nil
	}

	if !m.monitor.Online() {
		return DownloadResult{}, apierr.New(apierr.CodeOffline, "download requires a network connection")
	}

	body, total, err := m.gw.Stream(ctx, gateway.NarrationDownload(voiceID, storyID))
	if err != nil {
		downloadsTotal.WithLabelValues("error").Inc()
		return DownloadResult{}, err
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return DownloadResult{}, apierr.Wrap(apierr.CodeStorageError, err)
	}
	// Filename embeds voice, story, and a timestamp so re-downloads never
	// collide with a file still held open by the player.
	name := fmt.Sprintf("%s_%s_%d_%s.mp3", voiceID, storyID, m.now().Unix(), uuid.NewString()[:8])
	path := filepath.Join(m.dir, name)

	written, err := m.copyWithProgress(ctx, path, body, total, onProgress)
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, context.Canceled) {
			downloadsTotal.WithLabelValues("cancelled").Inc()
			return DownloadResult{}, apierr.Wrap(apierr.CodeDownloadCancelled, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// Ran out of time, not out of server: recoverable, retry later.
			downloadsTotal.WithLabelValues("timeout").Inc()
			return DownloadResult{}, apierr.Wrap(apierr.CodeTimeout, err)
		}
		downloadsTotal.WithLabelValues("error").Inc()
		return DownloadResult{}, apierr.Wrap(apierr.CodeDownloadError, err)
	}

	entry := localstore.AudioEntry{
		VoiceID:   voiceID,
		StoryID:   storyID,
		LocalPath: path,
		CreatedAt: m.now(),
	}
	if err := m.store.DB().WithContext(ctx).Save(&entry).Error; err != nil {
		_ = os.Remove(path)
		return DownloadResult{}, apierr.Wrap(apierr.CodeStorageError, err)
	}

	downloadsTotal.WithLabelValues("ok").Inc()
	downloadBytesTotal.Add(float64(written))
	return DownloadResult{URI: path, FromCache: false}, nil
}

func (m *Manager) copyWithProgress(ctx context.Context, path string, src io.Reader, total int64, onProgress func(float64)) (int64, error) {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer func() { _ = dst.Close() }()

	var written int64
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			if onProgress != nil && total > 0 {
				frac := float64(written) / float64(total)
				if frac > 1 {
					frac = 1
				}
				onProgress(frac)
			}
		}
		if rerr == io.EOF {
			if onProgress != nil {
				onProgress(1)
			}
			return written, nil
		}
		if rerr != nil {
			// A read aborted by context cancellation surfaces through the
			// transport; normalize it so callers see one cancel signal.
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, rerr
		}
	}
}

// ClearForVoice deletes every backing file registered under voiceID and
// removes its registry rows. Missing files are ignored; calling it twice is
// a no-op.
func (m *Manager) ClearForVoice(ctx context.Context, voiceID string) error {
	var entries []localstore.AudioEntry
	if err := m.store.DB().WithContext(ctx).Find(&entries, "voice_id = ?", voiceID).Error; err != nil {
		return apierr.Wrap(apierr.CodeStorageError, err)
	}
	for _, e := range entries {
		if err := os.Remove(e.LocalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", e.LocalPath).Msg("could not delete cached audio file")
		}
	}
	if err := m.store.DB().WithContext(ctx).Delete(&localstore.AudioEntry{}, "voice_id = ?", voiceID).Error; err != nil {
		return apierr.Wrap(apierr.CodeStorageError, err)
	}
	return nil
}

// MarkLocal annotates each story with whether a verified narration for
// voiceID exists locally, for offline filtering in catalog views.
func (m *Manager) MarkLocal(ctx context.Context, voiceID string, stories []types.Story) []types.Story {
	out := make([]types.Story, len(stories))
	for i, s := range stories {
		out[i] = s
		if uri, ok, err := m.verifiedLocal(ctx, voiceID, s.ID); err == nil && ok {
			out[i].HasLocalAudio = true
			out[i].LocalURI = uri
		}
	}
	return out
}

// RecoverCorrupt handles a decode failure detected at playback time: the
// stale registry entry and its backing file are removed, then a fresh
// download is forced. This is a recovery path, not just an error report.
func (m *Manager) RecoverCorrupt(ctx context.Context, voiceID, storyID string, onProgress func(float64)) (DownloadResult, error) {
	var entry localstore.AudioEntry
	err := m.store.DB().WithContext(ctx).
		First(&entry, "voice_id = ? AND story_id = ?", voiceID, storyID).Error
	if err == nil {
		if rmErr := os.Remove(entry.LocalPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn().Err(rmErr).Str("path", entry.LocalPath).Msg("could not delete corrupt audio file")
		}
		if err := m.removeEntry(ctx, voiceID, storyID); err != nil {
			return DownloadResult{}, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DownloadResult{}, apierr.Wrap(apierr.CodeStorageError, err)
	}

	return m.Download(ctx, voiceID, storyID, onProgress)
}

func (m *Manager) removeEntry(ctx context.Context, voiceID, storyID string) error {
	err := m.store.DB().WithContext(ctx).
		Delete(&localstore.AudioEntry{}, "voice_id = ? AND story_id = ?", voiceID, storyID).Error
	if err != nil {
		return apierr.Wrap(apierr.CodeStorageError, err)
	}
	return nil
}
