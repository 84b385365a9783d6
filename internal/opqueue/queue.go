// Package opqueue persists mutating requests that failed due to
// connectivity loss and replays them, in arrival order, once connectivity
// returns or on demand.
package opqueue

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/localstore"
)

// DefaultRetention is how long a queued operation stays replayable.
// Anything older is discarded unreplayed.
const DefaultRetention = 24 * time.Hour

// Replayer re-issues a queued operation. Implemented by the request gateway.
type Replayer interface {
	Replay(ctx context.Context, method, endpoint string, body []byte) error
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Processed int // replayed successfully
	Discarded int // expired without a network call
	Remaining int // kept for the next pass
}

// Queue is the persisted offline operation queue.
type Queue struct {
	store     *localstore.Store
	replayer  Replayer
	retention time.Duration
	now       func() time.Time
}

// New constructs a Queue over the shared local store.
func New(store *localstore.Store, replayer Replayer) *Queue {
	return &Queue{
		store:     store,
		replayer:  replayer,
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// SetNow overrides the clock source; tests use this to age entries.
func (q *Queue) SetNow(now func() time.Time) { q.now = now }

// Enqueue appends the operation when its endpoint is on the allow-list.
// The bool result reports whether anything was stored.
func (q *Queue) Enqueue(ctx context.Context, method, endpoint string, body []byte) (bool, error) {
	if !Queueable(method, endpoint) {
		log.Debug().Str("method", method).Str("endpoint", endpoint).Msg("endpoint not queueable, dropping")
		return false, nil
	}
	op := localstore.QueuedOp{
		Method:     method,
		Endpoint:   endpoint,
		Body:       body,
		EnqueuedAt: q.now(),
	}
	if err := q.store.DB().WithContext(ctx).Create(&op).Error; err != nil {
		return false, apierr.Wrap(apierr.CodeStorageError, err)
	}
	return true, nil
}

// Len reports the number of pending operations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int64
	if err := q.store.DB().WithContext(ctx).Model(&localstore.QueuedOp{}).Count(&n).Error; err != nil {
		return 0, apierr.Wrap(apierr.CodeStorageError, err)
	}
	return int(n), nil
}

// Drain replays pending operations in FIFO order. Expired entries are
// discarded without a network call; failures are kept in their original
// relative order for the next pass. Removals are committed in a single
// transaction after the full pass so an interruption mid-pass leaves at
// worst already-replayed operations still queued.
func (q *Queue) Drain(ctx context.Context) (DrainResult, error) {
	var ops []localstore.QueuedOp
	if err := q.store.DB().WithContext(ctx).Order("id asc").Find(&ops).Error; err != nil {
		return DrainResult{}, apierr.Wrap(apierr.CodeStorageError, err)
	}

	var res DrainResult
	removed := make([]uint, 0, len(ops))
	cutoff := q.now().Add(-q.retention)

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			break
		}
		if op.EnqueuedAt.Before(cutoff) {
			removed = append(removed, op.ID)
			res.Discarded++
			log.Info().Str("endpoint", op.Endpoint).Time("enqueued_at", op.EnqueuedAt).Msg("discarding expired queued operation")
			continue
		}
		if err := q.replayer.Replay(ctx, op.Method, op.Endpoint, op.Body); err != nil {
			log.Warn().Err(err).Str("endpoint", op.Endpoint).Msg("replay failed, keeping operation")
			continue
		}
		removed = append(removed, op.ID)
		res.Processed++
	}

	if len(removed) > 0 {
		if err := q.store.DB().WithContext(ctx).Delete(&localstore.QueuedOp{}, removed).Error; err != nil {
			return res, apierr.Wrap(apierr.CodeQueueProcessingErr, err)
		}
	}
	res.Remaining = len(ops) - len(removed)
	return res, nil
}
