// Package catalog keeps a time-boxed local copy of the story list so
// browsing works offline and repeat fetches within the expiry window do not
// touch the network.
package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/gateway"
	"github.com/voxstory/voxstory-client/internal/localstore"
	"github.com/voxstory/voxstory-client/internal/reachability"
	"github.com/voxstory/voxstory-client/internal/types"
)

// DefaultTTL is the catalog expiration window, a pure function of
// wall-clock delta from the last successful fetch.
const DefaultTTL = 24 * time.Hour

// Result is the catalog read outcome.
type Result struct {
	Stories   []types.Story
	FromCache bool
}

// Cache is the story catalog cache.
type Cache struct {
	store   *localstore.Store
	gw      *gateway.Gateway
	monitor reachability.Monitor
	ttl     time.Duration
	now     func() time.Time
}

// New constructs a Cache over the shared local store.
func New(store *localstore.Store, gw *gateway.Gateway, monitor reachability.Monitor) *Cache {
	return &Cache{store: store, gw: gw, monitor: monitor, ttl: DefaultTTL, now: time.Now}
}

// SetNow overrides the clock source for tests.
func (c *Cache) SetNow(now func() time.Time) { c.now = now }

// Stories returns the catalog. Online with an expired cache (or
// forceRefresh) fetches and wholesale-replaces the stored list; any network
// failure degrades to the cached copy. An empty cache with no network is an
// empty list, not an error.
func (c *Cache) Stories(ctx context.Context, forceRefresh bool) (Result, error) {
	if c.monitor.Online() && (forceRefresh || c.expired()) {
		stories, err := c.fetch(ctx)
		if err == nil {
			if err := c.replace(ctx, stories); err != nil {
				return Result{}, err
			}
			return Result{Stories: stories, FromCache: false}, nil
		}
		log.Warn().Err(err).Msg("catalog fetch failed, serving cached list")
	}

	stories, err := c.cached(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Stories: stories, FromCache: true}, nil
}

func (c *Cache) expired() bool {
	raw, err := c.store.GetSetting(localstore.KeyCatalogFetchedAt)
	if err != nil || raw == "" {
		return true
	}
	fetchedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return c.now().Sub(fetchedAt) > c.ttl
}

func (c *Cache) fetch(ctx context.Context) ([]types.Story, error) {
	body, err := c.gw.Do(ctx, http.MethodGet, gateway.Stories(), nil)
	if err != nil {
		return nil, err
	}
	var resp types.ListStoriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apierr.Wrap(apierr.CodeAPIError, err)
	}
	return resp.Stories, nil
}

// replace swaps the stored catalog in one transaction so readers never see
// a half-replaced list.
func (c *Cache) replace(ctx context.Context, stories []types.Story) error {
	err := c.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&localstore.CatalogStory{}).Error; err != nil {
			return err
		}
		for i, s := range stories {
			row := localstore.CatalogStory{
				ID:               s.ID,
				Position:         i,
				Title:            s.Title,
				Author:           s.Author,
				DurationSeconds:  s.DurationSeconds,
				CoverURLTemplate: s.CoverURLTemplate,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return tx.Save(&localstore.Setting{
			Key:   localstore.KeyCatalogFetchedAt,
			Value: c.now().Format(time.RFC3339),
		}).Error
	})
	if err != nil {
		return apierr.Wrap(apierr.CodeStorageError, err)
	}
	return nil
}

func (c *Cache) cached(ctx context.Context) ([]types.Story, error) {
	var rows []localstore.CatalogStory
	if err := c.store.DB().WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, apierr.Wrap(apierr.CodeStorageError, err)
	}
	stories := make([]types.Story, len(rows))
	for i, r := range rows {
		stories[i] = types.Story{
			ID:               r.ID,
			Title:            r.Title,
			Author:           r.Author,
			DurationSeconds:  r.DurationSeconds,
			CoverURLTemplate: r.CoverURLTemplate,
		}
	}
	return stories, nil
}
