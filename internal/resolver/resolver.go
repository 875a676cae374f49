// Package resolver orchestrates username resolution: normalize, consult the
// override table, validate the cache against a cheap scrape, and only fall
// back to the rate-limited authoritative API when needed.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/blockedby/resolver-os/internal/cache"
	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/models"
	"github.com/blockedby/resolver-os/internal/notifier"
	"github.com/blockedby/resolver-os/internal/scraper"
)

// Source tells where a resolved record came from, feeding the per-consumer
// usage counters.
type Source string

const (
	SourceCache Source = "cache"
	SourceAPI   Source = "api_call"
)

// Fetcher is the authoritative fetch path, implemented by telegram.Pool.
type Fetcher interface {
	Fetch(ctx context.Context, kind models.ChatKind, username string) (*models.ChatRecord, error)
}

// PageScraper is the public-page path, implemented by scraper.Scraper.
type PageScraper interface {
	Fetch(ctx context.Context, username string) (*scraper.Result, error)
}

// Engine resolves usernames to chat records.
type Engine struct {
	cache     *cache.Store
	pool      Fetcher
	scraper   PageScraper
	overrides map[string]models.ChatKind
	notify    notifier.Notifier
	log       *logger.Logger

	// collapses concurrent authoritative fetches for the same username
	group singleflight.Group
}

// New creates a resolution engine.
func New(store *cache.Store, pool Fetcher, pageScraper PageScraper, overrides map[string]models.ChatKind, notify notifier.Notifier) *Engine {
	if overrides == nil {
		overrides = map[string]models.ChatKind{}
	}
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Engine{
		cache:     store,
		pool:      pool,
		scraper:   pageScraper,
		overrides: overrides,
		notify:    notify,
		log:       logger.Get(),
	}
}

// Resolve turns a raw username into a chat record. The returned Source says
// whether the record was served from the validated cache or freshly fetched.
//
// Lookups are case-insensitive; callers echo back the username as submitted,
// minus a leading "@".
func (e *Engine) Resolve(ctx context.Context, raw string) (*models.ChatRecord, Source, error) {
	username := cache.Normalize(raw)
	if username == "" {
		return nil, "", fmt.Errorf("%w: empty username", scraper.ErrInvalidUsername)
	}

	kind, overridden := e.overrides[username]
	if !overridden {
		scraped, err := e.scraper.Fetch(ctx, username)
		if err != nil {
			if errors.Is(err, scraper.ErrInvalidUsername) {
				e.notify.Notify(ctx, notifier.NewEvent(notifier.EventInvalidUsername, username, err.Error()))
				e.log.Info().Str("username", username).Msg("resolver: page has no extra block, username invalid")
			}
			return nil, "", err
		}

		// if the cheap scrape matches the cached record exactly, the record
		// is assumed current and no API quota is spent. An id change with
		// every visible property unchanged would slip through here.
		if cached, ok := e.cache.Get(username); ok {
			if cached.DisplayName() == scraped.Name &&
				cached.Bio == scraped.Bio &&
				cached.Kind == scraped.Kind {
				e.log.Debug().Str("username", username).Msg("resolver: cache hit confirmed by scrape")
				return &cached, SourceCache, nil
			}
		}
		kind = scraped.Kind
	}

	rec, err := e.fetchAuthoritative(ctx, kind, username)
	if err != nil {
		return nil, "", err
	}
	return rec, SourceAPI, nil
}

// fetchAuthoritative calls the pool through singleflight so two concurrent
// first-time requests for the same username consume one API call instead of
// racing (last cache write wins either way).
func (e *Engine) fetchAuthoritative(ctx context.Context, kind models.ChatKind, username string) (*models.ChatRecord, error) {
	v, err, _ := e.group.Do(username, func() (interface{}, error) {
		rec, err := e.pool.Fetch(ctx, kind, username)
		if err != nil {
			return nil, err
		}
		e.cache.Put(username, *rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ChatRecord), nil
}
