package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/resolver-os/internal/cache"
	"github.com/blockedby/resolver-os/internal/models"
	"github.com/blockedby/resolver-os/internal/notifier"
	"github.com/blockedby/resolver-os/internal/scraper"
)

type fakeFetcher struct {
	mu    sync.Mutex
	rec   *models.ChatRecord
	err   error
	calls int
	kinds []models.ChatKind
}

func (f *fakeFetcher) Fetch(_ context.Context, kind models.ChatKind, _ string) (*models.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.kinds = append(f.kinds, kind)
	if f.err != nil {
		return nil, f.err
	}
	rec := *f.rec
	return &rec, nil
}

type fakeScraper struct {
	res   *scraper.Result
	err   error
	calls int
}

func (f *fakeScraper) Fetch(context.Context, string) (*scraper.Result, error) {
	f.calls++
	return f.res, f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notifier.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

var janeRecord = models.ChatRecord{
	FirstName: "Jane", LastName: "Doe", Bio: "", Kind: models.KindPrivate, ChatID: 555,
}

func TestEngine_CacheShortCircuit(t *testing.T) {
	store := cache.NewStore()
	store.Put("jane", janeRecord)

	pool := &fakeFetcher{rec: &janeRecord}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "", Kind: models.KindPrivate}}
	engine := New(store, pool, page, nil, nil)

	rec, source, err := engine.Resolve(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, janeRecord, *rec)
	assert.Equal(t, 0, pool.calls, "matching scrape must not spend API quota")
}

func TestEngine_NormalizationSharesCacheKey(t *testing.T) {
	store := cache.NewStore()
	store.Put("jane", janeRecord)

	pool := &fakeFetcher{rec: &janeRecord}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "", Kind: models.KindPrivate}}
	engine := New(store, pool, page, nil, nil)

	for _, input := range []string{"@Jane", "jane", "JANE"} {
		_, source, err := engine.Resolve(context.Background(), input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, SourceCache, source, "input %q must hit the same cache key", input)
	}
	assert.Equal(t, 0, pool.calls)
}

func TestEngine_ScrapeMismatchRefreshesFromAPI(t *testing.T) {
	store := cache.NewStore()
	stale := janeRecord
	stale.Bio = "old bio"
	store.Put("jane", stale)

	fresh := janeRecord
	fresh.Bio = "new bio"
	pool := &fakeFetcher{rec: &fresh}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "new bio", Kind: models.KindPrivate}}
	engine := New(store, pool, page, nil, nil)

	rec, source, err := engine.Resolve(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, source)
	assert.Equal(t, "new bio", rec.Bio)
	assert.Equal(t, 1, pool.calls)

	cached, ok := store.Get("jane")
	require.True(t, ok)
	assert.Equal(t, "new bio", cached.Bio, "fresh record must overwrite the cache")
}

func TestEngine_UncachedGoesToAPI(t *testing.T) {
	store := cache.NewStore()
	pool := &fakeFetcher{rec: &janeRecord}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "", Kind: models.KindPrivate}}
	engine := New(store, pool, page, nil, nil)

	rec, source, err := engine.Resolve(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, source)
	assert.Equal(t, janeRecord, *rec)
	require.Equal(t, []models.ChatKind{models.KindPrivate}, pool.kinds,
		"the scraped kind picks the API call")

	_, ok := store.Get("jane")
	assert.True(t, ok)
}

func TestEngine_OverrideBypassesScrapeAndCache(t *testing.T) {
	store := cache.NewStore()
	store.Put("utubebot", janeRecord) // even a matching cache entry is ignored

	pool := &fakeFetcher{rec: &janeRecord}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "", Kind: models.KindPrivate}}
	overrides := map[string]models.ChatKind{"utubebot": models.KindPrivate}
	engine := New(store, pool, page, overrides, nil)

	_, source, err := engine.Resolve(context.Background(), "@UtubeBot")
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, source)
	assert.Equal(t, 0, page.calls, "scrape path is skipped for overridden usernames")
	assert.Equal(t, 1, pool.calls, "override always fetches authoritatively")
}

func TestEngine_InvalidUsernameNotifies(t *testing.T) {
	store := cache.NewStore()
	pool := &fakeFetcher{rec: &janeRecord}
	page := &fakeScraper{err: scraper.ErrInvalidUsername}
	notify := &recordingNotifier{}
	engine := New(store, pool, page, nil, notify)

	_, _, err := engine.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, scraper.ErrInvalidUsername)
	assert.Equal(t, 0, pool.calls)

	require.Len(t, notify.events, 1)
	assert.Equal(t, notifier.EventInvalidUsername, notify.events[0].Kind)
	assert.Equal(t, "ghost", notify.events[0].Username)
}

func TestEngine_PoolErrorPropagatesWithoutCacheWrite(t *testing.T) {
	store := cache.NewStore()
	poolErr := errors.New("all flooded")
	pool := &fakeFetcher{err: poolErr}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "", Kind: models.KindPrivate}}
	engine := New(store, pool, page, nil, nil)

	_, _, err := engine.Resolve(context.Background(), "jane")
	assert.ErrorIs(t, err, poolErr)

	_, ok := store.Get("jane")
	assert.False(t, ok, "failed fetch must not write the cache")
}

func TestEngine_EmptyUsernameIsInvalid(t *testing.T) {
	engine := New(cache.NewStore(), &fakeFetcher{rec: &janeRecord},
		&fakeScraper{res: &scraper.Result{}}, nil, nil)

	_, _, err := engine.Resolve(context.Background(), "@")
	assert.ErrorIs(t, err, scraper.ErrInvalidUsername)
}
