package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/resolver-os/internal/cache"
	"github.com/blockedby/resolver-os/internal/models"
	"github.com/blockedby/resolver-os/internal/scraper"
)

// blockingFetcher stalls the first call until released, so a second request
// for the same username can pile up behind it.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (f *blockingFetcher) Fetch(context.Context, models.ChatKind, string) (*models.ChatRecord, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()

	if first {
		close(f.started)
		<-f.release
	}
	rec := janeRecord
	return &rec, nil
}

func TestEngine_ConcurrentRequestsShareOneFetch(t *testing.T) {
	fetcher := &blockingFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	page := &fakeScraper{res: &scraper.Result{Name: "Jane Doe", Bio: "", Kind: models.KindPrivate}}
	engine := New(cache.NewStore(), fetcher, page, nil, nil)

	var wg sync.WaitGroup
	results := make([]*models.ChatRecord, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, errs[0] = engine.Resolve(context.Background(), "jane")
	}()

	// wait until the first fetch is in flight, then send the second request
	<-fetcher.started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _, errs[1] = engine.Resolve(context.Background(), "jane")
	}()

	// give the second request time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, janeRecord, *results[0])
	assert.Equal(t, janeRecord, *results[1])
	assert.Equal(t, 1, fetcher.calls, "concurrent requests must share one API call")
}
