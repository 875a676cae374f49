// Package stats tracks per-consumer usage of the resolve endpoint.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blockedby/resolver-os/internal/notifier"
)

var resolveCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "resolver_requests_total",
	Help: "Resolve requests by consumer and source (cache or api_call).",
}, []string{"consumer", "source"})

// Counter counts resolve calls per consumer and source. The map resets with
// every report, the prometheus counters only ever grow.
type Counter struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]map[string]int)}
}

// Record counts one call for a consumer. source is "cache" or "api_call".
func (c *Counter) Record(consumer, source string) {
	resolveCounter.WithLabelValues(consumer, source).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[consumer] == nil {
		c.counts[consumer] = make(map[string]int)
	}
	c.counts[consumer][source]++
}

// SnapshotAndReset returns the accumulated counts and clears them.
func (c *Counter) SnapshotAndReset() map[string]map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.counts
	c.counts = make(map[string]map[string]int)
	return out
}

// RunReporter periodically sends the usage report through the notifier until
// the context ends. The first report goes out after one full interval.
func (c *Counter) RunReporter(ctx context.Context, interval time.Duration, notify notifier.Notifier) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := FormatReport(c.SnapshotAndReset())
			notify.Notify(ctx, notifier.NewEvent(notifier.EventUsageReport, "", report))
		}
	}
}

// FormatReport renders the counts the way the ops channel expects them.
func FormatReport(counts map[string]map[string]int) string {
	var b strings.Builder
	b.WriteString("This time, the following consumers used these many calls:\n\n")

	consumers := make([]string, 0, len(counts))
	for name := range counts {
		consumers = append(consumers, name)
	}
	sort.Strings(consumers)

	for _, name := range consumers {
		total := 0
		for _, n := range counts[name] {
			total += n
		}
		fmt.Fprintf(&b, "• %s: %d (cache %d, api %d)\n",
			name, total, counts[name]["cache"], counts[name]["api_call"])
	}

	b.WriteString("\nSee you again next interval :)")
	return b.String()
}
