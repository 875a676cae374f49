package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	events []Event
}

func (c *countingSink) Notify(_ context.Context, ev Event) {
	c.events = append(c.events, ev)
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventFloodWait, "jane", "waiting 30 seconds")

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventFloodWait, ev.Kind)
	assert.Equal(t, "jane", ev.Username)
	assert.False(t, ev.At.IsZero())

	other := NewEvent(EventFloodWait, "jane", "waiting 30 seconds")
	assert.NotEqual(t, ev.ID, other.ID, "every event gets its own id")
}

func TestMulti_FansOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	m := Multi{a, b}

	ev := NewEvent(EventInternalError, "", "boom")
	m.Notify(context.Background(), ev)

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, ev.ID, a.events[0].ID)
}

func TestFormat(t *testing.T) {
	ev := NewEvent(EventFloodWait, "jane", "client session_0 flooded, waiting 30 seconds")
	msg := format(ev)
	assert.Contains(t, msg, "@jane")
	assert.Contains(t, msg, "30 seconds")

	report := Event{Kind: EventUsageReport, Detail: "the report body"}
	assert.Equal(t, "the report body", format(report))
}
