package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/blockedby/resolver-os/internal/logger"
)

// NoticeSender sends a plain text message to a channel, implemented by
// telegram.Client.
type NoticeSender interface {
	SendNotice(ctx context.Context, channel string, text string) error
}

// Telegram delivers events as messages to an operations channel, the same
// place a human already watches. Delivery runs detached from the request.
type Telegram struct {
	sender  NoticeSender
	channel string
	timeout time.Duration
	log     *logger.Logger
}

// NewTelegram creates a Telegram sink posting to the given channel username.
func NewTelegram(sender NoticeSender, channel string) *Telegram {
	return &Telegram{
		sender:  sender,
		channel: channel,
		timeout: 30 * time.Second,
		log:     logger.Get(),
	}
}

// Notify implements Notifier. Failures are logged, never propagated: a dead
// notification channel must not break resolution.
func (t *Telegram) Notify(_ context.Context, ev Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := t.sender.SendNotice(ctx, t.channel, format(ev)); err != nil {
			t.log.Error().Err(err).Str("kind", string(ev.Kind)).
				Msg("notifier: telegram delivery failed")
		}
	}()
}

func format(ev Event) string {
	switch ev.Kind {
	case EventInvalidUsername:
		return fmt.Sprintf("The expected parse fail happened, with the username @%s:\n%s", ev.Username, ev.Detail)
	case EventFloodWait:
		return fmt.Sprintf("A FloodWait happened!!! With the username @%s:\n%s", ev.Username, ev.Detail)
	case EventAllFlooded:
		return fmt.Sprintf("All clients are flooded for @%s:\n%s", ev.Username, ev.Detail)
	case EventUsernameNotFound:
		return fmt.Sprintf("The API does not know the username @%s:\n%s", ev.Username, ev.Detail)
	case EventInternalError:
		return fmt.Sprintf("Oh no, an unexpected error happened, but at least I can tell you about it:\n%s", ev.Detail)
	case EventUsageReport:
		return ev.Detail
	}
	return fmt.Sprintf("%s @%s: %s", ev.Kind, ev.Username, ev.Detail)
}
