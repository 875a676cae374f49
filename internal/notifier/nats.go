package notifier

import (
	"context"
	"time"

	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/nats"
)

// NATS publishes events to a JetStream subject so external consumers can
// build their own alerting on top.
type NATS struct {
	client  *nats.Client
	subject string
	log     *logger.Logger
}

// NewNATS creates a NATS sink.
func NewNATS(client *nats.Client, subject string) *NATS {
	return &NATS{
		client:  client,
		subject: subject,
		log:     logger.Get(),
	}
}

// Notify implements Notifier. Publishing is fire-and-forget.
func (n *NATS) Notify(_ context.Context, ev Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := n.client.Publish(ctx, n.subject, ev); err != nil {
			n.log.Error().Err(err).Str("kind", string(ev.Kind)).
				Msg("notifier: nats publish failed")
		}
	}()
}
