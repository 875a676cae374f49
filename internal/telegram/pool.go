package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/models"
	"github.com/blockedby/resolver-os/internal/notifier"
)

// Caller is one authenticated client slot in the pool.
type Caller interface {
	// Name is the stable unique identifier of the session.
	Name() string
	// FetchChat performs the authoritative API call for a username.
	FetchChat(ctx context.Context, kind models.ChatKind, username string) (*models.ChatRecord, error)
}

// Pool is an ordered collection of clients with flood-aware selection.
// When one client is rate-limited the fetch fails over to the next, so a
// single FLOOD_WAIT does not take the whole service down.
type Pool struct {
	clients []Caller
	tracker *Tracker
	notify  notifier.Notifier
	log     *logger.Logger
}

// NewPool creates a pool over the given clients, in order.
func NewPool(clients []Caller, tracker *Tracker, notify notifier.Notifier) *Pool {
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Pool{
		clients: clients,
		tracker: tracker,
		notify:  notify,
		log:     logger.Get(),
	}
}

// Tracker exposes the flood state, read-only use only.
func (p *Pool) Tracker() *Tracker {
	return p.tracker
}

// Acquire returns the first client not currently in cooldown, or an
// AllFloodedError carrying the minimum remaining wait.
func (p *Pool) Acquire() (Caller, error) {
	for _, c := range p.clients {
		if !p.tracker.Flooded(c.Name()) {
			return c, nil
		}
	}
	min, _ := p.tracker.Min()
	return nil, &AllFloodedError{MinSeconds: min}
}

// Fetch performs the authoritative fetch with failover. Selection walks the
// pool in order, skipping flooded clients and clients already attempted for
// this request. A flood error records the cooldown and moves on to the next
// client.
//
// Two exhaustion outcomes exist deliberately and are not unified: if every
// client is already flooded before the first call, the error carries the
// global minimum remaining wait; if the pool empties during failover, the
// error carries the wait of the flood error caught last.
func (p *Pool) Fetch(ctx context.Context, kind models.ChatKind, username string) (*models.ChatRecord, error) {
	attempted := make(map[string]bool)
	var lastFlood *FloodWaitError

	for {
		var picked Caller
		for _, c := range p.clients {
			if attempted[c.Name()] || p.tracker.Flooded(c.Name()) {
				continue
			}
			picked = c
			break
		}

		if picked == nil {
			if lastFlood != nil {
				ev := notifier.NewEvent(notifier.EventAllFlooded, username,
					fmt.Sprintf("all clients flooded: %v", p.tracker.Snapshot()))
				ev.Seconds = lastFlood.Seconds
				p.notify.Notify(ctx, ev)
				p.log.Warn().Str("username", username).Int("retry_after", lastFlood.Seconds).
					Msg("telegram: every client flooded during failover")
				return nil, lastFlood
			}
			min, _ := p.tracker.Min()
			p.log.Warn().Str("username", username).Int("retry_after", min).
				Msg("telegram: no client available for fetch")
			return nil, &AllFloodedError{MinSeconds: min}
		}

		rec, err := picked.FetchChat(ctx, kind, username)
		if err == nil {
			return rec, nil
		}

		var fw *FloodWaitError
		switch {
		case errors.As(err, &fw):
			p.tracker.Flood(picked.Name(), fw.Seconds)
			attempted[picked.Name()] = true
			lastFlood = fw

			ev := notifier.NewEvent(notifier.EventFloodWait, username,
				fmt.Sprintf("client %s flooded, waiting %d seconds", picked.Name(), fw.Seconds))
			ev.Seconds = fw.Seconds
			p.notify.Notify(ctx, ev)
			p.log.Warn().Str("client", picked.Name()).Str("username", username).
				Int("wait_seconds", fw.Seconds).Msg("telegram: FLOOD_WAIT, failing over")
			// try the next client
		case errors.Is(err, ErrUsernameNotFound):
			p.notify.Notify(ctx, notifier.NewEvent(notifier.EventUsernameNotFound, username,
				fmt.Sprintf("client %s: %v", picked.Name(), err)))
			p.log.Info().Str("username", username).Msg("telegram: username not found")
			return nil, err
		default:
			return nil, fmt.Errorf("fetch chat %s via %s: %w", username, picked.Name(), err)
		}
	}
}
