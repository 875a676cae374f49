// Package telegram provides the authenticated client pool and flood-wait
// tracking for authoritative chat lookups.
package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/tg"

	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/models"
)

// Client wraps one gotgproto session and implements Caller. The session file
// name doubles as the stable pool identifier.
type Client struct {
	name    string
	proto   *gotgproto.Client
	limiter *RateLimiter
	timeout time.Duration
	log     *logger.Logger

	// notice channel peer, resolved once on first use
	noticeMu   sync.Mutex
	noticePeer *tg.InputPeerChannel
}

// NewClient wraps an authenticated gotgproto client.
func NewClient(name string, proto *gotgproto.Client, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		proto:   proto,
		limiter: DefaultRateLimiter(),
		timeout: timeout,
		log:     logger.Get(),
	}
}

// Name returns the session name identifying this client in the pool.
func (c *Client) Name() string {
	return c.name
}

// FetchChat resolves a username through the authoritative API and maps the
// result to a ChatRecord. The kind decides which "full" call is used: the
// bio of a user and the about text of a channel live behind different
// requests.
func (c *Client) FetchChat(ctx context.Context, kind models.ChatKind, username string) (*models.ChatRecord, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Str("client", c.name).Str("username", username).
		Str("kind", string(kind)).Msg("telegram: resolving username")

	api := c.proto.API()
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		return nil, c.classify(err)
	}

	if kind == models.KindPrivate {
		return c.fetchUser(ctx, api, resolved, username)
	}
	return c.fetchChannel(ctx, api, resolved, kind, username)
}

func (c *Client) fetchUser(ctx context.Context, api *tg.Client, resolved *tg.ContactsResolvedPeer, username string) (*models.ChatRecord, error) {
	var user *tg.User
	for _, u := range resolved.Users {
		if full, ok := u.(*tg.User); ok {
			user = full
			break
		}
	}
	if user == nil {
		// resolution succeeded but returned no user, e.g. a stale override
		// entry pointing at a chat that changed kind
		return nil, fmt.Errorf("%w: no user peer for %s", ErrUsernameNotFound, username)
	}

	full, err := api.UsersGetFullUser(ctx, &tg.InputUser{
		UserID:     user.ID,
		AccessHash: user.AccessHash,
	})
	if err != nil {
		return nil, c.classify(err)
	}

	return &models.ChatRecord{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       full.FullUser.About,
		Kind:      models.KindPrivate,
		ChatID:    user.ID,
	}, nil
}

func (c *Client) fetchChannel(ctx context.Context, api *tg.Client, resolved *tg.ContactsResolvedPeer, kind models.ChatKind, username string) (*models.ChatRecord, error) {
	var channel *tg.Channel
	for _, ch := range resolved.Chats {
		if full, ok := ch.(*tg.Channel); ok {
			channel = full
			break
		}
	}
	if channel == nil {
		return nil, fmt.Errorf("%w: no channel peer for %s", ErrUsernameNotFound, username)
	}

	full, err := api.ChannelsGetFullChannel(ctx, &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	})
	if err != nil {
		return nil, c.classify(err)
	}

	channelFull, ok := full.FullChat.(*tg.ChannelFull)
	if !ok {
		return nil, fmt.Errorf("unexpected full chat type %T for %s", full.FullChat, username)
	}

	// channels have no last name, the title goes into FirstName
	return &models.ChatRecord{
		FirstName: channel.Title,
		LastName:  "",
		Bio:       channelFull.About,
		Kind:      kind,
		ChatID:    channel.ID,
	}, nil
}

// classify maps raw API errors onto the pool's error taxonomy.
func (c *Client) classify(err error) error {
	if seconds := floodWaitSeconds(err); seconds > 0 {
		return &FloodWaitError{Seconds: seconds}
	}
	if isUnknownUsername(err) {
		return fmt.Errorf("%w: %v", ErrUsernameNotFound, err)
	}
	return err
}

// SendNotice sends a plain message to the given channel, used by the
// operational notifier. The channel peer is resolved once and reused.
func (c *Client) SendNotice(ctx context.Context, channel string, text string) error {
	peer, err := c.noticeChannelPeer(ctx, channel)
	if err != nil {
		return err
	}

	api := c.proto.API()
	_, err = api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: rand.Int63(),
	})
	if err != nil {
		return fmt.Errorf("send notice: %w", err)
	}
	return nil
}

func (c *Client) noticeChannelPeer(ctx context.Context, channel string) (*tg.InputPeerChannel, error) {
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()

	if c.noticePeer != nil {
		return c.noticePeer, nil
	}

	api := c.proto.API()
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: channel,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve notice channel %s: %w", channel, err)
	}

	for _, ch := range resolved.Chats {
		if full, ok := ch.(*tg.Channel); ok {
			c.noticePeer = &tg.InputPeerChannel{
				ChannelID:  full.ID,
				AccessHash: full.AccessHash,
			}
			return c.noticePeer, nil
		}
	}
	return nil, fmt.Errorf("notice channel %s is not a channel", channel)
}
