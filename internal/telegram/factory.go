package telegram

import (
	"fmt"
	"path/filepath"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"

	"github.com/blockedby/resolver-os/internal/config"
)

// NewSessionClient creates a gotgproto client backed by a sqlite session
// file. The file must already hold an authorized session (see cmd/tg-auth),
// the service never does interactive login.
func NewSessionClient(cfg *config.Config, sessionName string) (*gotgproto.Client, error) {
	path := SessionPath(cfg.SessionDir, sessionName)

	proto, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use stored session
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open(path)),
			DisableCopyright: true,
			InMemory:         false,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram client %s: %w", sessionName, err)
	}

	return proto, nil
}

// NewPoolClients builds the ordered client pool from the configured session
// names. Order matters: selection always starts at the first slot.
func NewPoolClients(cfg *config.Config) ([]*Client, error) {
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		return nil, fmt.Errorf("TG_API_ID and TG_API_HASH are required")
	}
	if len(cfg.SessionNames) == 0 {
		return nil, fmt.Errorf("at least one session name is required")
	}

	clients := make([]*Client, 0, len(cfg.SessionNames))
	for _, name := range cfg.SessionNames {
		proto, err := NewSessionClient(cfg, name)
		if err != nil {
			return nil, err
		}
		clients = append(clients, NewClient(name, proto, cfg.FetchTimeout))
	}
	return clients, nil
}

// SessionPath returns the sqlite session file for a session name.
func SessionPath(dir, name string) string {
	return filepath.Join(dir, name+".db")
}
