package resolver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blockedby/resolver-os/internal/cache"
	"github.com/blockedby/resolver-os/internal/models"
)

// defaultOverrides lists usernames whose public page is known to misbehave
// (banned on iOS clients but perfectly fine chats). The scrape path is
// skipped for them, so their kind has to be pinned here.
var defaultOverrides = map[string]models.ChatKind{
	"utubebot": models.KindPrivate,
}

// LoadOverrides reads the override table from a yaml file mapping username
// to chat kind. An empty path yields the built-in table.
func LoadOverrides(path string) (map[string]models.ChatKind, error) {
	if path == "" {
		out := make(map[string]models.ChatKind, len(defaultOverrides))
		for k, v := range defaultOverrides {
			out[k] = v
		}
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}

	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides file: %w", err)
	}

	out := make(map[string]models.ChatKind, len(raw))
	for username, kind := range raw {
		k := models.ChatKind(kind)
		if !k.Valid() {
			return nil, fmt.Errorf("overrides file: unknown chat kind %q for %q", kind, username)
		}
		out[cache.Normalize(username)] = k
	}
	return out, nil
}
