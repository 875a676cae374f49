package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadAPIKeys reads the API key file, a yaml mapping from key to consumer
// name. The names show up in the usage report, the keys gate the resolve
// endpoint. Adding a key requires a restart.
func LoadAPIKeys(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read api keys file: %w", err)
	}

	keys := make(map[string]string)
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse api keys file: %w", err)
	}

	for key, name := range keys {
		if key == "" || name == "" {
			return nil, fmt.Errorf("api keys file: empty key or consumer name")
		}
	}

	return keys, nil
}
