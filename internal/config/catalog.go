package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fastygo/taskpoints/domain"
)

// Catalog holds the optional file-provided personas and store items. Empty
// slices mean "keep the built-in defaults".
type Catalog struct {
	Personas   []domain.Persona   `mapstructure:"personas"`
	StoreItems []domain.StoreItem `mapstructure:"store_items"`
}

// LoadCatalog reads a YAML, JSON or TOML catalog file. An empty path
// returns an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return &Catalog{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var catalog Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	seen := make(map[string]bool, len(catalog.Personas))
	for _, p := range catalog.Personas {
		if p.ID == "" || p.SystemPrompt == "" {
			return nil, fmt.Errorf("catalog %s: persona needs id and system_prompt", path)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog %s: duplicate persona %q", path, p.ID)
		}
		seen[p.ID] = true
	}
	for _, item := range catalog.StoreItems {
		if item.Price < 0 {
			return nil, fmt.Errorf("catalog %s: item %q has a negative price", path, item.Name)
		}
	}
	return &catalog, nil
}
