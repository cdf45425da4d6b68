// Package config loads the YAML seed file that defines categories and feeds.
// The seed replaces an admin UI as the way sources enter the store: feeds
// removed from the file are not deleted, deactivation excludes them from
// ingestion.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type Seed struct {
	Categories []SeedCategory `yaml:"categories"`
	Feeds      []SeedFeed     `yaml:"feeds"`
}

type SeedCategory struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

type SeedFeed struct {
	Title    string `yaml:"title"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Active   *bool  `yaml:"active"` // nil defaults to true
}

// IsActive reports whether the feed should take part in ingestion.
func (f SeedFeed) IsActive() bool {
	return f.Active == nil || *f.Active
}

// Load reads and validates the seed file at path.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	if err := validate(&seed); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}

	return &seed, nil
}

func validate(seed *Seed) error {
	categories := make(map[string]struct{}, len(seed.Categories))
	for i, category := range seed.Categories {
		if category.Name == "" {
			return fmt.Errorf("category %d: missing name", i)
		}
		if _, ok := categories[category.Name]; ok {
			return fmt.Errorf("duplicate category %q", category.Name)
		}
		categories[category.Name] = struct{}{}
	}

	urls := make(map[string]struct{}, len(seed.Feeds))
	for i, feed := range seed.Feeds {
		if feed.Title == "" {
			return fmt.Errorf("feed %d: missing title", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feed %q: missing url", feed.Title)
		}
		if parsed, err := url.Parse(feed.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("feed %q: invalid url %q", feed.Title, feed.URL)
		}
		if _, ok := categories[feed.Category]; !ok {
			return fmt.Errorf("feed %q: unknown category %q", feed.Title, feed.Category)
		}
		if _, ok := urls[feed.URL]; ok {
			return fmt.Errorf("duplicate feed url %q", feed.URL)
		}
		urls[feed.URL] = struct{}{}
	}

	return nil
}
