package view

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"magpie/internal/filters"
	"magpie/internal/model"
)

// SettingsBackend is the part of the API the cache reads through.
type SettingsBackend interface {
	FetchUserSettings(ctx context.Context) (model.UserSettings, error)
	SaveUserSettings(ctx context.Context, s model.UserSettings) error
	FetchFilterVocabulary(ctx context.Context) (filters.Vocabulary, error)
}

// SettingsCache holds the user settings document and the filter vocabulary
// for the lifetime of the app. Concurrent loads of the same value share one
// request, and failed loads are not cached.
type SettingsCache struct {
	backend SettingsBackend
	group   singleflight.Group

	mu       sync.Mutex
	settings model.UserSettings
	vocab    *filters.Vocabulary
}

// NewSettingsCache returns an empty cache reading through backend.
func NewSettingsCache(backend SettingsBackend) *SettingsCache {
	return &SettingsCache{backend: backend}
}

// Cached returns the settings document if it has been loaded.
func (c *SettingsCache) Cached() (model.UserSettings, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings, c.settings != nil
}

// Settings returns the settings document, loading it on first use.
func (c *SettingsCache) Settings(ctx context.Context) (model.UserSettings, error) {
	if s, ok := c.Cached(); ok {
		return s, nil
	}
	v, err, _ := c.group.Do("settings", func() (any, error) {
		s, err := c.backend.FetchUserSettings(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = model.UserSettings{}
		}
		c.mu.Lock()
		c.settings = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.UserSettings), nil
}

// Vocabulary returns the filter vocabulary, loading it on first use.
func (c *SettingsCache) Vocabulary(ctx context.Context) (filters.Vocabulary, error) {
	c.mu.Lock()
	cached := c.vocab
	c.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	v, err, _ := c.group.Do("vocabulary", func() (any, error) {
		vocab, err := c.backend.FetchFilterVocabulary(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.vocab = &vocab
		c.mu.Unlock()
		return vocab, nil
	})
	if err != nil {
		return filters.Vocabulary{}, err
	}
	return v.(filters.Vocabulary), nil
}

// SaveColumns stores ids under key in the settings document, leaving every
// other entry untouched. The cached document only changes once the server
// accepts the update.
func (c *SettingsCache) SaveColumns(ctx context.Context, key string, ids []string) error {
	current, err := c.Settings(ctx)
	if err != nil {
		return err
	}
	next := current.WithColumns(key, ids)
	if err := c.backend.SaveUserSettings(ctx, next); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings = next
	c.mu.Unlock()
	return nil
}
