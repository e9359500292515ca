package api

import (
	"context"
	"fmt"

	"magpie/internal/model"
)

// FetchUserSettings fetches the user's settings document.
func (c *Client) FetchUserSettings(ctx context.Context) (model.UserSettings, error) {
	var s model.UserSettings
	if err := c.get(ctx, "/user/settings", nil, &s); err != nil {
		return nil, fmt.Errorf("failed to fetch user settings: %w", err)
	}
	if s == nil {
		s = model.UserSettings{}
	}
	return s, nil
}

// SaveUserSettings replaces the user's settings document.
func (c *Client) SaveUserSettings(ctx context.Context, s model.UserSettings) error {
	if err := c.post(ctx, "/user/settings", s, nil); err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}
	return nil
}
