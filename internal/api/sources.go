package api

import (
	"context"
	"fmt"

	"magpie/internal/model"
)

// FetchSourcePage fetches one page of scrape sources. The server picks the page size.
func (c *Client) FetchSourcePage(ctx context.Context, page int) ([]model.ScrapeSourceRow, error) {
	if page < 1 {
		page = 1
	}
	var rows []model.ScrapeSourceRow
	if err := c.get(ctx, fmt.Sprintf("/getScrapingSourcesPage/%d", page), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch scrape sources: %w", err)
	}
	if rows == nil {
		rows = []model.ScrapeSourceRow{}
	}
	return rows, nil
}

// FetchSourceCount returns the number of scrape sources.
func (c *Client) FetchSourceCount(ctx context.Context) (int, error) {
	var n int
	if err := c.get(ctx, "/getScrapingSourcesCount", nil, &n); err != nil {
		return 0, fmt.Errorf("failed to count scrape sources: %w", err)
	}
	return max(0, n), nil
}

// FetchSourceDetail fetches one scrape source's metadata.
func (c *Client) FetchSourceDetail(ctx context.Context, id int64) (model.ScrapeSourceDetail, error) {
	var d model.ScrapeSourceDetail
	if err := c.get(ctx, fmt.Sprintf("/scrapingSources/%d", id), nil, &d); err != nil {
		return model.ScrapeSourceDetail{}, fmt.Errorf("failed to fetch scrape source %d: %w", id, err)
	}
	return d, nil
}
