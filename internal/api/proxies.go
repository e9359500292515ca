package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"magpie/internal/filters"
	"magpie/internal/model"
)

// PageRequest selects one page of a proxy list.
type PageRequest struct {
	Page     int
	PageSize int
	Search   string
	Filters  *filters.Payload
}

func (r PageRequest) query() url.Values {
	q := r.Filters.Query()
	if r.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(r.PageSize))
	}
	if s := strings.TrimSpace(r.Search); s != "" {
		q.Set("search", s)
	}
	return q
}

func (r PageRequest) page() int {
	if r.Page < 1 {
		return 1
	}
	return r.Page
}

// FetchProxyPage fetches one page of the global proxy list.
func (c *Client) FetchProxyPage(ctx context.Context, req PageRequest) (model.ProxyPage, error) {
	var page model.ProxyPage
	if err := c.get(ctx, fmt.Sprintf("/getProxyPage/%d", req.page()), req.query(), &page); err != nil {
		return model.ProxyPage{}, fmt.Errorf("failed to fetch proxy page: %w", err)
	}
	return page, nil
}

// FetchSourceProxyPage fetches one page of the proxies found by a scrape source.
func (c *Client) FetchSourceProxyPage(ctx context.Context, sourceID int64, req PageRequest) (model.ProxyPage, error) {
	q := req.query()
	q.Set("page", strconv.Itoa(req.page()))

	var page model.ProxyPage
	if err := c.get(ctx, fmt.Sprintf("/scrapingSources/%d/proxies", sourceID), q, &page); err != nil {
		return model.ProxyPage{}, fmt.Errorf("failed to fetch source proxies: %w", err)
	}
	return page, nil
}

// FetchFilterVocabulary fetches the selectable filter values.
func (c *Client) FetchFilterVocabulary(ctx context.Context) (filters.Vocabulary, error) {
	var v filters.Vocabulary
	if err := c.get(ctx, "/proxyFilters", nil, &v); err != nil {
		return filters.Vocabulary{}, fmt.Errorf("failed to fetch filter options: %w", err)
	}
	return filters.NormalizeVocabulary(v), nil
}
