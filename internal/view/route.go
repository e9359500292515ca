package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"magpie/internal/api"
	"magpie/internal/model"
	"magpie/internal/pagination"
	"magpie/internal/persist"
)

// ProxyListOwner names the global proxy list screen.
const ProxyListOwner = "proxy_list"

// ErrInvalidSourceID is returned for scrape source ids that are not positive integers.
var ErrInvalidSourceID = errors.New("invalid scrape source identifier")

// ParseSourceID parses a scrape source id taken from navigation input.
func ParseSourceID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSourceID, raw)
	}
	return id, nil
}

// SourceProxiesOwner names the proxy sublist of one scrape source.
func SourceProxiesOwner(id int64) string {
	return fmt.Sprintf("scrape_source_proxies.%d", id)
}

// ProxyAPI is the part of the API the proxy screens read from.
type ProxyAPI interface {
	FetchProxyPage(ctx context.Context, req api.PageRequest) (model.ProxyPage, error)
	FetchSourceProxyPage(ctx context.Context, sourceID int64, req api.PageRequest) (model.ProxyPage, error)
}

// Env carries the app-scoped dependencies shared by every screen.
type Env struct {
	API            ProxyAPI
	Settings       *SettingsCache
	Local          persist.Store
	Session        persist.Store
	SearchDebounce time.Duration
	Logger         zerolog.Logger
}

// NewGlobalProxyList builds the controller of the proxy list screen.
func NewGlobalProxyList(env Env) *ProxyList {
	return NewProxyList(ProxyListConfig{
		Owner:           ProxyListOwner,
		PrefKey:         model.PrefProxyListColumns,
		Fetch:           env.API.FetchProxyPage,
		Settings:        env.Settings,
		Local:           env.Local,
		Session:         env.Session,
		DefaultPageSize: pagination.DefaultPageSize,
		SearchDebounce:  env.SearchDebounce,
		Logger:          env.Logger,
	})
}

// NewSourceProxyList builds the controller of one scrape source's proxy sublist.
// Every source shares one remote column layout but keeps its own position and filters.
func NewSourceProxyList(env Env, sourceID int64) *ProxyList {
	return NewProxyList(ProxyListConfig{
		Owner:   SourceProxiesOwner(sourceID),
		PrefKey: model.PrefScrapeSourceProxyColumns,
		Fetch: func(ctx context.Context, req api.PageRequest) (model.ProxyPage, error) {
			return env.API.FetchSourceProxyPage(ctx, sourceID, req)
		},
		Settings:        env.Settings,
		Local:           env.Local,
		Session:         env.Session,
		DefaultPageSize: pagination.DefaultSublistPageSize,
		SearchDebounce:  env.SearchDebounce,
		Logger:          env.Logger,
	})
}
