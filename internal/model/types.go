package model

import (
	"fmt"
	"time"
)

// Health holds per-protocol alive ratios in [0, 1]. Missing ratios are nil.
type Health struct {
	Overall *float64 `json:"overall,omitempty"`
	HTTP    *float64 `json:"http,omitempty"`
	HTTPS   *float64 `json:"https,omitempty"`
	SOCKS4  *float64 `json:"socks4,omitempty"`
	SOCKS5  *float64 `json:"socks5,omitempty"`
}

// Reputation is one reputation score as reported by the server.
type Reputation struct {
	Kind  string  `json:"kind,omitempty"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// ReputationSummary groups the overall and per-protocol reputations of a proxy.
type ReputationSummary struct {
	Overall   *Reputation            `json:"overall,omitempty"`
	Protocols map[string]*Reputation `json:"protocols,omitempty"`
}

var protocolOrder = []string{"http", "https", "socks4", "socks5"}

// ProxyRow is one row of the proxy list.
type ProxyRow struct {
	ID             int64              `json:"id"`
	IP             string             `json:"ip"`
	Port           int                `json:"port"`
	EstimatedType  string             `json:"estimated_type"`
	ResponseTime   *int               `json:"response_time"`
	Country        string             `json:"country"`
	AnonymityLevel string             `json:"anonymity_level"`
	Alive          bool               `json:"alive"`
	Health         *Health            `json:"health,omitempty"`
	LatestCheck    *time.Time         `json:"latest_check,omitempty"`
	Reputation     *ReputationSummary `json:"reputation,omitempty"`
}

// Address returns ip:port.
func (p ProxyRow) Address() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

// PrimaryReputation returns the overall reputation, else the first protocol
// reputation in http, https, socks4, socks5 order, else nil.
func (p ProxyRow) PrimaryReputation() *Reputation {
	if p.Reputation == nil {
		return nil
	}
	if p.Reputation.Overall != nil {
		return p.Reputation.Overall
	}
	for _, proto := range protocolOrder {
		if r := p.Reputation.Protocols[proto]; r != nil {
			return r
		}
	}
	return nil
}

// HealthRatio returns the ratio for "overall" or a protocol name, nil when missing.
func (p ProxyRow) HealthRatio(kind string) *float64 {
	if p.Health == nil {
		return nil
	}
	switch kind {
	case "overall":
		return p.Health.Overall
	case "http":
		return p.Health.HTTP
	case "https":
		return p.Health.HTTPS
	case "socks4":
		return p.Health.SOCKS4
	case "socks5":
		return p.Health.SOCKS5
	}
	return nil
}

// SortValue returns the raw value a column sorts by.
func (p ProxyRow) SortValue(field string) any {
	switch field {
	case "id":
		return p.ID
	case "alive":
		return p.Alive
	case "ip":
		return p.IP
	case "port":
		return p.Port
	case "ip_port":
		// Zero-padded so text ordering matches numeric port ordering.
		return fmt.Sprintf("%s:%05d", p.IP, p.Port)
	case "response_time":
		return p.ResponseTime
	case "estimated_type":
		return p.EstimatedType
	case "country":
		return p.Country
	case "anonymity_level":
		return p.AnonymityLevel
	case "latest_check":
		return p.LatestCheck
	case "reputation":
		if r := p.PrimaryReputation(); r != nil {
			return r.Score
		}
		return nil
	case "health_overall":
		return p.HealthRatio("overall")
	case "health_http":
		return p.HealthRatio("http")
	case "health_https":
		return p.HealthRatio("https")
	case "health_socks4":
		return p.HealthRatio("socks4")
	case "health_socks5":
		return p.HealthRatio("socks5")
	}
	return nil
}

// ProxyPage is one server page of proxies.
type ProxyPage struct {
	Proxies []ProxyRow `json:"proxies"`
	Total   int        `json:"total"`
}

// HealthTone buckets a source by its alive ratio.
type HealthTone string

const (
	ToneHealthy   HealthTone = "healthy"
	ToneMixed     HealthTone = "mixed"
	ToneUnhealthy HealthTone = "unhealthy"
	ToneEmpty     HealthTone = "empty"
)

// ScrapeSourceRow is one row of the scrape-source list.
type ScrapeSourceRow struct {
	ID           int64  `json:"id"`
	URL          string `json:"url"`
	ProxyCount   int    `json:"proxy_count"`
	AliveCount   int    `json:"alive_count"`
	DeadCount    int    `json:"dead_count"`
	UnknownCount *int   `json:"unknown_count,omitempty"`
}

// AliveRatio returns alive/total, nil when the source has no proxies.
func (s ScrapeSourceRow) AliveRatio() *float64 {
	total := max(0, s.ProxyCount)
	if total == 0 {
		return nil
	}
	r := float64(max(0, s.AliveCount)) / float64(total)
	return &r
}

// Unknown returns the unknown count, derived from the other counts when not reported.
func (s ScrapeSourceRow) Unknown() int {
	if s.UnknownCount != nil {
		return max(0, *s.UnknownCount)
	}
	return max(0, s.ProxyCount-max(0, s.AliveCount)-max(0, s.DeadCount))
}

// Tone classifies the source health: >= 70% alive healthy, >= 40% mixed.
func (s ScrapeSourceRow) Tone() HealthTone {
	r := s.AliveRatio()
	switch {
	case r == nil:
		return ToneEmpty
	case *r >= 0.7:
		return ToneHealthy
	case *r >= 0.4:
		return ToneMixed
	default:
		return ToneUnhealthy
	}
}

// SortValue returns the raw value a source column sorts by.
func (s ScrapeSourceRow) SortValue(field string) any {
	switch field {
	case "id":
		return s.ID
	case "url":
		return s.URL
	case "proxy_count":
		return s.ProxyCount
	case "health":
		return s.AliveRatio()
	}
	return nil
}

// ReputationBreakdown counts a source's proxies per reputation label.
type ReputationBreakdown struct {
	Good    int `json:"good"`
	Neutral int `json:"neutral"`
	Poor    int `json:"poor"`
	Unknown int `json:"unknown"`
}

// ScrapeSourceDetail is the metadata shown above a source's proxy sublist.
type ScrapeSourceDetail struct {
	ScrapeSourceRow
	AddedAt             string              `json:"added_at"`
	AvgReputation       *float64            `json:"avg_reputation,omitempty"`
	LastProxyAddedAt    string              `json:"last_proxy_added_at,omitempty"`
	LastCheckedAt       string              `json:"last_checked_at,omitempty"`
	ReputationBreakdown ReputationBreakdown `json:"reputation_breakdown"`
}

// Remote column preference keys inside the user settings document.
const (
	PrefProxyListColumns         = "proxy_list_columns"
	PrefScrapeSourceProxyColumns = "scrape_source_proxy_columns"
	PrefScrapeSourceListColumns  = "scrape_source_list_columns"
)

// UserSettings is the server-side settings document. Only the column keys are
// interpreted here; everything else round-trips untouched.
type UserSettings map[string]any

// Columns returns the raw stored value for key, nil when absent.
func (u UserSettings) Columns(key string) any {
	if u == nil {
		return nil
	}
	return u[key]
}

// WithColumns returns a copy of u with key set to ids.
func (u UserSettings) WithColumns(key string, ids []string) UserSettings {
	out := make(UserSettings, len(u)+1)
	for k, v := range u {
		out[k] = v
	}
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}
	out[key] = list
	return out
}
