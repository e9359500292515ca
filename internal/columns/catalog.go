package columns

// Proxy is the column catalogue shared by the proxy list and the per-source proxy sublist.
var Proxy = NewRegistry(
	[]Definition{
		{ID: "alive", Label: "Status", SortField: "alive", Example: "alive", Width: 8},
		{ID: "health_overall", Label: "Overall Health", SortField: "health_overall", Tooltip: "Health ratio across all checks", Example: "82%", Width: 8},
		{ID: "health_http", Label: "HTTP Health", SortField: "health_http", Tooltip: "Health ratio for HTTP checks", Example: "79%", Width: 8},
		{ID: "health_https", Label: "HTTPS Health", SortField: "health_https", Tooltip: "Health ratio for HTTPS checks", Example: "85%", Width: 8},
		{ID: "health_socks4", Label: "SOCKS4 Health", SortField: "health_socks4", Tooltip: "Health ratio for SOCKS4 checks", Example: "68%", Width: 8},
		{ID: "health_socks5", Label: "SOCKS5 Health", SortField: "health_socks5", Tooltip: "Health ratio for SOCKS5 checks", Example: "71%", Width: 8},
		{ID: "ip", Label: "IP Address", SortField: "ip", Example: "127.0.0.1", Width: 16},
		{ID: "ip_port", Label: "IP:Port", SortField: "ip_port", Example: "127.0.0.1:8080", Width: 22},
		{ID: "port", Label: "Port", SortField: "port", Example: "8080", Width: 6},
		{ID: "response_time", Label: "Time", SortField: "response_time", Tooltip: "Response Time", Example: "120 ms", Width: 9},
		{ID: "estimated_type", Label: "Type", SortField: "estimated_type", Tooltip: "Estimated Type", Example: "HTTP", Width: 10},
		{ID: "country", Label: "Country", SortField: "country", Example: "US", Width: 14},
		{ID: "reputation", Label: "Reputation", SortField: "reputation", Example: "Good (82)", Width: 14},
		{ID: "latest_check", Label: "Last Check", SortField: "latest_check", Example: "2026-02-20 10:30", Width: 16},
		{ID: "actions", Label: "Actions", Example: "Details", Width: 8},
	},
	[]string{
		"alive",
		"health_overall",
		"health_http",
		"health_https",
		"health_socks4",
		"health_socks5",
		"ip_port",
		"response_time",
		"estimated_type",
		"country",
		"reputation",
		"latest_check",
		"actions",
	},
	map[string]string{
		"alive_ratio_overall": "health_overall",
		"alive_ratio_http":    "health_http",
		"alive_ratio_https":   "health_https",
		"alive_ratio_socks4":  "health_socks4",
		"alive_ratio_socks5":  "health_socks5",
	},
	"ip",
)

// Sources is the column catalogue of the scrape-source list.
var Sources = NewRegistry(
	[]Definition{
		{ID: "url", Label: "URL", SortField: "url", Example: "https://source.example/list", Width: 44},
		{ID: "proxy_count", Label: "Proxy Count", SortField: "proxy_count", Example: "12,345", Width: 12},
		{ID: "health", Label: "Health", SortField: "health", Example: "82% alive", Width: 12},
		{ID: "robots_check", Label: "Robots Check", Example: "Check robots.txt", Width: 14},
		{ID: "actions", Label: "Actions", Example: "Open", Width: 8},
	},
	[]string{"url", "proxy_count", "health", "robots_check", "actions"},
	map[string]string{"details": "actions"},
	"url",
)
