package filters

import (
	"net/url"
	"strconv"
)

// Query encodes the payload as query parameters. A nil payload encodes to nothing.
func (p *Payload) Query() url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	for _, v := range p.Protocols {
		q.Add("protocol", v)
	}
	for _, v := range p.Countries {
		q.Add("country", v)
	}
	for _, v := range p.Types {
		q.Add("type", v)
	}
	for _, v := range p.AnonymityLevels {
		q.Add("anonymity", v)
	}
	for _, v := range p.ReputationLabels {
		q.Add("reputation", v)
	}
	if p.MaxTimeout > 0 {
		q.Set("maxTimeout", strconv.Itoa(p.MaxTimeout))
	}
	if p.MaxRetries > 0 {
		q.Set("maxRetries", strconv.Itoa(p.MaxRetries))
	}
	return q
}
