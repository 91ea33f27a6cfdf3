package relay

import (
	"fmt"
	"strings"

	"github.com/tidwall/match"
)

// HeaderRule binds a hostname pattern to the Origin/Referer pair that
// satisfies that host's access checks. A pattern without wildcards is
// treated as a substring match; `*` and `?` follow glob semantics, so
// prefix and suffix rules work without any resolver changes.
type HeaderRule struct {
	Pattern string `json:"pattern"`
	Origin  string `json:"origin"`
	Referer string `json:"referer"`
}

// HeaderPolicy is an ordered rule table. Rules are checked in table
// order and the first match wins.
type HeaderPolicy struct {
	Rules []HeaderRule `json:"rules"`
}

// DefaultHeaderPolicy returns the built-in rule table for hosts known
// to gate playlists on Origin/Referer.
func DefaultHeaderPolicy() *HeaderPolicy {
	return &HeaderPolicy{Rules: []HeaderRule{
		{
			Pattern: "krussdomi.com",
			Origin:  "https://hls.krussdomi.com",
			Referer: "https://hls.krussdomi.com/",
		},
		{
			Pattern: "megacloud.tv",
			Origin:  "https://megacloud.tv",
			Referer: "https://megacloud.tv/",
		},
		{
			Pattern: "rapid-cloud.co",
			Origin:  "https://rapid-cloud.co",
			Referer: "https://rapid-cloud.co/",
		},
	}}
}

// Resolve returns the override headers for a target hostname, or an
// empty map when no rule matches. It never fails.
func (p *HeaderPolicy) Resolve(hostname string) map[string]string {
	for _, rule := range p.Rules {
		if !matchHostname(hostname, rule.Pattern) {
			continue
		}
		headers := make(map[string]string, 2)
		if rule.Origin != "" {
			headers["Origin"] = rule.Origin
		}
		if rule.Referer != "" {
			headers["Referer"] = rule.Referer
		}
		return headers
	}
	return map[string]string{}
}

func matchHostname(hostname, pattern string) bool {
	hostname = strings.ToLower(hostname)
	pattern = strings.ToLower(pattern)
	if !strings.ContainsAny(pattern, "*?") {
		pattern = "*" + pattern + "*"
	}
	return match.Match(hostname, pattern)
}

func (p *HeaderPolicy) validate() error {
	for i, rule := range p.Rules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("%d empty rule pattern", i)
		}
		if rule.Origin == "" && rule.Referer == "" {
			return fmt.Errorf("%d rule %s sets no headers", i, rule.Pattern)
		}
	}
	return nil
}

func NewHeaderPolicyFromFile(filename string) (*HeaderPolicy, error) {
	var policy HeaderPolicy
	if err := loadJSONFile(filename, &policy); err != nil {
		return nil, err
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}
