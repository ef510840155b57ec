// Package domains canonicalizes URLs and hostnames so provider-reported
// sources can be compared with the analyzed site.
package domains

import (
	"net/url"
	"strings"
)

const wwwPrefix = "www."

// Normalize reduces a URL or bare host to a lowercase hostname without a
// leading "www." or a trailing slash. Input that cannot be parsed as a host
// is returned unchanged.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}

	// bare hosts are parsed as network-path references so paths and ports drop out
	target := s
	if !strings.Contains(s, "://") {
		target = "//" + s
	}

	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, wwwPrefix)

	return strings.TrimSuffix(host, "/")
}

// FuzzyEquals reports whether two domains refer to the same site: equal after
// normalization, or one contains the other (blog.example.com ~ example.com).
// Short domains can match unrelated hosts that contain them; callers accept
// that approximation. Empty values never match.
func FuzzyEquals(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}

	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}
