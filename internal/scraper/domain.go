package scraper

import (
	"net/url"
	"strings"
)

// NormalizeDomain reduces a URL or bare host to a lowercase host without a
// scheme, port, path, or "www." prefix. Returns "" for unparseable input.
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	host := raw
	if strings.Contains(raw, "/") || strings.Contains(raw, "://") {
		candidate := raw
		if !strings.Contains(candidate, "://") {
			candidate = "https://" + candidate
		}
		u, err := url.Parse(candidate)
		if err != nil || u.Hostname() == "" {
			return ""
		}
		host = u.Hostname()
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}

// SameDomain reports whether a URL belongs to the given domain, ignoring a
// "www." prefix and allowing subdomains of the target.
func SameDomain(domain, rawURL string) bool {
	target := NormalizeDomain(domain)
	host := NormalizeDomain(rawURL)
	if target == "" || host == "" {
		return false
	}
	return host == target || strings.HasSuffix(host, "."+target)
}
