package extractor

import (
	"regexp"
	"strings"
)

// Addresses matching these never belong to a person; they come from asset
// paths, tracking pixels, and machine-generated mailboxes.
var (
	imageExtRe = regexp.MustCompile(`\.(png|jpe?g|gif|webp|svg)$`)
	numericRe  = regexp.MustCompile(`^[0-9]+$`)
	longHexRe  = regexp.MustCompile(`^[0-9a-f]{20,}$`)

	placeholderDomains = map[string]struct{}{
		"example.com":    {},
		"example.org":    {},
		"example.net":    {},
		"test.com":       {},
		"email.com":      {},
		"domain.com":     {},
		"yourdomain.com": {},
		"localhost":      {},
	}

	machinePrefixes = []string{
		"noreply", "no-reply", "no_reply", "donotreply", "do-not-reply",
		"postmaster", "mailer-daemon", "bounce",
	}
)

// acceptable applies the rejection rules to a lowercased candidate.
func acceptable(addr string) bool {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	local, domain := addr[:at], addr[at+1:]

	if len(local) > 64 {
		return false
	}
	if len(domain) > 255 || !strings.Contains(domain, ".") {
		return false
	}
	if imageExtRe.MatchString(domain) {
		return false
	}
	if numericRe.MatchString(local) || longHexRe.MatchString(local) {
		return false
	}
	if _, bad := placeholderDomains[domain]; bad {
		return false
	}
	for _, prefix := range machinePrefixes {
		if strings.HasPrefix(local, prefix) {
			return false
		}
	}
	return true
}
