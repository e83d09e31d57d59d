package resolver

import (
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/net/publicsuffix"
)

// penaltyDomains are social and aggregator hosts that search frequently
// surfaces ahead of a company's own site.
var penaltyDomains = []string{
	"linkedin.com", "facebook.com", "instagram.com", "twitter.com",
	"youtube.com", "medium.com", "github.com", "glassdoor.com",
	"indeed.com", "crunchbase.com", "bloomberg.com", "wikipedia.org",
}

const (
	socialPenalty    = 25
	minCompanyLength = 3
	neutralScore     = 50
)

var (
	legalSuffixes = []string{
		" inc", " inc.", " incorporated", " llc", " ltd", " ltd.", " limited",
		" gmbh", " ag", " sa", " corp", " corp.", " corporation", " co", " co.",
	}
	nonAlnum = regexp.MustCompile(`[^a-z0-9]`)
)

// CleanCompanyName lowercases a company name, strips a trailing legal form,
// and drops everything that is not a letter or digit.
func CleanCompanyName(company string) string {
	cleaned := strings.ToLower(strings.TrimSpace(company))
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(cleaned, suffix) {
			cleaned = strings.TrimSuffix(cleaned, suffix)
			break
		}
	}
	return nonAlnum.ReplaceAllString(cleaned, "")
}

// ScoreDomain rates how well host matches company, 0..100. The comparison
// runs against the registrable label of the host (eTLD+1 minus the public
// suffix); social and aggregator hosts are penalized. Deterministic.
func ScoreDomain(company, host string) int {
	base := CleanCompanyName(company)
	if host == "" {
		return 0
	}
	if len(base) < minCompanyLength {
		// Too little signal for a reliable comparison either way.
		return neutralScore
	}

	label := registrableLabel(host)
	if label == "" {
		return 0
	}

	score := similarity(base, label)
	for _, penalized := range penaltyDomains {
		if host == penalized || strings.HasSuffix(host, "."+penalized) {
			score -= socialPenalty
			break
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// registrableLabel extracts the label before the public suffix, e.g.
// "acme" from "shop.acme.co.uk".
func registrableLabel(host string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Unlisted suffix; fall back to the leftmost label after www.
		parts := strings.Split(strings.TrimPrefix(host, "www."), ".")
		if len(parts) == 0 {
			return ""
		}
		return parts[0]
	}
	return strings.SplitN(etld1, ".", 2)[0]
}

func similarity(base, label string) int {
	switch {
	case base == label:
		return 100
	case strings.Contains(label, base) || strings.Contains(base, label):
		return 85
	}
	// Subsequence match catches abbreviations and squeezed names.
	if matches := fuzzy.Find(base, []string{label}); len(matches) > 0 {
		return 60
	}
	if matches := fuzzy.Find(label, []string{base}); len(matches) > 0 {
		return 60
	}
	return 0
}
