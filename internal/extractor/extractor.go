// Package extractor pulls email addresses out of HTML pages, scores them,
// and merges candidates across a crawl.
package extractor

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

var (
	// emailRe is anchored with lookaround-free boundaries so addresses
	// embedded in longer tokens are not matched.
	emailRe = regexp.MustCompile(`(?i)(^|[^A-Za-z0-9._%+\-])([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)

	// obfuscatedRe matches the common "user [at] host [dot] tld" spellings,
	// with bracket, paren, and bare-word separators.
	obfuscatedRe = regexp.MustCompile(`(?i)\b([A-Za-z0-9._%+\-]+)\s*[\[\(\{]?\s*at\s*[\]\)\}]?\s*([A-Za-z0-9\-]+(?:\s*[\[\(\{]?\s*dot\s*[\]\)\}]?\s*[A-Za-z0-9\-]+)+)`)

	dotWordRe = regexp.MustCompile(`(?i)\s*[\[\(\{]?\s*dot\s*[\]\)\}]?\s*`)
)

// Extractor runs the static extraction pass.
type Extractor struct {
	scorer Scorer
	logger *zap.Logger
}

// New creates an Extractor scoring with the given priority path parts.
func New(priorityParts []string, logger *zap.Logger) *Extractor {
	return &Extractor{
		scorer: Scorer{PriorityParts: priorityParts},
		logger: logger,
	}
}

// Extract parses pageHTML and returns scored candidates. It never errors;
// malformed HTML yields whatever the tolerant parser recovers, possibly
// nothing. Extraction is idempotent for identical input.
func (e *Extractor) Extract(pageHTML, sourceURL string) []scraper.EmailCandidate {
	if strings.TrimSpace(pageHTML) == "" {
		return nil
	}

	pageHTML = decodeCFEmails(pageHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		e.logger.Debug("html parse failed", zap.String("url", sourceURL), zap.Error(err))
		return nil
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Text()

	type found struct {
		address string
		mailto  bool
		offset  int
	}
	var all []found

	for _, m := range emailRe.FindAllStringSubmatchIndex(text, -1) {
		addr := text[m[4]:m[5]]
		all = append(all, found{address: addr, offset: m[4]})
	}
	for _, m := range obfuscatedRe.FindAllStringSubmatchIndex(text, -1) {
		local := text[m[2]:m[3]]
		hostPart := dotWordRe.ReplaceAllString(text[m[4]:m[5]], ".")
		all = append(all, found{address: local + "@" + hostPart, offset: m[2]})
	}
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		all = append(all, found{address: addr, mailto: true, offset: -1})
	})

	seen := map[string]int{} // address -> index into out
	var out []scraper.EmailCandidate
	for _, f := range all {
		addr := strings.ToLower(strings.TrimSpace(f.address))
		if !acceptable(addr) {
			continue
		}
		score := e.scorer.Score(addr, sourceURL, f.mailto, keywordNearby(text, f.offset))
		if i, dup := seen[addr]; dup {
			if score > out[i].Score {
				out[i].Score = score
			}
			continue
		}
		seen[addr] = len(out)
		out = append(out, scraper.EmailCandidate{
			Address:   addr,
			SourceURL: sourceURL,
			Score:     score,
		})
	}
	return out
}

// Merge combines candidates from several pages, keeping one entry per
// address with the highest score. On equal scores the earlier source wins,
// so crawl priority order carries through.
func Merge(pages ...[]scraper.EmailCandidate) []scraper.EmailCandidate {
	seen := map[string]int{}
	var out []scraper.EmailCandidate
	for _, page := range pages {
		for _, c := range page {
			if i, dup := seen[c.Address]; dup {
				if c.Score > out[i].Score {
					out[i].Score = c.Score
					out[i].SourceURL = c.SourceURL
				}
				continue
			}
			seen[c.Address] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// proximity window, in bytes, for the keyword bonus.
const keywordWindow = 80

var proximityKeywords = []string{"contact", "e-mail", "email", "mail"}

func keywordNearby(text string, offset int) bool {
	if offset < 0 {
		return false
	}
	lo := offset - keywordWindow
	if lo < 0 {
		lo = 0
	}
	hi := offset + keywordWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])
	for _, kw := range proximityKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// decodeCFEmails rewrites Cloudflare's data-cfemail obfuscation into the
// plain address so the regular pass can pick it up.
func decodeCFEmails(pageHTML string) string {
	const attr = `data-cfemail="`
	for {
		i := strings.Index(pageHTML, attr)
		if i < 0 {
			return pageHTML
		}
		rest := pageHTML[i+len(attr):]
		j := strings.IndexByte(rest, '"')
		if j < 0 {
			return pageHTML
		}
		encoded := rest[:j]
		decoded := decodeCFEmail(encoded)
		if decoded == "" {
			// Leave the attribute name behind so the loop advances.
			pageHTML = pageHTML[:i] + pageHTML[i+len(attr)+j+1:]
			continue
		}
		pageHTML = pageHTML[:i] + "> " + decoded + " <" + pageHTML[i+len(attr)+j+1:]
	}
}

func decodeCFEmail(encoded string) string {
	raw, err := hex.DecodeString(encoded)
	if err != nil || len(raw) < 2 {
		return ""
	}
	key := raw[0]
	out := make([]byte, 0, len(raw)-1)
	for _, b := range raw[1:] {
		out = append(out, b^key)
	}
	return string(out)
}
