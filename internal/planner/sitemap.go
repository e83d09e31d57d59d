package planner

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

// Well-known sitemap filenames probed on the naked and www host.
var sitemapNames = []string{
	"sitemap.xml",
	"sitemap_index.xml",
	"sitemap-index.xml",
	"sitemap1.xml",
}

type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// collectSitemapURLs probes the well-known sitemap locations and robots.txt
// and returns the page URLs of the first sitemap that parses. Sitemap
// indexes are followed one level deep. Returns nil when no sitemap is
// usable, which sends the caller to the fallback frontier.
func (p *Planner) collectSitemapURLs(ctx context.Context, domain string) []string {
	for _, candidate := range p.sitemapCandidates(ctx, domain) {
		urls, nested := p.readSitemap(ctx, domain, candidate)
		for _, nestedURL := range nested {
			if len(urls) >= p.cfg.MaxURLsPerSitemap {
				break
			}
			nestedURLs, _ := p.readSitemap(ctx, domain, nestedURL)
			urls = append(urls, nestedURLs...)
		}
		if len(urls) > p.cfg.MaxURLsPerSitemap {
			urls = urls[:p.cfg.MaxURLsPerSitemap]
		}
		if len(urls) > 0 {
			p.logger.Debug("sitemap found",
				zap.String("domain", domain),
				zap.String("sitemap", candidate),
				zap.Int("urls", len(urls)),
			)
			return urls
		}
	}
	return nil
}

// sitemapCandidates lists the sitemap URLs to try, in probe order.
func (p *Planner) sitemapCandidates(ctx context.Context, domain string) []string {
	hosts := []string{domain}
	if !strings.HasPrefix(domain, "www.") {
		hosts = append(hosts, "www."+domain)
	}

	var candidates []string
	seen := map[string]struct{}{}
	add := func(u string) {
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			candidates = append(candidates, u)
		}
	}
	for _, host := range hosts {
		for _, name := range sitemapNames {
			add("https://" + host + "/" + name)
		}
	}
	for _, host := range hosts {
		for _, u := range p.robotsSitemaps(ctx, host) {
			if scraper.SameDomain(domain, u) {
				add(u)
			}
		}
	}
	return candidates
}

// robotsSitemaps extracts Sitemap: directives from a host's robots.txt.
func (p *Planner) robotsSitemaps(ctx context.Context, host string) []string {
	resp, err := p.fetcher.Fetch(ctx, "https://"+host+"/robots.txt")
	if err != nil || resp.StatusCode != 200 {
		return nil
	}
	var urls []string
	for _, line := range strings.Split(string(resp.Body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 8 || !strings.EqualFold(line[:8], "sitemap:") {
			continue
		}
		if u := strings.TrimSpace(line[8:]); strings.HasPrefix(u, "http") {
			urls = append(urls, u)
		}
	}
	return urls
}

// readSitemap fetches and parses one sitemap document, returning the page
// URLs on the plan's domain plus any nested sitemap locations. Anything
// that fails to fetch or parse yields empty results.
func (p *Planner) readSitemap(ctx context.Context, domain, sitemapURL string) (urls, nested []string) {
	resp, err := p.fetcher.Fetch(ctx, sitemapURL)
	if err != nil || resp.StatusCode != 200 {
		return nil, nil
	}

	body, err := decompress(resp.Body)
	if err != nil || !looksLikeSitemap(body) {
		return nil, nil
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		p.logger.Debug("sitemap parse failed",
			zap.String("sitemap", sitemapURL),
			zap.Error(err),
		)
		return nil, nil
	}

	for _, entry := range doc.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" || !scraper.SameDomain(domain, loc) {
			continue
		}
		urls = append(urls, loc)
		if len(urls) >= p.cfg.MaxURLsPerSitemap {
			break
		}
	}
	for _, entry := range doc.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			nested = append(nested, loc)
		}
	}
	return urls, nested
}

// decompress unwraps gzip payloads, detected by the magic header.
func decompress(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// looksLikeSitemap sniffs for XML before handing the payload to the
// parser, so HTML 404 pages served with a 200 are dropped quietly.
func looksLikeSitemap(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	s := strings.TrimSpace(string(head))
	return strings.HasPrefix(s, "<?xml") ||
		strings.Contains(s, "<urlset") ||
		strings.Contains(s, "<sitemapindex")
}
