// Package planner turns a resolved domain into an ordered list of pages
// worth crawling, preferring the site's own sitemap over guessed paths.
package planner

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
	"github.com/Jul352mf/THE-Email-Scraper/internal/telemetry"
)

// fallbackPaths are guessed when a site publishes no usable sitemap. The
// root page is handled separately and is always crawled first.
var fallbackPaths = []string{
	"/contact",
	"/contact-us",
	"/about",
	"/about-us",
	"/impressum",
	"/kontakt",
	"/team",
	"/imprint",
	"/legal",
	"/privacy",
}

// Config holds the planning knobs.
type Config struct {
	MaxPages          int
	MaxURLsPerSitemap int
	PriorityParts     []string
}

// Planner builds crawl plans for one run's configuration.
type Planner struct {
	fetcher   scraper.Fetcher
	blocklist *scraper.Blocklist
	cfg       Config
	logger    *zap.Logger
}

// New creates a Planner. A nil blocklist blocks nothing.
func New(fetcher scraper.Fetcher, blocklist *scraper.Blocklist, cfg Config, logger *zap.Logger) *Planner {
	return &Planner{
		fetcher:   fetcher,
		blocklist: blocklist,
		cfg:       cfg,
		logger:    logger,
	}
}

// Plan returns the ordered crawl tasks for domain and whether a sitemap
// supplied them. A blocklisted domain yields zero tasks.
func (p *Planner) Plan(ctx context.Context, domain string) ([]scraper.CrawlTask, bool) {
	domain = scraper.NormalizeDomain(domain)
	if domain == "" || p.blocklist.IsBlocked(domain) {
		p.logger.Info("domain blocked, skipping plan", zap.String("domain", domain))
		return nil, false
	}

	urls := p.collectSitemapURLs(ctx, domain)
	if len(urls) > 0 {
		telemetry.CountSitemapHit()
		return p.rank(domain, urls, scraper.OriginSitemap), true
	}

	guesses := make([]string, 0, len(fallbackPaths))
	for _, path := range fallbackPaths {
		guesses = append(guesses, "https://"+domain+path)
	}
	return p.rank(domain, guesses, scraper.OriginFallback), false
}

// rank assigns priority bands, pins the root page to the front, and
// truncates to the page budget. The sort is stable so document order
// breaks ties.
func (p *Planner) rank(domain string, urls []string, origin scraper.TaskOrigin) []scraper.CrawlTask {
	root := "https://" + domain + "/"
	tasks := []scraper.CrawlTask{{URL: root, Priority: 0, Origin: origin}}

	seen := map[string]struct{}{root: {}}
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if isRootURL(domain, u) {
			continue
		}
		tasks = append(tasks, scraper.CrawlTask{
			URL:      u,
			Priority: p.band(u),
			Origin:   origin,
		})
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})

	if p.cfg.MaxPages > 0 && len(tasks) > p.cfg.MaxPages {
		tasks = tasks[:p.cfg.MaxPages]
	}
	return tasks
}

// band maps a URL to its priority band: 1+index of the first matching
// priority path part, or one past the last band when nothing matches.
func (p *Planner) band(rawURL string) int {
	path := strings.ToLower(urlPath(rawURL))
	for i, part := range p.cfg.PriorityParts {
		if part != "" && strings.Contains(path, part) {
			return i + 1
		}
	}
	return len(p.cfg.PriorityParts) + 1
}

func urlPath(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i:]
	}
	return "/"
}

func isRootURL(domain, rawURL string) bool {
	if !scraper.SameDomain(domain, rawURL) {
		return false
	}
	path := urlPath(rawURL)
	return path == "/" || path == ""
}
