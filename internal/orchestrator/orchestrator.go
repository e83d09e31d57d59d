// Package orchestrator drives the per-company pipeline and the worker
// pool that fans companies out across it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/extractor"
	"github.com/Jul352mf/THE-Email-Scraper/internal/resolver"
	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
	"github.com/Jul352mf/THE-Email-Scraper/internal/telemetry"
)

// DomainResolver maps a company to its canonical domain.
type DomainResolver interface {
	Resolve(ctx context.Context, input scraper.CompanyInput) (scraper.ResolvedDomain, error)
}

// CrawlPlanner turns a domain into ordered crawl tasks.
type CrawlPlanner interface {
	Plan(ctx context.Context, domain string) ([]scraper.CrawlTask, bool)
}

// EmailExtractor extracts scored candidates from one page.
type EmailExtractor interface {
	Extract(ctx context.Context, pageHTML, sourceURL string) []scraper.EmailCandidate
}

// Config holds the orchestration knobs.
type Config struct {
	Workers       int
	MinCrawlDelay time.Duration
	MaxCrawlDelay time.Duration
	MaxPageText   int
}

// Orchestrator owns one run's pipeline state.
type Orchestrator struct {
	resolver  DomainResolver
	planner   CrawlPlanner
	fetcher   scraper.Fetcher
	extractor EmailExtractor
	cfg       Config
	registry  *domainRegistry
	delayer   crawlDelayer
	logger    *zap.Logger
}

// New wires the pipeline stages together.
func New(res DomainResolver, plan CrawlPlanner, fetcher scraper.Fetcher, extract EmailExtractor, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Orchestrator{
		resolver:  res,
		planner:   plan,
		fetcher:   fetcher,
		extractor: extract,
		cfg:       cfg,
		registry:  newDomainRegistry(),
		delayer:   crawlDelayer{min: cfg.MinCrawlDelay, max: cfg.MaxCrawlDelay},
		logger:    logger,
	}
}

// ProcessCompany runs one company through resolve, plan, crawl, and
// extract, and always returns exactly one terminal status. A panic in any
// stage is converted to a processing_error result.
func (o *Orchestrator) ProcessCompany(ctx context.Context, input scraper.CompanyInput, stats *RunStats) (result scraper.CompanyResult) {
	result = scraper.CompanyResult{Company: input.Name, Status: scraper.StatusProcessingError}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("company processing panicked",
				zap.String("company", input.Name),
				zap.Any("panic", r),
			)
			result = scraper.CompanyResult{Company: input.Name, Status: scraper.StatusProcessingError}
		}
		stats.CountStatus(result.Status)
		telemetry.CountCompany(string(result.Status))
	}()

	resolved, err := o.resolver.Resolve(ctx, input)
	if err != nil {
		result.Status = o.classifyResolveError(input.Name, err)
		return result
	}
	result.Domain = resolved.Domain

	if !o.registry.begin(resolved.Domain) {
		o.logger.Info("domain already handled, skipping",
			zap.String("company", input.Name),
			zap.String("domain", resolved.Domain),
		)
		result.Status = scraper.StatusSkippedDomain
		return result
	}
	defer o.registry.finish(resolved.Domain)

	tasks, usedSitemap := o.planner.Plan(ctx, resolved.Domain)
	result.UsedSitemap = usedSitemap
	if usedSitemap {
		stats.CountSitemapRun()
	}

	var pageEmails [][]scraper.EmailCandidate
	for i, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			o.delayer.Pause(ctx)
		}
		page, fetchErr := o.fetchPage(ctx, task, stats)
		if fetchErr != nil {
			o.logger.Debug("page fetch failed",
				zap.String("company", input.Name),
				zap.String("url", task.URL),
				zap.Error(fetchErr),
			)
			continue
		}
		result.Pages = append(result.Pages, page)
		if len(page.Emails) > 0 {
			pageEmails = append(pageEmails, page.Emails)
		}
	}

	result.Emails = extractor.Merge(pageEmails...)
	stats.CountEmails(len(result.Emails))
	telemetry.CountEmails(len(result.Emails))

	if len(result.Emails) > 0 {
		result.Status = scraper.StatusWithEmail
	} else {
		result.Status = scraper.StatusWithoutEmail
	}
	return result
}

func (o *Orchestrator) classifyResolveError(company string, err error) scraper.Status {
	switch {
	case errors.Is(err, resolver.ErrSearchFailed):
		o.logger.Warn("search failed", zap.String("company", company), zap.Error(err))
		return scraper.StatusNoGoogle
	case errors.Is(err, resolver.ErrNoCandidates), errors.Is(err, resolver.ErrLowScore):
		o.logger.Info("domain unclear", zap.String("company", company), zap.Error(err))
		return scraper.StatusDomainUnclear
	default:
		o.logger.Error("resolve failed", zap.String("company", company), zap.Error(err))
		return scraper.StatusProcessingError
	}
}

// fetchPage retrieves one URL and turns it into a PageResult with bounded
// text and extracted emails.
func (o *Orchestrator) fetchPage(ctx context.Context, task scraper.CrawlTask, stats *RunStats) (scraper.PageResult, error) {
	resp, err := o.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		stats.CountRequest(true)
		return scraper.PageResult{}, err
	}
	if resp.StatusCode != 200 {
		stats.CountRequest(true)
		return scraper.PageResult{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	stats.CountRequest(false)

	body := o.boundBody(resp.Body)
	page := o.parsePage(task.URL, resp.StatusCode, body)
	page.Emails = o.extractor.Extract(ctx, body, task.URL)
	return page, nil
}

// markupTextRatio converts the visible-text bound into a raw-HTML bound;
// markup typically runs several times the length of the text it renders.
const markupTextRatio = 10

// boundBody truncates a fetched body before any parsing or extraction so
// one oversized page cannot dominate a run.
func (o *Orchestrator) boundBody(raw []byte) string {
	limit := o.cfg.MaxPageText * markupTextRatio
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	return string(raw)
}

func (o *Orchestrator) parsePage(url string, statusCode int, body string) scraper.PageResult {
	page := scraper.PageResult{
		URL:        url,
		StatusCode: statusCode,
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return page
	}
	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	page.MetaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	page.MetaKeywords, _ = doc.Find(`meta[name="keywords"]`).First().Attr("content")

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if o.cfg.MaxPageText > 0 && len(text) > o.cfg.MaxPageText {
		text = text[:o.cfg.MaxPageText]
	}
	page.Text = text
	return page
}

// Run processes every input on a fixed pool of workers and returns results
// in completion order. Cancelling the context stops new submissions;
// companies already in flight finish and their results are kept.
func (o *Orchestrator) Run(ctx context.Context, inputs []scraper.CompanyInput) ([]scraper.CompanyResult, *RunStats) {
	stats := NewRunStats()
	tasks := make(chan scraper.CompanyInput)
	results := make(chan scraper.CompanyResult)

	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for input := range tasks {
				results <- o.ProcessCompany(ctx, input, stats)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, input := range inputs {
			if ctx.Err() != nil {
				return
			}
			select {
			case tasks <- input:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]scraper.CompanyResult, 0, len(inputs))
	for result := range results {
		collected = append(collected, result)
	}
	return collected, stats
}
