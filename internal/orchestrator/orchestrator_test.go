package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/resolver"
	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

type fakeResolver struct {
	domains map[string]string
	errs    map[string]error
	panics  map[string]bool
}

func (r *fakeResolver) Resolve(_ context.Context, input scraper.CompanyInput) (scraper.ResolvedDomain, error) {
	if r.panics[input.Name] {
		panic("resolver exploded")
	}
	if err, ok := r.errs[input.Name]; ok {
		return scraper.ResolvedDomain{}, err
	}
	if domain, ok := r.domains[input.Name]; ok {
		return scraper.ResolvedDomain{Domain: domain, Method: scraper.MethodSearched, Confidence: 85}, nil
	}
	return scraper.ResolvedDomain{}, resolver.ErrNoCandidates
}

type fakePlanner struct {
	plans       map[string][]scraper.CrawlTask
	usedSitemap bool
}

func (p *fakePlanner) Plan(_ context.Context, domain string) ([]scraper.CrawlTask, bool) {
	tasks := p.plans[domain]
	return tasks, p.usedSitemap && len(tasks) > 0
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	codes map[string]int
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (scraper.FetchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	body, ok := f.pages[url]
	if !ok {
		return scraper.FetchResponse{}, errors.New("connection refused")
	}
	code := f.codes[url]
	if code == 0 {
		code = 200
	}
	return scraper.FetchResponse{URL: url, StatusCode: code, Body: []byte(body)}, nil
}

type regexExtractor struct{}

func (regexExtractor) Extract(_ context.Context, pageHTML, sourceURL string) []scraper.EmailCandidate {
	var out []scraper.EmailCandidate
	for _, word := range strings.Fields(pageHTML) {
		if strings.Contains(word, "@") {
			out = append(out, scraper.EmailCandidate{Address: strings.ToLower(word), SourceURL: sourceURL, Score: 50})
		}
	}
	return out
}

func testOrchestrator(res DomainResolver, plan CrawlPlanner, fetch scraper.Fetcher) *Orchestrator {
	return New(res, plan, fetch, regexExtractor{}, Config{
		Workers:     2,
		MaxPageText: 10_000,
	}, zap.NewNop())
}

func acmeFixture(usedSitemap bool) (*fakeResolver, *fakePlanner, *fakeFetcher) {
	res := &fakeResolver{domains: map[string]string{"Acme Corp": "acme.example"}}
	plan := &fakePlanner{
		usedSitemap: usedSitemap,
		plans: map[string][]scraper.CrawlTask{
			"acme.example": {
				{URL: "https://acme.example/", Priority: 0},
				{URL: "https://acme.example/contact", Priority: 1},
				{URL: "https://acme.example/products", Priority: 5},
			},
		},
	}
	fetch := &fakeFetcher{
		pages: map[string]string{
			"https://acme.example/":         "<html>welcome</html>",
			"https://acme.example/contact":  "write sales@acme.example today",
			"https://acme.example/products": "<html>widgets</html>",
		},
		codes: map[string]int{},
	}
	return res, plan, fetch
}

func TestProcessCompanyWithEmail(t *testing.T) {
	res, plan, fetch := acmeFixture(true)
	o := testOrchestrator(res, plan, fetch)

	result := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme Corp"}, NewRunStats())

	assert.Equal(t, scraper.StatusWithEmail, result.Status)
	assert.Equal(t, "acme.example", result.Domain)
	assert.True(t, result.UsedSitemap)
	assert.Len(t, result.Pages, 3)
	require.Len(t, result.Emails, 1)
	assert.Equal(t, "sales@acme.example", result.Emails[0].Address)
	// Pages are fetched in priority order, contact before products.
	assert.Equal(t, []string{
		"https://acme.example/",
		"https://acme.example/contact",
		"https://acme.example/products",
	}, fetch.calls)
}

func TestProcessCompanyWithoutEmail(t *testing.T) {
	res, plan, fetch := acmeFixture(false)
	fetch.pages["https://acme.example/contact"] = "<html>form only</html>"
	o := testOrchestrator(res, plan, fetch)

	result := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme Corp"}, NewRunStats())

	assert.Equal(t, scraper.StatusWithoutEmail, result.Status)
	assert.False(t, result.UsedSitemap)
	assert.Empty(t, result.Emails)
}

func TestProcessCompanyResolveErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status scraper.Status
	}{
		{"search failed", resolver.ErrSearchFailed, scraper.StatusNoGoogle},
		{"low score", resolver.ErrLowScore, scraper.StatusDomainUnclear},
		{"no candidates", resolver.ErrNoCandidates, scraper.StatusDomainUnclear},
		{"unexpected", errors.New("disk on fire"), scraper.StatusProcessingError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := &fakeResolver{errs: map[string]error{"Ghost Inc": tc.err}}
			o := testOrchestrator(res, &fakePlanner{}, &fakeFetcher{})

			result := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Ghost Inc"}, NewRunStats())

			assert.Equal(t, tc.status, result.Status)
			assert.Empty(t, result.Pages)
		})
	}
}

func TestProcessCompanyPanicBecomesError(t *testing.T) {
	res := &fakeResolver{panics: map[string]bool{"Boom AG": true}}
	o := testOrchestrator(res, &fakePlanner{}, &fakeFetcher{})
	stats := NewRunStats()

	result := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Boom AG"}, stats)

	assert.Equal(t, scraper.StatusProcessingError, result.Status)
	assert.Equal(t, int64(1), stats.Snapshot().Statuses[scraper.StatusProcessingError])
}

func TestProcessCompanySkipsDuplicateDomain(t *testing.T) {
	res := &fakeResolver{domains: map[string]string{
		"Acme Corp": "acme.example",
		"Acme GmbH": "acme.example",
		"Acme Ltd":  "www.acme.example",
		"Other Co":  "other.example",
	}}
	plan := &fakePlanner{plans: map[string][]scraper.CrawlTask{}}
	o := testOrchestrator(res, plan, &fakeFetcher{})
	stats := NewRunStats()

	first := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme Corp"}, stats)
	second := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme GmbH"}, stats)
	third := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme Ltd"}, stats)
	other := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Other Co"}, stats)

	assert.Equal(t, scraper.StatusWithoutEmail, first.Status)
	assert.Equal(t, scraper.StatusSkippedDomain, second.Status)
	assert.Equal(t, scraper.StatusSkippedDomain, third.Status)
	assert.Empty(t, third.Pages)
	assert.Equal(t, scraper.StatusWithoutEmail, other.Status)
}

func TestProcessCompanySkipsFailedPages(t *testing.T) {
	res, plan, fetch := acmeFixture(true)
	delete(fetch.pages, "https://acme.example/products")
	fetch.codes["https://acme.example/"] = 503
	o := testOrchestrator(res, plan, fetch)
	stats := NewRunStats()

	result := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme Corp"}, stats)

	require.Len(t, result.Pages, 1)
	assert.Equal(t, "https://acme.example/contact", result.Pages[0].URL)
	assert.Equal(t, scraper.StatusWithEmail, result.Status)
	snap := stats.Snapshot()
	assert.Equal(t, int64(3), snap.HTTPRequests)
	assert.Equal(t, int64(2), snap.HTTPErrors)
}

func TestProcessCompanyBoundsBodyBeforeExtraction(t *testing.T) {
	res, plan, fetch := acmeFixture(true)
	bound := 20 * markupTextRatio
	fetch.pages["https://acme.example/contact"] = "early@acme.example " +
		strings.Repeat("x ", bound) + "late@acme.example"
	o := New(res, plan, fetch, regexExtractor{}, Config{
		Workers:     2,
		MaxPageText: 20,
	}, zap.NewNop())

	result := o.ProcessCompany(context.Background(), scraper.CompanyInput{Name: "Acme Corp"}, NewRunStats())

	require.Len(t, result.Emails, 1)
	assert.Equal(t, "early@acme.example", result.Emails[0].Address)
}

func TestRunProcessesEveryCompanyOnce(t *testing.T) {
	domains := map[string]string{}
	var inputs []scraper.CompanyInput
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		domains[name] = strings.ToLower(name) + ".example"
		inputs = append(inputs, scraper.CompanyInput{Name: name})
	}
	o := testOrchestrator(&fakeResolver{domains: domains}, &fakePlanner{}, &fakeFetcher{})

	results, stats := o.Run(context.Background(), inputs)

	require.Len(t, results, len(inputs))
	seen := map[string]int{}
	for _, r := range results {
		seen[r.Company]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, name)
	}
	assert.Equal(t, int64(len(inputs)), stats.Snapshot().Companies())
}

func TestRunCancellationStopsSubmission(t *testing.T) {
	var started atomic.Int64
	release := make(chan struct{})
	res := &fakeResolver{domains: map[string]string{}}
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		res.domains[name] = strings.ToLower(name) + ".example"
	}
	plan := &blockingPlanner{started: &started, release: release}
	o := testOrchestrator(res, plan, &fakeFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	var inputs []scraper.CompanyInput
	for name := range res.domains {
		inputs = append(inputs, scraper.CompanyInput{Name: name})
	}

	done := make(chan struct{})
	var results []scraper.CompanyResult
	go func() {
		defer close(done)
		results, _ = o.Run(ctx, inputs)
	}()

	// Wait for the two workers to pick up their first companies, then cancel.
	require.Eventually(t, func() bool { return started.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-done

	assert.Less(t, len(results), len(inputs))
	seen := map[string]int{}
	for _, r := range results {
		seen[r.Company]++
		assert.Equal(t, 1, seen[r.Company])
	}
}

type blockingPlanner struct {
	started *atomic.Int64
	release chan struct{}
}

func (p *blockingPlanner) Plan(context.Context, string) ([]scraper.CrawlTask, bool) {
	p.started.Add(1)
	<-p.release
	return nil, false
}

func TestSnapshotSummary(t *testing.T) {
	stats := NewRunStats()
	stats.CountStatus(scraper.StatusWithEmail)
	stats.CountStatus(scraper.StatusWithEmail)
	stats.CountStatus(scraper.StatusNoGoogle)
	stats.CountRequest(false)
	stats.CountRequest(true)
	stats.CountSitemapRun()
	stats.CountEmails(3)

	snap := stats.Snapshot()
	summary := snap.Summary("run-1234")

	assert.Equal(t, int64(3), snap.Companies())
	assert.Contains(t, summary, "run-1234")
	assert.Contains(t, summary, "with_email")
	assert.Contains(t, summary, "2 (1 failed)")
	assert.Contains(t, summary, "unique emails       : 3")
}
