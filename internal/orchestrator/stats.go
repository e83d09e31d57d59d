package orchestrator

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

// RunStats aggregates counters across all workers of one run. All methods
// are safe for concurrent use; Snapshot is the single read point.
type RunStats struct {
	startedAt       time.Time
	withEmail       atomic.Int64
	withoutEmail    atomic.Int64
	noGoogle        atomic.Int64
	domainUnclear   atomic.Int64
	skippedDomain   atomic.Int64
	processingError atomic.Int64
	httpRequests    atomic.Int64
	httpErrors      atomic.Int64
	sitemapRuns     atomic.Int64
	emails          atomic.Int64
}

// NewRunStats starts the elapsed-time clock.
func NewRunStats() *RunStats {
	return &RunStats{startedAt: time.Now()}
}

func (s *RunStats) counter(status scraper.Status) *atomic.Int64 {
	switch status {
	case scraper.StatusWithEmail:
		return &s.withEmail
	case scraper.StatusWithoutEmail:
		return &s.withoutEmail
	case scraper.StatusNoGoogle:
		return &s.noGoogle
	case scraper.StatusDomainUnclear:
		return &s.domainUnclear
	case scraper.StatusSkippedDomain:
		return &s.skippedDomain
	default:
		return &s.processingError
	}
}

// CountStatus records one company's terminal status.
func (s *RunStats) CountStatus(status scraper.Status) {
	s.counter(status).Add(1)
}

// CountRequest records one HTTP fetch attempt, failed marks it errored.
func (s *RunStats) CountRequest(failed bool) {
	s.httpRequests.Add(1)
	if failed {
		s.httpErrors.Add(1)
	}
}

// CountSitemapRun records a company whose plan came from a sitemap.
func (s *RunStats) CountSitemapRun() {
	s.sitemapRuns.Add(1)
}

// CountEmails adds the unique addresses found for one company.
func (s *RunStats) CountEmails(n int) {
	s.emails.Add(int64(n))
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Statuses     map[scraper.Status]int64
	HTTPRequests int64
	HTTPErrors   int64
	SitemapRuns  int64
	Emails       int64
	Elapsed      time.Duration
}

// Snapshot reads every counter once.
func (s *RunStats) Snapshot() Snapshot {
	return Snapshot{
		Statuses: map[scraper.Status]int64{
			scraper.StatusWithEmail:       s.withEmail.Load(),
			scraper.StatusWithoutEmail:    s.withoutEmail.Load(),
			scraper.StatusNoGoogle:        s.noGoogle.Load(),
			scraper.StatusDomainUnclear:   s.domainUnclear.Load(),
			scraper.StatusSkippedDomain:   s.skippedDomain.Load(),
			scraper.StatusProcessingError: s.processingError.Load(),
		},
		HTTPRequests: s.httpRequests.Load(),
		HTTPErrors:   s.httpErrors.Load(),
		SitemapRuns:  s.sitemapRuns.Load(),
		Emails:       s.emails.Load(),
		Elapsed:      time.Since(s.startedAt),
	}
}

// Companies is the total across all statuses.
func (s Snapshot) Companies() int64 {
	var total int64
	for _, n := range s.Statuses {
		total += n
	}
	return total
}

// Summary renders the end-of-run box printed after the last company.
func (s Snapshot) Summary(runID string) string {
	var b strings.Builder
	line := strings.Repeat("=", 46)
	b.WriteString(line + "\n")
	b.WriteString(fmt.Sprintf(" run %s\n", runID))
	b.WriteString(fmt.Sprintf(" companies processed : %d\n", s.Companies()))
	for _, status := range scraper.AllStatuses {
		b.WriteString(fmt.Sprintf("   %-17s : %d\n", status, s.Statuses[status]))
	}
	b.WriteString(fmt.Sprintf(" http requests       : %d (%d failed)\n", s.HTTPRequests, s.HTTPErrors))
	b.WriteString(fmt.Sprintf(" sitemaps used       : %d\n", s.SitemapRuns))
	b.WriteString(fmt.Sprintf(" unique emails       : %d\n", s.Emails))
	b.WriteString(fmt.Sprintf(" elapsed             : %s\n", s.Elapsed.Round(time.Millisecond)))
	b.WriteString(line)
	return b.String()
}
