package orchestrator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

// crawlDelayer paces consecutive fetches against the same site with a
// randomized pause, so request timing does not form a fingerprint.
type crawlDelayer struct {
	min time.Duration
	max time.Duration
}

// Pause sleeps for a uniform duration in [min,max], returning early when
// the context ends.
func (d crawlDelayer) Pause(ctx context.Context) {
	delay := d.min
	if span := d.max - d.min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// domainRegistry deduplicates work across the run: a domain that is
// already finished or currently in flight must not be crawled again.
type domainRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
	done   map[string]struct{}
}

func newDomainRegistry() *domainRegistry {
	return &domainRegistry{
		active: make(map[string]struct{}),
		done:   make(map[string]struct{}),
	}
}

// begin claims the domain for this worker. Returns false when another
// company already owns or owned it.
func (r *domainRegistry) begin(domain string) bool {
	domain = scraper.NormalizeDomain(domain)
	if domain == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.done[domain]; ok {
		return false
	}
	if _, ok := r.active[domain]; ok {
		return false
	}
	r.active[domain] = struct{}{}
	return true
}

// finish moves the domain from in-flight to processed.
func (r *domainRegistry) finish(domain string) {
	domain = scraper.NormalizeDomain(domain)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, domain)
	r.done[domain] = struct{}{}
}
