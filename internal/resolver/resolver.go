// Package resolver maps a company name to a canonical web domain using the
// external search API, under a global rate gate and bounded retry policy.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
	"github.com/Jul352mf/THE-Email-Scraper/internal/telemetry"
)

// Resolution failure modes, mapped to company statuses by the orchestrator.
var (
	// ErrSearchFailed means the search API gave no answer after retries.
	ErrSearchFailed = errors.New("search failed")
	// ErrNoCandidates means search answered but produced no usable domain.
	ErrNoCandidates = errors.New("no usable domain candidates")
	// ErrLowScore means the best candidate missed the score threshold.
	ErrLowScore = errors.New("domain score below threshold")
)

// Config controls resolver behavior.
type Config struct {
	MaxRetries     int
	MinInterval    time.Duration
	ScoreThreshold int
}

// Resolver resolves company names to domains. The rate gate is shared by all
// concurrent callers; one Resolver serves the whole run.
type Resolver struct {
	searcher  scraper.Searcher
	gate      *rate.Limiter
	backoff   *Backoff
	blocklist *scraper.Blocklist
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Resolver.
func New(searcher scraper.Searcher, blocklist *scraper.Blocklist, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	return &Resolver{
		searcher:  searcher,
		gate:      rate.NewLimiter(rate.Every(interval), 1),
		backoff:   NewBackoff(0, 0),
		blocklist: blocklist,
		cfg:       cfg,
		logger:    logger,
	}
}

// Resolve returns the canonical domain for input. A pre-supplied domain is
// returned immediately without touching the search API.
func (r *Resolver) Resolve(ctx context.Context, input scraper.CompanyInput) (scraper.ResolvedDomain, error) {
	if supplied := scraper.NormalizeDomain(input.Domain); supplied != "" {
		return scraper.ResolvedDomain{
			Domain:     supplied,
			Method:     scraper.MethodSupplied,
			Confidence: 100,
		}, nil
	}

	results, err := r.search(ctx, input.Name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return scraper.ResolvedDomain{}, ctxErr
		}
		r.logger.Warn("search exhausted", zap.String("company", input.Name), zap.Error(err))
		return scraper.ResolvedDomain{}, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	domain, score := r.bestCandidate(input.Name, results)
	if domain == "" {
		return scraper.ResolvedDomain{}, ErrNoCandidates
	}
	if score < r.cfg.ScoreThreshold {
		r.logger.Info("domain score too low",
			zap.String("company", input.Name),
			zap.String("domain", domain),
			zap.Int("score", score),
			zap.Int("threshold", r.cfg.ScoreThreshold),
		)
		return scraper.ResolvedDomain{}, fmt.Errorf("%w: %s scored %d", ErrLowScore, domain, score)
	}

	r.logger.Info("domain resolved",
		zap.String("company", input.Name),
		zap.String("domain", domain),
		zap.Int("score", score),
	)
	return scraper.ResolvedDomain{
		Domain:     domain,
		Method:     scraper.MethodSearched,
		Confidence: score,
	}, nil
}

// search runs the bounded retry state machine: wait for the global gate,
// call the API, back off on temporary failures, give up on anything else.
func (r *Resolver) search(ctx context.Context, query string) ([]scraper.SearchResult, error) {
	if r.searcher == nil {
		return nil, errors.New("no searcher configured")
	}
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			telemetry.CountSearchRetry()
			if err := sleepCtx(ctx, r.backoff.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		waitStart := time.Now()
		if err := r.gate.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate gate: %w", err)
		}
		telemetry.ObserveSearchGateDelay(time.Since(waitStart))

		results, err := r.searcher.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !errors.Is(err, scraper.ErrTemporary) {
			return nil, err
		}
		r.logger.Warn("search attempt failed",
			zap.String("query", query),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// bestCandidate scores every non-blocklisted hit and returns the winner.
// Ties keep the earlier result, so the outcome is deterministic.
func (r *Resolver) bestCandidate(company string, results []scraper.SearchResult) (string, int) {
	bestDomain := ""
	bestScore := -1
	for _, result := range results {
		host := scraper.NormalizeDomain(result.URL)
		if host == "" {
			continue
		}
		if r.blocklist.IsBlocked(host) {
			r.logger.Debug("candidate blocklisted", zap.String("host", host))
			continue
		}
		if score := ScoreDomain(company, host); score > bestScore {
			bestDomain, bestScore = host, score
		}
	}
	if bestDomain == "" {
		return "", 0
	}
	return bestDomain, bestScore
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
