// Package fetch provides the HTTP and headless-browser page retrievers.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/config"
	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
	"github.com/Jul352mf/THE-Email-Scraper/internal/telemetry"
)

// defaultUserAgents are rotated round-robin when no fixed agent is
// configured.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// ErrURLTooLong rejects URLs exceeding the configured length cap before
// any network activity.
var ErrURLTooLong = errors.New("url exceeds length limit")

// CollyFetcher implements scraper.Fetcher on a shared Colly collector.
// Each Fetch clones the base collector so handler state stays per-call.
type CollyFetcher struct {
	baseCollector *colly.Collector
	maxURLLength  int
	userAgents    []string
	uaCursor      atomic.Uint64
	logger        *zap.Logger
}

// NewCollyFetcher constructs the static fetcher from the HTTP config.
func NewCollyFetcher(cfg config.HTTPConfig, logger *zap.Logger) (*CollyFetcher, error) {
	base := colly.NewCollector(colly.Async(true))
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.InsecureSSL}, //nolint:gosec // operator opt-in
	})
	base.SetRequestTimeout(cfg.Timeout)

	maxRedirects := cfg.MaxRedirects
	base.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	})

	agents := defaultUserAgents
	if cfg.UserAgent != "" {
		agents = []string{cfg.UserAgent}
	}

	return &CollyFetcher{
		baseCollector: base,
		maxURLLength:  cfg.MaxURLLength,
		userAgents:    agents,
		logger:        logger,
	}, nil
}

// Fetch retrieves one page. The context is honored between the network
// round-trip and result delivery; colly itself enforces the timeout.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (scraper.FetchResponse, error) {
	if f.maxURLLength > 0 && len(rawURL) > f.maxURLLength {
		return scraper.FetchResponse{}, fmt.Errorf("%w: %d bytes", ErrURLTooLong, len(rawURL))
	}
	if err := ctx.Err(); err != nil {
		return scraper.FetchResponse{}, err
	}

	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	start := time.Now()
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.nextUserAgent())
	})
	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			for k, v := range *r.Headers {
				cp := make([]string, len(v))
				copy(cp, v)
				headers[k] = cp
			}
		}
		send(fetchResult{resp: scraper.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte{}, r.Body...),
			Duration:   time.Since(start),
		}})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode > 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		send(fetchResult{err: err})
	})

	telemetry.CountRequest()
	if err := collector.Visit(rawURL); err != nil {
		telemetry.CountRequestError()
		return scraper.FetchResponse{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return scraper.FetchResponse{}, err
		}
		if res.err != nil {
			telemetry.CountRequestError()
			f.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(res.err))
		}
		return res.resp, res.err
	default:
		telemetry.CountRequestError()
		return scraper.FetchResponse{}, errors.New("colly fetch produced no result")
	}
}

func (f *CollyFetcher) nextUserAgent() string {
	n := f.uaCursor.Add(1)
	return f.userAgents[int(n-1)%len(f.userAgents)]
}

type fetchResult struct {
	resp scraper.FetchResponse
	err  error
}
