// Package telemetry exposes Prometheus collectors for the scraper.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	companiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_companies_total",
		Help: "Companies processed, labeled by terminal status.",
	}, []string{"status"})

	httpRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_http_requests_total",
		Help: "HTTP page fetches dispatched.",
	})

	httpRequestErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_http_request_errors_total",
		Help: "HTTP page fetches that failed or returned an error status.",
	})

	emailsFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_emails_found_total",
		Help: "Unique email addresses discovered across companies.",
	})

	sitemapHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_sitemap_hits_total",
		Help: "Companies whose crawl plan came from a sitemap.",
	})

	searchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_search_retries_total",
		Help: "Search API attempts retried after a transient failure.",
	})

	searchGateDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scraper_search_gate_delay_seconds",
		Help:    "Time spent waiting on the global search API rate gate.",
		Buckets: prometheus.DefBuckets,
	})
)

// CountCompany records a company's terminal status.
func CountCompany(status string) { companiesTotal.WithLabelValues(status).Inc() }

// CountRequest records one dispatched page fetch.
func CountRequest() { httpRequestsTotal.Inc() }

// CountRequestError records one failed page fetch.
func CountRequestError() { httpRequestErrorsTotal.Inc() }

// CountEmails records n newly discovered unique addresses.
func CountEmails(n int) { emailsFoundTotal.Add(float64(n)) }

// CountSitemapHit records a sitemap-derived crawl plan.
func CountSitemapHit() { sitemapHitsTotal.Inc() }

// CountSearchRetry records a retried search attempt.
func CountSearchRetry() { searchRetriesTotal.Inc() }

// ObserveSearchGateDelay records time spent blocked on the search rate gate.
func ObserveSearchGateDelay(d time.Duration) {
	searchGateDelaySeconds.Observe(d.Seconds())
}
