// Package main hosts the scraper CLI entrypoint.
//
// Architecture overview:
//   - Resolution: internal/resolver maps each company name to a canonical
//     domain via the Google Custom Search API (internal/search), with one
//     shared rate gate, bounded retries with jittered backoff, and a
//     similarity score that must clear a configurable threshold.
//   - Planning: internal/planner probes well-known sitemap locations and
//     robots.txt, ranks the discovered URLs by priority path parts, and
//     falls back to a fixed set of guessed paths when no sitemap parses.
//     The plan is truncated to a per-site page budget.
//   - Crawling: internal/fetch retrieves pages through a pooled Colly
//     collector with rotating user agents, a redirect cap, and a URL
//     length cap. An optional chromedp renderer re-fetches pages whose
//     emails only appear after JavaScript runs.
//   - Extraction: internal/extractor pulls addresses from visible text,
//     mailto links, spelled-out obfuscations, and Cloudflare-encoded
//     attributes, applies rejection rules, and scores each candidate by
//     the evidence around it.
//   - Orchestration: internal/orchestrator fans companies out over a fixed
//     worker pool, paces same-site fetches with a randomized delay, skips
//     domains another company already claimed, and classifies every
//     company into exactly one terminal status.
//   - Reporting: internal/sheet reads the Company/Domain input CSV and
//     writes Company,Domain,Email rows; internal/ops optionally serves
//     /healthz and Prometheus /metrics during the run.
//
// Configuration comes from an optional YAML file, a .env file, and
// SCRAPER_* environment variables; see internal/config for keys, defaults,
// and ranges. Run locally with:
//
//	go run ./cmd/scraper scrape -i companies.csv -o results.csv
package main
