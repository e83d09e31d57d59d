// Package scraper defines the core types and collaborator interfaces shared
// by the domain resolver, crawl planner, email extractor, and orchestrator.
package scraper
