package scraper

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrTemporary marks a collaborator failure that is worth retrying, such as
// a search quota response or a transport timeout. Wrap it with %w.
var ErrTemporary = errors.New("temporary failure")

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a single URL over plain HTTP. Transport concerns
// (redirect caps, TLS, timeouts) live behind this interface.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// Renderer executes a page with JavaScript enabled and returns the resulting
// DOM as HTML. Used only as a fallback when static extraction finds nothing.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// SearchResult is one hit from the external search API.
type SearchResult struct {
	URL     string
	Snippet string
}

// Searcher queries the external search API for a company name. Callers are
// expected to serialize access through the global rate gate.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
