// Package search implements the Searcher interface against the Google
// Custom Search JSON API.
package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

const resultsPerQuery = 10

// Client wraps the Custom Search service for one engine (CX).
type Client struct {
	svc    *customsearch.Service
	cxID   string
	logger *zap.Logger
}

// New builds a Client authenticated with an API key.
func New(ctx context.Context, apiKey, cxID string, logger *zap.Logger) (*Client, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init customsearch service: %w", err)
	}
	return &Client{svc: svc, cxID: cxID, logger: logger}, nil
}

// Search queries the engine for a company name. Quota and server-side
// failures are wrapped with scraper.ErrTemporary so callers can retry them.
func (c *Client) Search(ctx context.Context, query string) ([]scraper.SearchResult, error) {
	resp, err := c.svc.Cse.List().
		Q(query).
		Cx(c.cxID).
		Num(resultsPerQuery).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && retryableCode(apiErr.Code) {
			return nil, fmt.Errorf("customsearch status %d: %w", apiErr.Code, scraper.ErrTemporary)
		}
		return nil, fmt.Errorf("customsearch query %q: %w", query, err)
	}

	results := make([]scraper.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		results = append(results, scraper.SearchResult{
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func retryableCode(code int) bool {
	return code == 403 || code == 429 || code >= 500
}
