package extractor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

// Hybrid wraps the static pass with an optional headless-render retry for
// pages that only materialize addresses through JavaScript.
type Hybrid struct {
	static   *Extractor
	renderer scraper.Renderer
	logger   *zap.Logger
}

// NewHybrid creates the two-pass extractor. renderer may be nil, which
// degrades to the static pass alone.
func NewHybrid(static *Extractor, renderer scraper.Renderer, logger *zap.Logger) *Hybrid {
	return &Hybrid{static: static, renderer: renderer, logger: logger}
}

// Extract runs the static pass and, when it finds nothing on a non-empty
// page, retries once through the renderer. Render failures are logged and
// swallowed; the caller sees an empty result.
func (h *Hybrid) Extract(ctx context.Context, pageHTML, sourceURL string) []scraper.EmailCandidate {
	candidates := h.static.Extract(pageHTML, sourceURL)
	if len(candidates) > 0 || h.renderer == nil || strings.TrimSpace(pageHTML) == "" {
		return candidates
	}

	rendered, err := h.renderer.Render(ctx, sourceURL)
	if err != nil {
		h.logger.Debug("render fallback failed",
			zap.String("url", sourceURL),
			zap.Error(err),
		)
		return nil
	}
	return h.static.Extract(rendered, sourceURL)
}
