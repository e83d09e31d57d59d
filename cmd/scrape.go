package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/config"
	"github.com/Jul352mf/THE-Email-Scraper/internal/extractor"
	"github.com/Jul352mf/THE-Email-Scraper/internal/fetch"
	"github.com/Jul352mf/THE-Email-Scraper/internal/ops"
	"github.com/Jul352mf/THE-Email-Scraper/internal/orchestrator"
	"github.com/Jul352mf/THE-Email-Scraper/internal/planner"
	"github.com/Jul352mf/THE-Email-Scraper/internal/resolver"
	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
	"github.com/Jul352mf/THE-Email-Scraper/internal/search"
	"github.com/Jul352mf/THE-Email-Scraper/internal/sheet"
)

type scrapeFlags struct {
	input          string
	output         string
	workers        int
	threshold      int
	maxPages       int
	saveDomainOnly bool
	domainsOnly    bool
	metricsAddr    string
}

// newScrapeCmd creates the 'scrape' subcommand, the one that does the work.
func newScrapeCmd() *cobra.Command {
	var flags scrapeFlags
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Processes a company list into an email report",
		Long: `Reads companies from the input CSV, resolves each one's domain,
crawls a bounded set of pages per site, and writes the discovered
email addresses to the output CSV.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "input CSV with a Company column (required)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "results.csv", "output CSV path")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "worker pool size (overrides config)")
	cmd.Flags().IntVar(&flags.threshold, "threshold", -1, "domain score threshold 0-100 (overrides config)")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "pages crawled per site (overrides config)")
	cmd.Flags().BoolVar(&flags.saveDomainOnly, "save-domain-only", false, "write domain-only rows for companies without emails")
	cmd.Flags().BoolVar(&flags.domainsOnly, "domains-only", false, "every input row must supply a Domain; skips search and needs no Google credentials")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve /healthz and /metrics on this address")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runScrape(cmd *cobra.Command, flags scrapeFlags) error {
	cfg, err := config.Parse(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputs, err := sheet.ReadFile(flags.input)
	if err != nil {
		return err
	}
	if cfg.Scraper.DomainsOnly {
		for _, input := range inputs {
			if input.Domain == "" {
				return fmt.Errorf("domains-only run: row for %q has no Domain", input.Name)
			}
		}
	}
	if len(inputs) == 0 {
		logger.Warn("input contains no companies", zap.String("path", flags.input))
		return sheet.WriteFile(flags.output, nil, cfg.Scraper.SaveDomainOnly)
	}

	var opsServer *ops.Server
	if cfg.Ops.MetricsAddr != "" {
		opsServer = ops.NewServer(cfg.Ops.MetricsAddr, logger.Named("ops"))
		opsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("ops server shutdown failed", zap.Error(err))
			}
		}()
	}

	engine, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runID := uuid.NewString()
	logger.Info("run started",
		zap.String("run_id", runID),
		zap.Int("companies", len(inputs)),
		zap.Int("workers", cfg.Scraper.Workers),
	)

	results, stats := engine.Run(ctx, inputs)

	if err := sheet.WriteFile(flags.output, results, cfg.Scraper.SaveDomainOnly); err != nil {
		return err
	}

	fmt.Println(stats.Snapshot().Summary(runID))
	logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("output", flags.output),
		zap.Int("results", len(results)),
	)
	return nil
}

// applyFlagOverrides copies explicitly-set flags over the loaded config so
// precedence stays flags > env > file > defaults.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, flags scrapeFlags) {
	if cmd.Flags().Changed("workers") {
		cfg.Scraper.Workers = flags.workers
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Scraper.DomainScoreThreshold = flags.threshold
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.Scraper.MaxFallbackPages = flags.maxPages
	}
	if cmd.Flags().Changed("save-domain-only") {
		cfg.Scraper.SaveDomainOnly = flags.saveDomainOnly
	}
	if cmd.Flags().Changed("domains-only") {
		cfg.Scraper.DomainsOnly = flags.domainsOnly
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Ops.MetricsAddr = flags.metricsAddr
	}
}

func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*orchestrator.Orchestrator, func(), error) {
	// A domains-only run never resolves through search, so no client is
	// built and no credentials are needed.
	var searcher scraper.Searcher
	if !cfg.Scraper.DomainsOnly {
		s, err := search.New(ctx, cfg.Google.APIKey, cfg.Google.CXID, logger.Named("search"))
		if err != nil {
			return nil, nil, fmt.Errorf("init search client: %w", err)
		}
		searcher = s
	}

	blocklist := scraper.NewBlocklist(cfg.Scraper.BlockedDomains)

	res := resolver.New(searcher, blocklist, resolver.Config{
		MaxRetries:     cfg.Google.MaxRetries,
		MinInterval:    cfg.Google.MinInterval,
		ScoreThreshold: cfg.Scraper.DomainScoreThreshold,
	}, logger.Named("resolver"))

	fetcher, err := fetch.NewCollyFetcher(cfg.HTTP, logger.Named("fetch"))
	if err != nil {
		return nil, nil, fmt.Errorf("init fetcher: %w", err)
	}

	renderer, cleanup, err := buildRenderer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	plan := planner.New(fetcher, blocklist, planner.Config{
		MaxPages:          cfg.Scraper.MaxFallbackPages,
		MaxURLsPerSitemap: cfg.Scraper.MaxURLsPerSitemap,
		PriorityParts:     cfg.Scraper.PriorityPathParts,
	}, logger.Named("planner"))

	static := extractor.New(cfg.Scraper.PriorityPathParts, logger.Named("extractor"))
	hybrid := extractor.NewHybrid(static, renderer, logger.Named("extractor"))

	engine := orchestrator.New(res, plan, fetcher, hybrid, orchestrator.Config{
		Workers:       cfg.Scraper.Workers,
		MinCrawlDelay: cfg.Scraper.MinCrawlDelay,
		MaxCrawlDelay: cfg.Scraper.MaxCrawlDelay,
		MaxPageText:   cfg.Scraper.MaxPageText,
	}, logger.Named("orchestrator"))

	return engine, cleanup, nil
}

func buildRenderer(cfg config.Config, logger *zap.Logger) (scraper.Renderer, func(), error) {
	if !cfg.Render.Enabled {
		return nil, func() {}, nil
	}
	renderer, err := fetch.NewChromedpRenderer(cfg.Render, logger.Named("render"))
	switch {
	case err == nil:
		cleanup := func() {
			if cerr := renderer.Close(); cerr != nil {
				logger.Warn("renderer close failed", zap.Error(cerr))
			}
		}
		return renderer, cleanup, nil
	case errors.Is(err, fetch.ErrRendererDisabled):
		logger.Warn("rendering enabled but unusable, continuing without it")
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("init renderer: %w", err)
	}
}
