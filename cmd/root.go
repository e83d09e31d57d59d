// Package cmd defines the CLI commands for the scraper executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/config"
	"github.com/Jul352mf/THE-Email-Scraper/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Finds company domains and contact emails",
		Long: `scraper resolves company names to their websites through the Google
Custom Search API, crawls a prioritized set of pages per site, and
extracts contact email addresses into a CSV report.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env vars with prefix SCRAPER_ override it")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newScrapeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Development, cfg.Verbose || verbose)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
