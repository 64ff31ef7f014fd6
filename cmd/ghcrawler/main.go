package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ghcrawler/internal/config"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "ghcrawler",
		Short: "ghcrawler - GitHub search results crawler",
		Long: `ghcrawler runs one GitHub search for a set of keywords through a proxy,
collects the result links and, for repositories, the owner and language
breakdown, and writes them to a timestamped JSON file.

The input file holds the keywords, the proxy list and the result type
(repositories, issues or wikis).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ghcrawler %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting an input file.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <input.json>",
		Short: "Show the effective configuration for an input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Search:\n")
	fmt.Fprintf(w, "  Type:              %s\n", cfg.ResultType)
	fmt.Fprintf(w, "  Keywords:          %s\n", strings.Join(cfg.Keywords, ", "))
	fmt.Fprintf(w, "  Proxies:           %d configured\n", len(cfg.Proxies))
	fmt.Fprintf(w, "  Base URL:          %s\n", cfg.GitHub.BaseURL)
	fmt.Fprintf(w, "\nFetcher:\n")
	fmt.Fprintf(w, "  Type:              %s\n", cfg.Fetcher.Type)
	fmt.Fprintf(w, "  Timeout:           %s\n", cfg.Fetcher.Timeout)
	fmt.Fprintf(w, "  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
	fmt.Fprintf(w, "  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
	fmt.Fprintf(w, "\nSelectors:\n")
	fmt.Fprintf(w, "  Issues:            %s %s\n", cfg.Selectors.Issues.Type, cfg.Selectors.Issues.Selector)
	fmt.Fprintf(w, "  Repositories:      %s %s\n", cfg.Selectors.Repositories.Type, cfg.Selectors.Repositories.Selector)
	fmt.Fprintf(w, "  Wikis:             %s %s\n", cfg.Selectors.Wikis.Type, cfg.Selectors.Wikis.Selector)
	fmt.Fprintf(w, "  Languages:         %s %s\n", cfg.Selectors.Languages.Type, cfg.Selectors.Languages.Selector)
	fmt.Fprintf(w, "\nStorage:\n")
	fmt.Fprintf(w, "  Format:            %s\n", cfg.Storage.Format)
	fmt.Fprintf(w, "  Output Dir:        %s\n", cfg.Storage.OutputDir)
	fmt.Fprintf(w, "  Prefix:            %s\n", cfg.Storage.Prefix)
	fmt.Fprintf(w, "  MongoDB:           %v\n", cfg.Storage.Mongo.URI != "")
	fmt.Fprintf(w, "\nMetrics:\n")
	fmt.Fprintf(w, "  Textfile:          %s\n", cfg.Metrics.Textfile)
}

// setupLogger creates a structured logger from the logging section.
func setupLogger(w io.Writer, cfg config.LoggingConfig, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
