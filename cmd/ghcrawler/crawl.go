package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/crawler"
	"github.com/IshaanNene/ghcrawler/internal/fetcher"
	"github.com/IshaanNene/ghcrawler/internal/observability"
	"github.com/IshaanNene/ghcrawler/internal/storage"
)

// crawlOptions are the command-line overrides for one crawl.
type crawlOptions struct {
	direct    bool
	outputDir string
	format    string
	verbose   bool
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	var opts crawlOptions

	cmd := &cobra.Command{
		Use:   "crawl <input.json>",
		Short: "Run a search and write the results",
		Long: `Load the input file, pick one proxy at random, run the search and
write the records to <output_dir>/<prefix><YYYYMMDD_HHMMSS>.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts.verbose = verbose
			return runCrawl(ctx, args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.direct, "direct", false, "fetch without a proxy")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for the output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json, jsonl, csv")

	return cmd
}

// runCrawl executes one crawl. User-facing lines go to out, logs to logOut.
func runCrawl(ctx context.Context, inputPath string, opts crawlOptions, out, logOut io.Writer) error {
	cfg, err := config.Load(inputPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg, opts)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	runID := uuid.NewString()
	logger := setupLogger(logOut, cfg.Logging, opts.verbose).With("run_id", runID)

	if len(cfg.Keywords) == 0 {
		logger.Warn("no keywords configured, searching with an empty query")
	}

	var proxy *fetcher.ProxyOption
	if !opts.direct {
		proxy, err = fetcher.SelectProxy(cfg.Proxies)
		if err != nil {
			return fmt.Errorf("select proxy: %w", err)
		}
	}

	logger.Info("starting crawl",
		"input", inputPath,
		"type", cfg.ResultType,
		"keywords", cfg.Keywords,
		"proxy", proxy.String(),
		"fetcher", cfg.Fetcher.Type,
		"format", cfg.Storage.Format,
	)

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	metrics := observability.NewMetrics(logger)
	start := time.Now()

	c := crawler.New(cfg, f, nil, metrics, logger)
	res, err := c.Run(ctx, cfg.Keywords, cfg.ResultType, proxy)
	if err != nil {
		finishMetrics(metrics, cfg, start, false, logger)
		return err
	}

	if res.Empty {
		fmt.Fprintln(out, "No results found.")
		finishMetrics(metrics, cfg, start, true, logger)
		return nil
	}

	store, err := storage.New(ctx, &cfg.Storage, runID, logger)
	if err != nil {
		finishMetrics(metrics, cfg, start, false, logger)
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	if err := store.Store(ctx, res.Records); err != nil {
		finishMetrics(metrics, cfg, start, false, logger)
		return fmt.Errorf("write results: %w", err)
	}

	var location string
	if l, ok := store.(storage.Locator); ok {
		location = l.Location()
	}
	fmt.Fprintf(out, "File %s created.\n", location)

	finishMetrics(metrics, cfg, start, true, logger)
	return nil
}

// finishMetrics logs the run summary and writes the textfile when configured.
func finishMetrics(m *observability.Metrics, cfg *config.Config, start time.Time, success bool, logger *slog.Logger) {
	elapsed := time.Since(start)
	m.Finish(elapsed, success)

	stats := m.Snapshot()
	logger.Info("crawl complete",
		"success", success,
		"elapsed", elapsed.Round(time.Millisecond),
		"requests", stats["ghcrawler_requests_total"],
		"failures", stats["ghcrawler_request_failures_total"],
		"records", stats["ghcrawler_records_total"],
		"bytes", stats["ghcrawler_bytes_downloaded_total"],
	)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config, opts crawlOptions) {
	if opts.outputDir != "" {
		cfg.Storage.OutputDir = opts.outputDir
	}
	if opts.format != "" {
		cfg.Storage.Format = strings.ToLower(opts.format)
	}
}
