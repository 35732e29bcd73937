package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/storeprofile/internal/config"
	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/log"
	"github.com/nao1215/storeprofile/internal/model"
	"github.com/nao1215/storeprofile/internal/pipeline"
	"github.com/nao1215/storeprofile/internal/report"
)

// NewProfileCmd creates the profile command.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [store-url]...",
		Short: "Build the profile of one or more storefronts",
		Long: `Profile fetches the public catalog of a storefront and builds its profile.

The product catalog (/products.json) is required: if it cannot be read the
run fails. Collections, the sitemap, the homepage tech stack and product
clustering are best effort; a failing source leaves its section empty.

Artifacts are written to <output-dir>/<store-slug>/:
  catalog.db               products and collections as SQLite tables
  products_summary.csv     key product fields
  collections_summary.csv  key collection fields (when available)
  profile.json             the full profile
  report.md                human-readable report
  homepage.html            homepage snapshot (when fetched)

Examples:
  # Profile a single store
  storeprofile profile shop.example.com

  # Profile several stores, two at a time
  storeprofile profile --batch 2 shop-a.example.com shop-b.example.com

  # Print the profile as JSON
  storeprofile profile --json shop.example.com

  # Fix the number of clusters and skip the sitemap
  storeprofile profile -k 5 --skip sitemap shop.example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runProfileCmd,
	}

	// Fetch behavior flags
	cmd.Flags().IntP("page-size", "p", config.DefaultPageSize,
		"Records requested per page")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Float64("rps", config.DefaultRequestsPerSecond,
		"Maximum requests per second to a store (0 = unlimited)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("parallel", false,
		"Fetch collections, sitemap and homepage concurrently")
	cmd.Flags().StringSlice("skip", nil,
		"Sources to skip: clustering, collections, sitemap, tech_stack")

	// Clustering flags
	cmd.Flags().IntP("clusters", "k", 0,
		"Number of product clusters (0 = derive from catalog size)")
	cmd.Flags().Uint64("seed", config.DefaultClusterSeed,
		"Seed of the clustering initialization")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of stores profiled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .storeprofile in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Root directory of the per-store artifacts")
	cmd.Flags().BoolP("json", "j", false,
		"Print the profile as JSON instead of the summary")
	cmd.Flags().Bool("no-history", false,
		"Do not save the profile in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runProfileCmd executes the profile command.
func runProfileCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runProfile(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.PageSize, err = flags.GetInt("page-size"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ParallelSources, err = flags.GetBool("parallel"); err != nil {
		return nil, err
	}
	if cfg.SkipSources, err = flags.GetStringSlice("skip"); err != nil {
		return nil, err
	}
	if cfg.ClusterCount, err = flags.GetInt("clusters"); err != nil {
		return nil, err
	}
	if cfg.ClusterSeed, err = flags.GetUint64("seed"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.JSONOutput, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// Per-store overrides never replace an option given on the command line.
	for flag, option := range map[string]string{
		"page-size":  config.OptionPageSize,
		"clusters":   config.OptionClusterCount,
		"user-agent": config.OptionUserAgent,
	} {
		if flags.Changed(flag) {
			cfg.Pinned[option] = true
		}
	}

	// A config file given explicitly must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.StoreConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.StoreConfigs = &config.File{Stores: map[string]config.StoreConfig{}}
	}

	cfg.Targets = args
	return cfg, nil
}

// runProfile profiles every target and prints the results.
func runProfile(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}

	logger.Info("starting profile",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	opts := []pipeline.ProfilerOption{
		pipeline.WithProfilerLogger(logger),
		pipeline.WithPersister(report.NewArtifactWriter(cfg.OutputDir, report.WithArtifactLogger(logger))),
	}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts = append(opts, pipeline.WithHistory(db))
		logger.Info("database opened", "path", db.Path())
	}
	profiler := pipeline.NewProfiler(cfg, opts...)

	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchProfile(ctx, stdout, stderr, cfg, profiler, logger)
	}
	return runSequentialProfile(ctx, stdout, stderr, cfg, profiler)
}

// runSequentialProfile profiles targets one at a time.
func runSequentialProfile(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, profiler *pipeline.Profiler) error {
	var failures []error
	for _, target := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !cfg.JSONOutput {
			fmt.Fprintf(stdout, "Profiling %s...\n", model.NormalizeStoreURL(target))
		}
		startTime := time.Now()

		run, err := profiler.Run(ctx, target)
		if err != nil {
			fmt.Fprintf(stderr, "Profile error for %s: %v\n", target, err)
			failures = append(failures, err)
			continue
		}

		if !cfg.JSONOutput {
			fmt.Fprintf(stdout, "Profile completed in %s\n", time.Since(startTime).Round(time.Millisecond))
		}
		if err := outputRun(stdout, cfg, run); err != nil {
			return err
		}
	}
	return joinFailures(failures, len(cfg.Targets))
}

// runBatchProfile profiles targets concurrently.
func runBatchProfile(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, profiler *pipeline.Profiler, logger *slog.Logger) error {
	if !cfg.JSONOutput {
		fmt.Fprintf(stdout, "Profiling %d stores (concurrency: %d)...\n\n", len(cfg.Targets), cfg.BatchSize)
	}
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(profiler,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu       sync.Mutex
		failures []error
	)
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(result pipeline.BatchResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		if result.Err != nil {
			fmt.Fprintf(stderr, "[%d/%d] Profile error for %s: %v\n", index+1, len(cfg.Targets), result.Store, result.Err)
			failures = append(failures, result.Err)
			return
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(stdout, "[%d/%d] Profile completed: %s\n", index+1, len(cfg.Targets), result.Run.StoreURL)
		}
		if err := outputRun(stdout, cfg, result.Run); err != nil {
			logger.Error("output failed", "store", result.Store, "error", err)
		}
	})
	if err != nil {
		return err
	}

	if !cfg.JSONOutput {
		fmt.Fprintf(stdout, "\nBatch completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	}
	return joinFailures(failures, len(cfg.Targets))
}

// outputRun prints a finished run in the requested format.
func outputRun(w io.Writer, cfg *config.Config, run *model.Run) error {
	if cfg.JSONOutput {
		_, err := report.NewJSONWriter(w, report.WithPrettyPrint()).WriteRun(run, getVersion())
		return err
	}

	writer := report.NewSimpleWriter(w, report.WithSources(run.Sources()))
	if _, err := writer.Write(run.Profile); err != nil {
		return err
	}
	if run.ArtifactDir != "" {
		fmt.Fprintf(w, "Artifacts: %s\n\n", run.ArtifactDir)
	}
	return nil
}

// joinFailures returns the single fatal error of a one-store run, or a
// summary error when some stores of a batch failed.
func joinFailures(failures []error, total int) error {
	switch {
	case len(failures) == 0:
		return nil
	case total == 1:
		return failures[0]
	default:
		return fmt.Errorf("%d of %d stores failed: %w", len(failures), total, errors.Join(failures...))
	}
}
