package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/dashloom-cli/internal/config"
	"github.com/KaramelBytes/dashloom-cli/internal/logging"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	// Diagnostics logger; user-facing output stays on stdout/stderr.
	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "dashloom",
	Short: "Dashloom CLI: turn a dataset and a question into a dashboard",
	Long: `Dashloom asks an LLM for a dashboard specification over your dataset, computes
every element locally (aggregation, histograms, tables, pies, scatter plots),
and exports, forecasts or explains the results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dashloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "diagnostics log format: text|json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("log-format") {
		cfg.LogFormat = logFormat
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	} else if level == "" || level == "info" {
		// The CLI prints its own progress; only surface problems by default.
		level = "warn"
	}
	logger = logging.New(os.Stderr, logging.Options{Level: level, Format: cfg.LogFormat, AddSource: debug})
	slog.SetDefault(logger)

	// Optional local catalog with pricing/context sizes
	if cfg.ModelsCatalog != "" {
		m, err := ai.LoadCatalogFromJSON(utils.ExpandHome(cfg.ModelsCatalog))
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: models catalog not loaded: %v\n", err)
			return
		}
		ai.MergeCatalog(m)
	}
}
