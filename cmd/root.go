package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/defstat/internal/config"
	"github.com/KaramelBytes/defstat/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
	// Source/retry flags (override config if set)
	flagDataDir          string
	flagSourceURL        string
	flagLookback         int
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "defstat",
	Short: "defstat: compare defendant ethnicity against county census shares",
	Long: `defstat reads a yearly defendants spreadsheet, classifies each defendant's
ethnicity into six census categories and compares the resulting shares with
the county population, as a table, chart images or an interactive local page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		zap.L().Debug("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "✗ Error:", session.Describe(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
	_ = zap.L().Sync()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.defstat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding defendants_<year>.xlsx (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSourceURL, "source-url", "", "base URL to fetch defendants files from instead of data dir (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagLookback, "lookback", 0, "earlier years to try when the requested year has no file (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if f.Changed("source-url") {
		cfg.SourceURL = flagSourceURL
	}
	if f.Changed("lookback") && flagLookback >= 0 {
		cfg.LookbackYears = flagLookback
	}
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

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if err := cfgpkg.InitLogger(level, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to init logger: %v\n", err)
	}
}
