package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/metrics"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	formatFlag string
	// Ingest flags (override config if set)
	flagDelimiter  string
	flagEncoding   string
	flagSheetName  string
	flagSheetIndex int
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration and process-wide collaborators
	cfg    *cfgpkg.Global
	logger = slog.New(slog.DiscardHandler)
	mtr    *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "datalens",
	Short: "DataLens CLI: clean, analyze and chart tabular data",
	Long: `DataLens loads CSV, TSV and Excel files, cleans them (duplicates, missing values,
column types) and runs summary statistics, correlation, distribution tests, PCA and
k-means clustering. Results can be rendered as text, Markdown, JSON or YAML, charted
as HTML, and explained by an LLM.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	if cfg != nil && cfg.MetricsFile != "" && mtr != nil {
		if werr := mtr.WriteFile(cfg.MetricsFile); werr != nil {
			warnf(os.Stderr, "failed to write metrics: %v", werr)
		}
	}
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.datalens/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.StringVarP(&formatFlag, "format", "f", "", "output format: text | markdown | json | yaml (overrides config)")
	f.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default: from extension)")
	f.StringVar(&flagEncoding, "encoding", "", "text encoding of CSV input, e.g. gbk or windows-1252 (overrides config)")
	f.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load")
	f.IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	f.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	f.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	f.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	f.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report it themselves
		warnf(os.Stderr, "failed to load config: %v", err)
		cfg = nil
		return
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
	if f.Changed("delimiter") {
		cfg.CSVDelimiter = flagDelimiter
	}
	if f.Changed("encoding") {
		cfg.CSVEncoding = flagEncoding
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	l, err := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		warnf(os.Stderr, "invalid logging config: %v", err)
	} else {
		logger = l
	}
	mtr = metrics.New()
}

// requireConfig returns the loaded config, or the load error.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func okf(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

func warnf(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, "⚠ "+format+"\n", args...)
}

// resolvedFormat picks --format over output_format.
func resolvedFormat(c *cfgpkg.Global) string {
	if formatFlag != "" {
		return formatFlag
	}
	return c.OutputFormat
}
