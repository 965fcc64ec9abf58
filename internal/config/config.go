package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datalens-cli/internal/clean"
	"github.com/KaramelBytes/datalens-cli/internal/ingest"
)

// Global configuration structure.
type Global struct {
	// Cleaning and ingest
	PinnedCategorical []string `mapstructure:"pinned_categorical" yaml:"pinned_categorical"`
	CSVEncoding       string   `mapstructure:"csv_encoding" yaml:"csv_encoding"`
	CSVDelimiter      string   `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	MaxFileSize       string   `mapstructure:"max_file_size" yaml:"max_file_size"`

	// Analysis
	DefaultClusters    int `mapstructure:"default_clusters" yaml:"default_clusters"`
	KMeansSeed         int `mapstructure:"kmeans_seed" yaml:"kmeans_seed"`
	KMeansRestarts     int `mapstructure:"kmeans_restarts" yaml:"kmeans_restarts"`
	AnalysisTimeoutSec int `mapstructure:"analysis_timeout_sec" yaml:"analysis_timeout_sec"`

	// Output and observability
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
	MetricsFile  string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// Explanations
	AIProvider  string  `mapstructure:"ai_provider" yaml:"ai_provider"`
	AIModel     string  `mapstructure:"ai_model" yaml:"ai_model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	AIBaseURL   string  `mapstructure:"ai_base_url" yaml:"ai_base_url"`
	OllamaHost  string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

const dirName = ".datalens"

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pinned_categorical", clean.DefaultPinned)
	v.SetDefault("csv_encoding", "utf-8")
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("max_file_size", "16MB")
	v.SetDefault("default_clusters", 3)
	v.SetDefault("kmeans_seed", 42)
	v.SetDefault("kmeans_restarts", 10)
	v.SetDefault("analysis_timeout_sec", 0)
	v.SetDefault("output_format", "text")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_file", "")
	v.SetDefault("ai_provider", "openrouter")
	v.SetDefault("ai_model", "openai/gpt-4o-mini")
	v.SetDefault("api_key", "")
	v.SetDefault("ai_base_url", "")
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.3)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// The file is optional.
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail late.
func (c *Global) Validate() error {
	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}
	if _, err := c.Delimiter(); err != nil {
		return err
	}
	if c.DefaultClusters < 1 {
		return fmt.Errorf("default_clusters must be at least 1, got %d", c.DefaultClusters)
	}
	switch c.OutputFormat {
	case "text", "markdown", "json", "yaml":
	default:
		return fmt.Errorf("invalid output_format: %s (use text, markdown, json or yaml)", c.OutputFormat)
	}
	return nil
}

// MaxFileSizeBytes parses max_file_size ("16MB", "512KiB").
func (c *Global) MaxFileSizeBytes() (uint64, error) {
	n, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_file_size %q: %w", c.MaxFileSize, err)
	}
	return n, nil
}

// Delimiter resolves csv_delimiter. Empty means detect from the extension.
func (c *Global) Delimiter() (rune, error) {
	switch strings.ToLower(c.CSVDelimiter) {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case ",", ";", "|":
		return rune(c.CSVDelimiter[0]), nil
	default:
		return 0, fmt.Errorf("invalid csv_delimiter %q (use ',', ';', '|' or tab)", c.CSVDelimiter)
	}
}

// IngestOptions derives reader options from the configuration.
func (c *Global) IngestOptions() ingest.Options {
	opt := ingest.DefaultOptions()
	opt.Encoding = c.CSVEncoding
	opt.Delimiter, _ = c.Delimiter()
	return opt
}

// CleanOptions derives cleaner options from the configuration.
func (c *Global) CleanOptions() clean.Options {
	opt := clean.DefaultOptions()
	if len(c.PinnedCategorical) > 0 {
		opt.Pinned = c.PinnedCategorical
	}
	return opt
}

// AnalysisTimeout returns the per-request bound, zero for none.
func (c *Global) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSec) * time.Second
}

// Set assigns a single key from its string form, as used by `config set`.
func (c *Global) Set(key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "pinned_categorical":
		var names []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, p)
			}
		}
		c.PinnedCategorical = names
	case "csv_encoding":
		c.CSVEncoding = val
	case "csv_delimiter":
		c.CSVDelimiter = val
		_, err = c.Delimiter()
	case "max_file_size":
		c.MaxFileSize = val
		_, err = c.MaxFileSizeBytes()
	case "default_clusters":
		c.DefaultClusters, err = atoi(1)
	case "kmeans_seed":
		c.KMeansSeed, err = atoi(0)
	case "kmeans_restarts":
		c.KMeansRestarts, err = atoi(1)
	case "analysis_timeout_sec":
		c.AnalysisTimeoutSec, err = atoi(0)
	case "output_format":
		c.OutputFormat = val
		err = c.Validate()
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	case "metrics_file":
		c.MetricsFile = val
	case "ai_provider":
		switch strings.ToLower(val) {
		case "openrouter", "openai", "dashscope":
			c.AIProvider = strings.ToLower(val)
		case "ollama", "local":
			c.AIProvider = "ollama"
		default:
			return fmt.Errorf("invalid ai_provider: %s (use openrouter, openai, dashscope or ollama)", val)
		}
	case "ai_model":
		c.AIModel = val
	case "api_key":
		c.APIKey = val
	case "ai_base_url":
		c.AIBaseURL = val
	case "ollama_host":
		c.OllamaHost = val
	case "max_tokens":
		c.MaxTokens, err = atoi(1)
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for temperature: %w", perr)
		}
		c.Temperature = f
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(0)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
