package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/explain"
	"github.com/KaramelBytes/datalens-cli/internal/report"
)

var (
	anaMode      string
	anaColumns   []string
	anaClusters  int
	anaNormalize []string
	anaOutput    string
	anaExplain   bool
	anaDescribe  []string
)

// newRuntime is replaced in tests.
var newRuntime = explain.NewRuntime

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run one analysis over a cleaned file",
	Long: `Analyze loads and cleans a CSV/TSV/XLSX file and runs one analysis mode over
the selected columns: ` + strings.Join(analysis.ModeNames(), ", ") + `.
With --explain the result is also sent to the configured LLM for a short
plain-language explanation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		mode, err := analysis.ParseMode(anaMode)
		if err != nil {
			return err
		}
		f, err := report.ParseFormat(resolvedFormat(c))
		if err != nil {
			return err
		}
		descriptions, err := parseDescriptions(anaDescribe)
		if err != nil {
			return err
		}
		if anaClusters < 0 {
			return fmt.Errorf("--clusters must be positive, got %d", anaClusters)
		}

		ctx := cmd.Context()
		s := newSession(c)
		if _, err := loadInto(ctx, c, s, args[0], cmd.ErrOrStderr()); err != nil {
			return err
		}
		if norm := splitColumns(anaNormalize); len(norm) > 0 {
			if _, err := s.Normalize(norm); err != nil {
				return err
			}
		}
		cols := splitColumns(anaColumns)
		if len(cols) == 0 {
			cols = s.Snapshot().Names()
		}
		res, err := s.Analyze(ctx, analysis.Request{
			Mode:    mode,
			Columns: cols,
			Options: analysis.Options{Clusters: anaClusters},
		})
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			warnf(cmd.ErrOrStderr(), "%s", w)
		}

		if !anaExplain {
			return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), anaOutput, func(w io.Writer) error {
				return report.Result(w, f, res)
			})
		}
		ex, err := newExplainer(c)
		if err != nil {
			return err
		}
		text, err := ex.Explain(ctx, res, descriptions)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), anaOutput, func(w io.Writer) error {
			return report.Explained(w, f, res, text)
		})
	},
}

func newExplainer(c *cfgpkg.Global) (*explain.Explainer, error) {
	rt, err := newRuntime(explain.RuntimeConfig{
		Provider:    c.AIProvider,
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		BaseURL:     c.AIBaseURL,
		Host:        c.OllamaHost,
	})
	if err != nil {
		return nil, err
	}
	return explain.New(rt, explain.Settings{
		Model:       c.AIModel,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}, logger), nil
}

// parseDescriptions reads "column=meaning" pairs.
func parseDescriptions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid --describe %q (use column=meaning)", p)
		}
		out[k] = v
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaMode, "mode", "m", "", "analysis mode: "+strings.Join(analysis.ModeNames(), " | "))
	analyzeCmd.Flags().StringSliceVarP(&anaColumns, "columns", "c", nil, "columns to analyze (default: all)")
	analyzeCmd.Flags().IntVar(&anaClusters, "clusters", 0, "clustering: number of clusters (default from config)")
	analyzeCmd.Flags().StringSliceVar(&anaNormalize, "normalize", nil, "numeric columns to z-score before analysis")
	analyzeCmd.Flags().StringVarP(&anaOutput, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().BoolVar(&anaExplain, "explain", false, "ask the configured LLM to explain the result")
	analyzeCmd.Flags().StringArrayVar(&anaDescribe, "describe", nil, "column meaning for --explain, as column=meaning (repeatable)")
	_ = analyzeCmd.MarkFlagRequired("mode")
}
