package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/chart"
)

var (
	chartKind    string
	chartColumns []string
	chartX       string
	chartTitle   string
	chartOutput  string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Render an interactive HTML chart of a cleaned file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := chart.ParseKind(chartKind)
		if err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		s := newSession(c)
		if _, err := loadInto(cmd.Context(), c, s, args[0], cmd.ErrOrStderr()); err != nil {
			return err
		}
		req := chart.Request{
			Kind:    kind,
			Columns: splitColumns(chartColumns),
			X:       chartX,
			Title:   chartTitle,
		}
		out := chartOutput
		if out == "" {
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			out = fmt.Sprintf("%s-%s.html", base, kind)
		}
		r := chart.NewRenderer(newEngine(c))
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, func(w io.Writer) error {
			return r.Render(cmd.Context(), w, s.Snapshot(), req)
		})
	},
}

func init() {
	kinds := make([]string, 0, len(chart.Kinds()))
	for _, k := range chart.Kinds() {
		kinds = append(kinds, string(k))
	}
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartKind, "kind", "k", "", "chart kind: "+strings.Join(kinds, " | "))
	chartCmd.Flags().StringSliceVarP(&chartColumns, "columns", "c", nil, "columns to plot")
	chartCmd.Flags().StringVar(&chartX, "x", "", "line: label column for the x axis (default: row index)")
	chartCmd.Flags().StringVar(&chartTitle, "title", "", "chart title")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "HTML output path (default: <file>-<kind>.html)")
	_ = chartCmd.MarkFlagRequired("kind")
}
