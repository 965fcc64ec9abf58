package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/export"
)

var (
	cleanOutput    string
	cleanNormalize []string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a file and export the result as CSV, TSV or XLSX",
	Long: `Clean removes duplicate rows, fills missing values (mean for numeric columns,
most frequent value for categorical ones) and settles column types. The cleaned
table is written to --output; the extension selects the format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !export.Supported(cleanOutput) {
			return &export.UnsupportedFormatError{Path: cleanOutput}
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		s := newSession(c)
		meta, err := loadInto(cmd.Context(), c, s, args[0], cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cols := make([]string, 0, len(meta.Report.Imputed))
		for col := range meta.Report.Imputed {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			warnf(cmd.ErrOrStderr(), "Filled %d missing value(s) in %q", meta.Report.Imputed[col], col)
		}
		if norm := splitColumns(cleanNormalize); len(norm) > 0 {
			if _, err := s.Normalize(norm); err != nil {
				return err
			}
		}
		if err := export.File(cleanOutput, s.Snapshot()); err != nil {
			return err
		}
		okf(cmd.ErrOrStderr(), "Wrote cleaned table to %s", cleanOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "path of the cleaned file (.csv, .tsv or .xlsx)")
	cleanCmd.Flags().StringSliceVar(&cleanNormalize, "normalize", nil, "numeric columns to z-score before export (comma-separated)")
	_ = cleanCmd.MarkFlagRequired("output")
}
