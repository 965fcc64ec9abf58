package cmd

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/report"
)

var (
	inspectOutput  string
	inspectColumns []string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Load and clean a file, then describe its columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		f, err := report.ParseFormat(resolvedFormat(c))
		if err != nil {
			return err
		}
		s := newSession(c)
		meta, err := loadInto(cmd.Context(), c, s, args[0], cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		info, err := s.Describe()
		if err != nil {
			return err
		}
		d := report.Dataset{File: filepath.Base(args[0]), Info: info, Cleaning: &meta.Report}
		if cols := splitColumns(inspectColumns); len(cols) > 0 {
			if d.Stats, err = s.ColumnStats(cols); err != nil {
				return err
			}
		}
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), inspectOutput, func(w io.Writer) error {
			return report.Describe(w, f, d)
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "optional path to write the description")
	inspectCmd.Flags().StringSliceVarP(&inspectColumns, "column", "c", nil, "also report count, unique, mean, median and std for these columns")
}
