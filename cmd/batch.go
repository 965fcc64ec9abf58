package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/batch"
	"github.com/KaramelBytes/datalens-cli/internal/report"
)

var (
	batchOutput string
	batchQuiet  bool
	batchStrict bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <requests.yaml> <files...>",
	Short: "Run a document of analysis requests over one or more files",
	Long: `Batch reads a YAML or JSON document listing analysis requests:

  requests:
    - name: spread
      mode: summary_stats
      columns: [sales, units]
    - mode: clustering
      columns: [sales, units]
      clusters: 4

and runs every request against each input file (globs are expanded). A failed
request is reported in place and does not stop the others.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		f, err := report.ParseFormat(resolvedFormat(c))
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read requests: %w", err)
		}
		doc, err := batch.Parse(raw)
		if err != nil {
			return err
		}
		files, err := expandInputs(args[1:])
		if err != nil {
			return err
		}

		status := cmd.ErrOrStderr()
		if batchQuiet {
			status = io.Discard
		}
		ctx := cmd.Context()
		engine := newEngine(c)
		var all []report.Entry
		failed := 0
		for i, path := range files {
			fmt.Fprintf(status, "[%d/%d] Processing %s...\n", i+1, len(files), filepath.Base(path))
			s := newSession(c)
			if _, err := loadInto(ctx, c, s, path, status); err != nil {
				return err
			}
			entries, err := batch.Run(ctx, engine, s.Snapshot(), doc, logger)
			if err != nil {
				return err
			}
			failed += batch.Failed(entries)
			if len(files) > 1 {
				for j := range entries {
					entries[j].Name = filepath.Base(path) + ": " + entries[j].Name
				}
			}
			all = append(all, entries...)
		}

		if err := emit(cmd.OutOrStdout(), status, batchOutput, func(w io.Writer) error {
			return report.Batch(w, f, all)
		}); err != nil {
			return err
		}
		if failed > 0 {
			warnf(status, "%d of %d request(s) failed", failed, len(all))
			if batchStrict {
				return fmt.Errorf("%d request(s) failed", failed)
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "optional path to write the combined report")
	batchCmd.Flags().BoolVar(&batchQuiet, "quiet", false, "suppress progress and non-essential output")
	batchCmd.Flags().BoolVar(&batchStrict, "strict", false, "exit with an error when any request fails")
}
