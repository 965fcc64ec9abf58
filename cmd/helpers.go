package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/ingest"
	"github.com/KaramelBytes/datalens-cli/internal/session"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// newEngine builds an analysis engine from the configuration.
func newEngine(c *cfgpkg.Global) *analysis.Engine {
	return analysis.NewEngine(
		analysis.WithLogger(logger),
		analysis.WithRecorder(mtr),
		analysis.WithSeed(int64(c.KMeansSeed)),
		analysis.WithRestarts(c.KMeansRestarts),
		analysis.WithDefaultClusters(c.DefaultClusters),
	)
}

// newSession builds an empty session from the configuration and ingest flags.
func newSession(c *cfgpkg.Global) *session.Session {
	opt := c.IngestOptions()
	opt.SheetName = flagSheetName
	if flagSheetIndex > 0 {
		opt.SheetIndex = flagSheetIndex
	}
	return session.New(session.Config{
		Ingest:  opt,
		Clean:   c.CleanOptions(),
		Engine:  newEngine(c),
		Logger:  logger,
		Loads:   mtr,
		Timeout: c.AnalysisTimeout(),
	})
}

// readInput reads a data file, refusing files over max_file_size.
func readInput(c *cfgpkg.Global, path string) ([]byte, error) {
	if !ingest.Supported(path) {
		return nil, fmt.Errorf("unsupported file type %q (use .csv, .tsv, .txt, .xlsx or .xlsm)", filepath.Ext(path))
	}
	limit, err := c.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if uint64(st.Size()) > limit {
		return nil, fmt.Errorf("%s is %s, larger than max_file_size %s",
			filepath.Base(path), humanize.Bytes(uint64(st.Size())), humanize.Bytes(limit))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// loadInto reads path and loads it into s, printing a status line to w.
func loadInto(ctx context.Context, c *cfgpkg.Global, s *session.Session, path string, w io.Writer) (session.Loaded, error) {
	data, err := readInput(c, path)
	if err != nil {
		return session.Loaded{}, err
	}
	start := time.Now()
	meta, err := s.Load(ctx, filepath.Base(path), data)
	if err != nil {
		return session.Loaded{}, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	t := s.Snapshot()
	okf(w, "Loaded %s: %s rows × %d columns (%s removed as duplicates) in %s",
		filepath.Base(path), humanize.Comma(int64(t.NumRows())), t.NumCols(),
		humanize.Comma(int64(meta.Report.DuplicatesRemoved)), time.Since(start).Round(time.Millisecond))
	return meta, nil
}

// emit renders into a buffer and writes it to outPath, or to stdout when
// outPath is empty.
func emit(stdout, status io.Writer, outPath string, render func(io.Writer) error) error {
	if outPath == "" {
		return render(stdout)
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	okf(status, "Wrote %s (%s)", outPath, humanize.Bytes(uint64(buf.Len())))
	return nil
}

// splitColumns accepts repeated and comma-separated column flags.
func splitColumns(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
