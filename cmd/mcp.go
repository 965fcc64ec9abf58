package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/report"
	"github.com/KaramelBytes/datalens-cli/internal/session"
)

const mcpServerVersion = "0.1.0"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the load/describe/column_stats/analyze/normalize tools over MCP (stdio)",
	Long: `Serve runs a Model Context Protocol server on stdin/stdout. All tools share
one session: load_table replaces the current table, and every other tool works
on whatever table is current.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		srv := newMCPServer(&mcpTools{cfg: c, sess: newSession(c)})
		logger.Info("serving MCP over stdio", "version", mcpServerVersion)
		return server.ServeStdio(srv)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpTools holds the session every tool call works on.
type mcpTools struct {
	cfg  *cfgpkg.Global
	sess *session.Session
}

func newMCPServer(t *mcpTools) *server.MCPServer {
	s := server.NewMCPServer("DataLens", mcpServerVersion,
		server.WithLogging(),
		server.WithRecovery(),
	)

	formatOpt := mcp.WithString("format",
		mcp.Description("Output format of the tool result."),
		mcp.DefaultString("markdown"),
		mcp.Enum("text", "markdown", "json", "yaml"),
	)

	s.AddTool(mcp.NewTool("load_table",
		mcp.WithDescription("Load a CSV, TSV or XLSX file, clean it, and make it the current table."),
		mcp.WithString("path",
			mcp.Description("Path of the file to load."),
			mcp.Required(),
		),
		formatOpt,
	), t.loadTable)

	s.AddTool(mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the current table: row count, column names, types and missing counts."),
		formatOpt,
	), t.describeTable)

	s.AddTool(mcp.NewTool("column_stats",
		mcp.WithDescription("Count, missing, unique, mean, median and std of columns of the current table."),
		mcp.WithArray("columns",
			mcp.Description("Column names. A comma-separated string is also accepted."),
			mcp.Required(),
		),
		formatOpt,
	), t.columnStats)

	s.AddTool(mcp.NewTool("analyze",
		mcp.WithDescription("Run one analysis over columns of the current table."),
		mcp.WithString("mode",
			mcp.Description("Analysis to run."),
			mcp.Required(),
			mcp.Enum(analysis.ModeNames()...),
		),
		mcp.WithArray("columns",
			mcp.Description("Column names to analyze. A comma-separated string is also accepted. Defaults to every column."),
		),
		mcp.WithNumber("clusters",
			mcp.Description("clustering: number of clusters."),
		),
		formatOpt,
	), t.analyze)

	s.AddTool(mcp.NewTool("normalize",
		mcp.WithDescription("Z-score numeric columns of the current table in place."),
		mcp.WithArray("columns",
			mcp.Description("Numeric column names to normalize. A comma-separated string is also accepted."),
			mcp.Required(),
		),
	), t.normalize)

	return s
}

func (t *mcpTools) loadTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	path, _ := args["path"].(string)
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("missing required argument: path"), nil
	}
	f, err := argFormat(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := readInput(t.cfg, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta, err := t.sess.Load(ctx, filepath.Base(path), data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := t.sess.Describe()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return render(func(b *bytes.Buffer) error {
		return report.Describe(b, f, report.Dataset{File: meta.Name, Info: info, Cleaning: &meta.Report})
	})
}

func (t *mcpTools) describeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := argFormat(req.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := t.sess.Describe()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := report.Dataset{Info: info}
	if meta, ok := t.sess.Current(); ok {
		d.File = meta.Name
		d.Cleaning = &meta.Report
	}
	return render(func(b *bytes.Buffer) error { return report.Describe(b, f, d) })
}

func (t *mcpTools) columnStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	f, err := argFormat(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cols, err := argColumns(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cols) == 0 {
		return mcp.NewToolResultError("missing required argument: columns"), nil
	}
	stats, err := t.sess.ColumnStats(cols)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := t.sess.Describe()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := report.Dataset{Info: info, Stats: stats}
	if meta, ok := t.sess.Current(); ok {
		d.File = meta.Name
	}
	return render(func(b *bytes.Buffer) error { return report.Describe(b, f, d) })
}

func (t *mcpTools) analyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	modeName, _ := args["mode"].(string)
	mode, err := analysis.ParseMode(modeName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := argFormat(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cols, err := argColumns(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cols) == 0 {
		if snap := t.sess.Snapshot(); snap != nil {
			cols = snap.Names()
		}
	}
	var opt analysis.Options
	if k, ok := args["clusters"].(float64); ok {
		if k != float64(int(k)) || k < 1 {
			return mcp.NewToolResultError(fmt.Sprintf("clusters must be a positive integer, got %v", k)), nil
		}
		opt.Clusters = int(k)
	}
	res, err := t.sess.Analyze(ctx, analysis.Request{Mode: mode, Columns: cols, Options: opt})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return render(func(b *bytes.Buffer) error { return report.Result(b, f, res) })
}

func (t *mcpTools) normalize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cols, err := argColumns(req.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cols) == 0 {
		return mcp.NewToolResultError("missing required argument: columns"), nil
	}
	if _, err := t.sess.Normalize(cols); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("normalized %s", strings.Join(cols, ", "))), nil
}

func render(fn func(*bytes.Buffer) error) (*mcp.CallToolResult, error) {
	var b bytes.Buffer
	if err := fn(&b); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func argFormat(args map[string]interface{}) (report.Format, error) {
	s, _ := args["format"].(string)
	if s == "" {
		return report.FormatMarkdown, nil
	}
	return report.ParseFormat(s)
}

// argColumns accepts a JSON array of strings or one comma-separated string.
func argColumns(args map[string]interface{}) ([]string, error) {
	switch v := args["columns"].(type) {
	case nil:
		return nil, nil
	case string:
		return splitColumns([]string{v}), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("columns must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return splitColumns(out), nil
	default:
		return nil, fmt.Errorf("columns must be an array of strings, got %T", v)
	}
}
