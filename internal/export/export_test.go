package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/export"
	"github.com/KaramelBytes/datalens-cli/internal/ingest"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

func sample(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New([]*table.Column{
		{Name: "sales", Type: table.Numeric, Values: []table.Value{table.Number(1.5), table.Number(2)}},
		{Name: "region", Type: table.Categorical, Values: []table.Value{table.Text("north, east"), table.Text("south")}},
	})
	require.NoError(t, err)
	return tb
}

func TestCSVQuotesAndFormatsNumbers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.CSV(&buf, sample(t), ','))
	assert.Equal(t, "sales,region\n1.5,\"north, east\"\n2,south\n", buf.String())
}

func TestXLSXReadsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.XLSX(&buf, sample(t)))

	back, err := ingest.Read("out.xlsx", buf.Bytes(), ingest.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "region"}, back.Names())
	require.Equal(t, 2, back.NumRows())
	assert.Equal(t, "north, east", back.Row(0)[1].String())
}

func TestFileChoosesFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	tb := sample(t)

	tsv := filepath.Join(dir, "out", "clean.tsv")
	require.NoError(t, export.File(tsv, tb))
	b, err := os.ReadFile(tsv)
	require.NoError(t, err)
	assert.Contains(t, string(b), "sales\tregion\n")

	err = export.File(filepath.Join(dir, "clean.parquet"), tb)
	var uf *export.UnsupportedFormatError
	assert.ErrorAs(t, err, &uf)
	assert.False(t, export.Supported("x.json"))
	assert.True(t, export.Supported("X.XLSX"))
}
