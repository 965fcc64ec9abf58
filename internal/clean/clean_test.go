package clean_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/clean"
	"github.com/KaramelBytes/datalens-cli/internal/ingest"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

func load(t *testing.T, csv string) *table.Table {
	t.Helper()
	tb, err := ingest.Read("in.csv", []byte(csv), ingest.DefaultOptions())
	require.NoError(t, err)
	return tb
}

func TestCleanRemovesDuplicatesKeepingOrder(t *testing.T) {
	in := load(t, "a,b\n1,x\n2,y\n1,x\n3,z\n2,y\n")
	out, rep, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 5, rep.RowsBefore)
	assert.Equal(t, 3, rep.RowsAfter)
	assert.Equal(t, 2, rep.DuplicatesRemoved)
	a, _ := out.Column("a")
	assert.Equal(t, []float64{1, 2, 3}, a.Floats())
	assert.Equal(t, 5, in.NumRows(), "input must not change")
}

func TestCleanMissingEqualsMissingForDedupe(t *testing.T) {
	in := load(t, "a,b\n1,\n1,\n2,q\n")
	out, _, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestCleanImputesMeanAndMode(t *testing.T) {
	in := load(t, "n,c\n1,red\n,blue\n5,\n3,blue\n")
	out, rep, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)

	n, _ := out.Column("n")
	assert.Equal(t, table.Numeric, n.Type)
	assert.Equal(t, []float64{1, 3, 5, 3}, n.Floats())

	c, _ := out.Column("c")
	assert.Equal(t, table.Categorical, c.Type)
	assert.Equal(t, "blue", c.Values[2].Str)
	assert.Equal(t, map[string]int{"n": 1, "c": 1}, rep.Imputed)

	for _, col := range out.Columns() {
		assert.Zero(t, col.MissingCount(), col.Name)
	}
}

func TestCleanModeTieBreakFirstToReachMax(t *testing.T) {
	// "b" reaches two occurrences before "a" does.
	in := load(t, "c,id\nb,1\na,2\nb,3\na,4\n,5\n")
	out, _, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	c, _ := out.Column("c")
	assert.Equal(t, "b", c.Values[4].Str)
}

func TestCleanEmptyColumn(t *testing.T) {
	in := load(t, "a,b\n1,\n2,\n")
	_, _, err := clean.Clean(in, clean.DefaultOptions())
	var ee *clean.EmptyColumnError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "b", ee.Column)
}

func TestCleanCoercesNumericText(t *testing.T) {
	c := &table.Column{Name: "v", Type: table.Categorical, Values: []table.Value{
		table.Text(" 1.5"), table.Text("2"), table.Text("-3e1"),
	}}
	in, err := table.New([]*table.Column{c})
	require.NoError(t, err)

	out, rep, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	v, _ := out.Column("v")
	assert.Equal(t, table.Numeric, v.Type)
	assert.Equal(t, []float64{1.5, 2, -30}, v.Floats())
	assert.Equal(t, []string{"v"}, rep.Coerced)
}

func TestCleanRejectsNonFiniteCoercion(t *testing.T) {
	c := &table.Column{Name: "v", Values: []table.Value{table.Text("1"), table.Text("inf")}}
	in, err := table.New([]*table.Column{c})
	require.NoError(t, err)
	out, _, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	v, _ := out.Column("v")
	assert.Equal(t, table.Categorical, v.Type)
}

func TestCleanKeepsIngestedInfinityCategorical(t *testing.T) {
	out, _, err := clean.Clean(load(t, "v,w\n1,2\ninf,3\n3,5\n"), clean.DefaultOptions())
	require.NoError(t, err)
	v, _ := out.Column("v")
	assert.Equal(t, table.Categorical, v.Type)
	w, _ := out.Column("w")
	assert.Equal(t, []float64{2, 3, 5}, w.Floats())
}

func TestCleanDemotesNonFiniteNumbers(t *testing.T) {
	c := &table.Column{Name: "v", Type: table.Numeric, Values: []table.Value{table.Number(1), table.Number(math.Inf(1))}}
	in, err := table.New([]*table.Column{c})
	require.NoError(t, err)
	out, _, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	v, _ := out.Column("v")
	assert.Equal(t, table.Categorical, v.Type)
	assert.Equal(t, "+Inf", v.Values[1].String())
}

func TestCleanTreatsSignedZerosAsDuplicates(t *testing.T) {
	c := &table.Column{Name: "v", Type: table.Numeric, Values: []table.Value{table.Number(0), table.Number(math.Copysign(0, -1)), table.Number(1)}}
	in, err := table.New([]*table.Column{c})
	require.NoError(t, err)
	out, rep, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.DuplicatesRemoved)
	assert.Equal(t, 2, out.NumRows())
}

func TestCleanPinnedColumnStaysCategorical(t *testing.T) {
	in := load(t, "地区,Region,sales\n1,10,5\n2,20,6\n1,,7\n")
	out, rep, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)

	area, _ := out.Column("地区")
	assert.Equal(t, table.Categorical, area.Type)
	assert.Equal(t, []table.Value{table.Text("1"), table.Text("2"), table.Text("1")}, area.Values)

	region, _ := out.Column("Region")
	assert.Equal(t, table.Categorical, region.Type)
	// Pinned columns are imputed with the mode, not the mean.
	assert.Equal(t, "10", region.Values[2].Str)
	assert.ElementsMatch(t, []string{"地区", "Region"}, rep.Pinned)

	sales, _ := out.Column("sales")
	assert.Equal(t, table.Numeric, sales.Type)
}

func TestCleanCustomPinned(t *testing.T) {
	in := load(t, "zip,n\n10115,1\n20095,2\n")
	out, _, err := clean.Clean(in, clean.Options{Pinned: []string{"zip"}})
	require.NoError(t, err)
	zip, _ := out.Column("zip")
	assert.Equal(t, table.Categorical, zip.Type)
}

func TestCleanIsIdempotent(t *testing.T) {
	in := load(t, "region,units,price,tag\nnorth,1,2.5,a\nsouth,,3.5,b\nnorth,1,2.5,a\neast,4,,\nwest,x,1,b\n")
	once, _, err := clean.Clean(in, clean.DefaultOptions())
	require.NoError(t, err)
	twice, rep, err := clean.Clean(once, clean.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, once.Names(), twice.Names())
	assert.Zero(t, rep.DuplicatesRemoved)
	assert.Empty(t, rep.Imputed)
	for _, name := range once.Names() {
		a, _ := once.Column(name)
		b, _ := twice.Column(name)
		assert.Equal(t, a.Type, b.Type, name)
		assert.Equal(t, a.Values, b.Values, name)
	}
}

func TestNormalize(t *testing.T) {
	in := load(t, "a,b,c\n1,5,x\n2,5,y\n3,5,z\n")
	out, err := clean.Normalize(in, []string{"a", "b"})
	require.NoError(t, err)

	a, _ := out.Column("a")
	xs := a.Floats()
	assert.InDelta(t, -1.224744871, xs[0], 1e-9)
	assert.InDelta(t, 0, xs[1], 1e-12)
	assert.InDelta(t, 1.224744871, xs[2], 1e-9)

	b, _ := out.Column("b")
	assert.Equal(t, []float64{0, 0, 0}, b.Floats())

	orig, _ := in.Column("a")
	assert.Equal(t, []float64{1, 2, 3}, orig.Floats())
}

func TestNormalizeErrors(t *testing.T) {
	in := load(t, "a,c\n1,x\n2,y\n")

	_, err := clean.Normalize(in, []string{"a", "nope"})
	var nf *table.ColumnNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"nope"}, nf.Names)

	_, err = clean.Normalize(in, []string{"c"})
	var te *table.ColumnTypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "c", te.Column)
}

func TestDescribeAndColumnStats(t *testing.T) {
	in := load(t, "n,c\n1,a\n2,\n4,a\n")
	info := clean.Describe(in)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, []string{"n", "c"}, info.Names())
	assert.Equal(t, 1, info.Columns[1].Missing)

	st, err := clean.ColumnStats(in, "n")
	require.NoError(t, err)
	require.NotNil(t, st.Mean)
	assert.InDelta(t, 7.0/3, *st.Mean, 1e-12)
	assert.Equal(t, 2.0, *st.Median)
	assert.InDelta(t, 1.527525232, *st.Std, 1e-9)
	assert.Equal(t, 3, st.Unique)

	st, err = clean.ColumnStats(in, "c")
	require.NoError(t, err)
	assert.Nil(t, st.Mean)
	assert.Equal(t, 1, st.Unique)
	assert.Equal(t, 1, st.Missing)

	_, err = clean.ColumnStats(in, "zz")
	assert.Error(t, err)
}
