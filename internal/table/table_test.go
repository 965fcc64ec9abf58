package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numCol(name string, vals ...float64) *Column {
	c := &Column{Name: name, Type: Numeric}
	for _, v := range vals {
		c.Values = append(c.Values, Number(v))
	}
	return c
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New([]*Column{numCol("a", 1), numCol("a", 2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateColumn))
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := New([]*Column{numCol("a", 1, 2), numCol("b", 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRaggedColumns))
}

func TestLookupReportsAllMissing(t *testing.T) {
	tb, err := New([]*Column{numCol("a", 1)})
	require.NoError(t, err)

	_, err = tb.Lookup("a", "x", "y")
	var nf *ColumnNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"x", "y"}, nf.Names)
	assert.Contains(t, nf.Error(), `"x"`)
}

func TestReplaceSharesUntouchedColumns(t *testing.T) {
	a, b := numCol("a", 1, 2), numCol("b", 3, 4)
	tb, err := New([]*Column{a, b})
	require.NoError(t, err)

	nb := numCol("b", 5, 6)
	out, err := tb.Replace(nb)
	require.NoError(t, err)

	gotA, _ := out.Column("a")
	gotB, _ := out.Column("b")
	assert.Same(t, a, gotA)
	assert.Same(t, nb, gotB)
	orig, _ := tb.Column("b")
	assert.Same(t, b, orig, "source table must be unchanged")
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(3), "3"},
		{Number(2.5), "2.5"},
		{Text("north"), "north"},
		{Missing(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestRowAndFloats(t *testing.T) {
	c := &Column{Name: "mixed", Values: []Value{Number(1), Missing(), Text("x"), Number(4)}}
	assert.Equal(t, []float64{1, 4}, c.Floats())
	assert.Equal(t, 1, c.MissingCount())

	tb, err := New([]*Column{c, numCol("n", 9, 8, 7, 6)})
	require.NoError(t, err)
	assert.Equal(t, 4, tb.NumRows())
	row := tb.Row(2)
	assert.Equal(t, "x", row[0].Str)
	assert.Equal(t, 7.0, row[1].Num)
}
