package builtin_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tailored-agentic-units/alfred/tools/builtin"
)

func TestNewTable_Columns(t *testing.T) {
	table := builtin.NewTable(
		[]string{"a", "", "a"},
		[][]string{{"1", "2", "3", "4"}, {}, {"5"}},
	)

	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "Unnamed: 3"}, table.Columns)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"5", "", "", ""}, table.Rows[1])
}

func TestDescribe_Objects(t *testing.T) {
	table := builtin.NewTable(
		[]string{"city", "note"},
		[][]string{{"Paris", "x"}, {"Rome", ""}, {"Paris", "y"}},
	)

	want := "         city  note\n" +
		"count       3     2\n" +
		"unique      2     2\n" +
		"top     Paris     x\n" +
		"freq        2     1"
	assert.Equal(t, want, table.Describe())
}

func TestDescribe_SingleValueStd(t *testing.T) {
	table := builtin.NewTable([]string{"n"}, [][]string{{"7"}})

	assert.Contains(t, table.Describe(), "std         NaN")
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, builtin.Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 2.5, builtin.Quantile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 4, builtin.Quantile(sorted, 1), 1e-12)
	assert.True(t, math.IsNaN(builtin.Quantile(nil, 0.5)))
}
