package builtin

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Table is a header row plus string cells, padded to the header width.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a Table. Blank header cells are named "Unnamed: i" and
// duplicate names get a ".n" suffix.
func NewTable(header []string, rows [][]string) *Table {
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	cols := make([]string, width)
	seen := make(map[string]int, width)
	for i := range cols {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		cols[i] = name
	}

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		if isBlank(r) {
			continue
		}
		padded := make([]string, width)
		copy(padded, r)
		data = append(data, padded)
	}

	return &Table{Columns: cols, Rows: data}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Summary renders the shape, column names and Describe output.
func (t *Table) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Excel file loaded with %d rows and %d columns.\n", len(t.Rows), len(t.Columns))
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(t.Columns, ", "))
	b.WriteString("Summary statistics:\n")
	b.WriteString(t.Describe())
	return b.String()
}

// numeric returns the parsed values of column i and whether every non-empty
// cell is a number. A column with no values is not numeric.
func (t *Table) numeric(i int) ([]float64, bool) {
	var values []float64
	for _, r := range t.Rows {
		cell := strings.TrimSpace(r[i])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}

// Describe summarizes the numeric columns with count, mean, std, min,
// quartiles and max. When no column is numeric it summarizes every column
// with count, unique, top and freq instead.
func (t *Table) Describe() string {
	var (
		names  []string
		series [][]float64
	)
	for i, col := range t.Columns {
		if values, ok := t.numeric(i); ok {
			names = append(names, col)
			series = append(series, values)
		}
	}

	if len(names) > 0 {
		labels := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
		cells := make([][]string, len(names))
		for c, values := range series {
			cells[c] = formatStats(describeNumeric(values))
		}
		return renderGrid(labels, names, cells)
	}

	labels := []string{"count", "unique", "top", "freq"}
	cells := make([][]string, len(t.Columns))
	for i := range t.Columns {
		cells[i] = t.describeObject(i)
	}
	return renderGrid(labels, t.Columns, cells)
}

func describeNumeric(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	std := math.NaN()
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return []float64{
		float64(len(sorted)),
		stat.Mean(sorted, nil),
		std,
		floats.Min(sorted),
		Quantile(sorted, 0.25),
		Quantile(sorted, 0.5),
		Quantile(sorted, 0.75),
		floats.Max(sorted),
	}
}

// Quantile returns the p-quantile of sorted data by linear interpolation
// between closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func formatStats(stats []float64) []string {
	out := make([]string, len(stats))
	for i, v := range stats {
		if math.IsNaN(v) {
			out[i] = "NaN"
			continue
		}
		out[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return out
}

func (t *Table) describeObject(i int) []string {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, r := range t.Rows {
		cell := r[i]
		if strings.TrimSpace(cell) == "" {
			continue
		}
		total++
		if counts[cell] == 0 {
			order = append(order, cell)
		}
		counts[cell]++
	}
	if total == 0 {
		return []string{"0", "0", "NaN", "NaN"}
	}

	top := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[top] {
			top = v
		}
	}
	return []string{
		strconv.Itoa(total),
		strconv.Itoa(len(order)),
		top,
		strconv.Itoa(counts[top]),
	}
}

// renderGrid lays out a row-labelled table with right-aligned columns.
func renderGrid(labels, columns []string, cells [][]string) string {
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, len(l))
	}

	widths := make([]int, len(columns))
	for c, name := range columns {
		widths[c] = len(name)
		for _, v := range cells[c] {
			widths[c] = max(widths[c], len(v))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelWidth))
	for c, name := range columns {
		fmt.Fprintf(&b, "  %*s", widths[c], name)
	}
	for r, label := range labels {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%-*s", labelWidth, label)
		for c := range columns {
			fmt.Fprintf(&b, "  %*s", widths[c], cells[c][r])
		}
	}
	return b.String()
}
