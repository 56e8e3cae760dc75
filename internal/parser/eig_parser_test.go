package parser

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportBuilder writes synthetic reports in the VariFlex eigenvalue layout.
type reportBuilder struct {
	b strings.Builder
}

func (r *reportBuilder) line(s string) *reportBuilder {
	r.b.WriteString(s)
	r.b.WriteString("\n")
	return r
}

func (r *reportBuilder) temperature(t float64) *reportBuilder {
	return r.line(fmt.Sprintf(" Projected Eigenvectors for T = %8.1f K", t))
}

func (r *reportBuilder) pressure(p float64) *reportBuilder {
	return r.line(fmt.Sprintf("                         and Pressure = %8.1f Torr", p))
}

func (r *reportBuilder) rows(rows [][]float64) *reportBuilder {
	for _, row := range rows {
		r.line(fw(row...))
	}
	return r
}

// block writes a table-start marker and the three tables that follow it.
func (r *reportBuilder) block(eig, wells, products [][]float64) *reportBuilder {
	r.line("   Starting in fragments")
	r.rows(eig)
	r.line("   phenomenological rate coefficients for the wells")
	r.line("   total products and total rate constant at each stage in the sum")
	r.rows(wells)
	r.line("   phenomenological rate coefficients for  each product at each stage in the sum")
	r.rows(products)
	return r.line("")
}

func (r *reportBuilder) String() string {
	return r.b.String()
}

// sampleTables returns an eigenvector block (3 wells + 2 eigenvalue columns),
// a 4x3 well rate table and a 2x2 product rate table, all offset by seed.
func sampleTables(seed float64) (eig, wells, products [][]float64) {
	eig = [][]float64{
		{seed + 0.1, seed + 0.2, seed + 0.3, -(seed + 1e3), -(seed + 1e-3)},
		{seed + 0.4, seed + 0.5, seed + 0.6, -(seed + 2e3), -(seed + 2e-3)},
		{seed + 0.7, seed + 0.8, seed + 0.9, -(seed + 3e3), -(seed + 3e-3)},
	}
	wells = [][]float64{
		{seed + 1, seed + 2, seed + 3},
		{seed + 4, seed + 5, seed + 6},
		{seed + 7, seed + 8, seed + 9},
		{seed + 10, seed + 11, seed + 12},
	}
	products = [][]float64{
		{seed + 100, seed + 200},
		{seed + 300, seed + 400},
	}
	return eig, wells, products
}

func TestParseReport_SingleBlockShapes(t *testing.T) {
	eig, wells, products := sampleTables(0)
	var r reportBuilder
	r.line(" VariFlex output header").
		temperature(500).
		pressure(760).
		line(" some unrelated text").
		block(eig, wells, products)

	ds, err := ParseReport(strings.NewReader(r.String()))
	require.NoError(t, err)

	assert.Equal(t, []float64{500}, ds.Temperatures())
	assert.Equal(t, []float64{760}, ds.Pressures(500))
	assert.Equal(t, 1, ds.Len())

	cond, ok := ds.Get(500, 760)
	require.True(t, ok)
	assert.True(t, cond.Complete)
	assert.Equal(t, 500.0, cond.Temperature)
	assert.Equal(t, 760.0, cond.Pressure)

	require.Len(t, cond.Populations, 3)
	assert.Equal(t, 3, cond.NumWells())
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, cond.Populations[0])
	assert.Equal(t, []float64{-1e3, -2e3, -3e3}, cond.Eigenvalues)
	assert.InDeltaSlice(t, []float64{-1e-3, -2e-3, -3e-3}, cond.NormalisedEigenvalues, 1e-12)
	assert.Equal(t, wells, cond.WellRateConstants)
	assert.Equal(t, products, cond.ProductRateConstants)
	assert.Empty(t, ds.Warnings)
	assert.Equal(t, []string{"<input>"}, ds.Sources)
}

func TestParseReport_MarkerExample(t *testing.T) {
	input := "Projected Eigenvectors for T =    500.0 K\n" +
		"blah\n" +
		"and Pressure =    760.0 Torr\n"

	s := NewScanner()
	require.NoError(t, s.Scan(strings.NewReader(input), "example"))

	assert.True(t, s.haveTemperature)
	assert.True(t, s.havePressure)
	assert.Equal(t, 500.0, s.temperature)
	assert.Equal(t, 760.0, s.pressure)

	cond, ok := s.Dataset().Get(500, 760)
	require.True(t, ok)
	assert.False(t, cond.Complete, "a pressure marker alone only creates a placeholder")
}

func TestParseReport_MultiplePressuresAndTemperatures(t *testing.T) {
	eigA, wellsA, prodA := sampleTables(0)
	eigB, wellsB, prodB := sampleTables(10)
	eigC, wellsC, prodC := sampleTables(20)

	var r reportBuilder
	r.temperature(300).pressure(1).block(eigA, wellsA, prodA).
		pressure(100).block(eigB, wellsB, prodB).
		temperature(1000).pressure(1).block(eigC, wellsC, prodC)

	ds, err := ParseReport(strings.NewReader(r.String()))
	require.NoError(t, err)

	assert.Equal(t, []float64{300, 1000}, ds.Temperatures())
	assert.Equal(t, []float64{1, 100}, ds.Pressures(300))
	assert.Equal(t, []float64{1}, ds.Pressures(1000))
	assert.Equal(t, 3, ds.Len())

	a, _ := ds.Get(300, 1)
	b, _ := ds.Get(300, 100)
	c, _ := ds.Get(1000, 1)
	assert.Equal(t, wellsA, a.WellRateConstants)
	assert.Equal(t, wellsB, b.WellRateConstants)
	assert.Equal(t, wellsC, c.WellRateConstants)
	assert.Equal(t, prodA, a.ProductRateConstants)
	assert.Equal(t, prodB, b.ProductRateConstants)
	assert.Equal(t, prodC, c.ProductRateConstants)

	conds := ds.Conditions()
	require.Len(t, conds, 3)
	assert.Same(t, a, conds[0])
	assert.Same(t, b, conds[1])
	assert.Same(t, c, conds[2])
}

func TestParseReport_RepeatedTemperatureKeepsRecords(t *testing.T) {
	eigA, wellsA, prodA := sampleTables(0)
	eigB, wellsB, prodB := sampleTables(5)

	var r reportBuilder
	r.temperature(500).pressure(10).block(eigA, wellsA, prodA).
		temperature(800).pressure(10).
		temperature(500).pressure(20).block(eigB, wellsB, prodB)

	ds, err := ParseReport(strings.NewReader(r.String()))
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20}, ds.Pressures(500))
	first, ok := ds.Get(500, 10)
	require.True(t, ok)
	assert.True(t, first.Complete)
	assert.Equal(t, wellsA, first.WellRateConstants)

	placeholder, ok := ds.Get(800, 10)
	require.True(t, ok)
	assert.False(t, placeholder.Complete)
}

func TestParseReport_SecondBlockForSameStateIsIgnored(t *testing.T) {
	eigA, wellsA, prodA := sampleTables(0)
	eigB, wellsB, prodB := sampleTables(50)

	var r reportBuilder
	r.temperature(500).pressure(10).block(eigA, wellsA, prodA).
		pressure(10).block(eigB, wellsB, prodB).
		pressure(20)

	ds, err := ParseReport(strings.NewReader(r.String()))
	require.NoError(t, err)

	cond, _ := ds.Get(500, 10)
	assert.Equal(t, wellsA, cond.WellRateConstants)
	require.Len(t, ds.Warnings, 1)
	assert.Contains(t, ds.Warnings[0], "T=500 K, P=10 Torr")

	// The stream stayed aligned after the skipped block.
	_, ok := ds.Get(500, 20)
	assert.True(t, ok)
}

func TestParseReport_MarkerDirectlyAfterProductTable(t *testing.T) {
	eigA, wellsA, prodA := sampleTables(0)
	eigB, wellsB, prodB := sampleTables(1)

	var r reportBuilder
	r.temperature(400).pressure(50)
	r.line("   Starting in fragments").rows(eigA).
		line("   phenomenological rate coefficients for the wells").
		line("   total products and total rate constant at each stage in the sum").
		rows(wellsA).
		line("   phenomenological rate coefficients for  each product at each stage in the sum").
		rows(prodA)
	r.temperature(600).pressure(50).block(eigB, wellsB, prodB)

	ds, err := ParseReport(strings.NewReader(r.String()))
	require.NoError(t, err)

	assert.Equal(t, []float64{400, 600}, ds.Temperatures())
	cond, ok := ds.Get(600, 50)
	require.True(t, ok)
	assert.Equal(t, wellsB, cond.WellRateConstants)
}

func TestParseReport_ProductTableAtEndOfInput(t *testing.T) {
	eig, wells, products := sampleTables(0)

	var r reportBuilder
	r.temperature(400).pressure(50)
	r.line("   Starting in fragments").rows(eig).
		line("   phenomenological rate coefficients for the wells").
		line("   total products and total rate constant at each stage in the sum").
		rows(wells).
		line("   phenomenological rate coefficients for  each product at each stage in the sum").
		rows(products)

	ds, err := ParseReport(strings.NewReader(r.String()))
	require.NoError(t, err)
	cond, _ := ds.Get(400, 50)
	assert.True(t, cond.Complete)
	assert.Equal(t, products, cond.ProductRateConstants)
}

func TestParseReport_FormatViolations(t *testing.T) {
	eig, wells, products := sampleTables(0)
	good := func() *reportBuilder {
		r := &reportBuilder{}
		r.temperature(500).pressure(760)
		return r
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
		reason  string
	}{
		{
			name: "altered wells label",
			input: good().line("   Starting in fragments").rows(eig).
				line("   phenomenological rate coefficients for wells").String(),
			wantErr: ErrFormat,
			reason:  wellsLabel,
		},
		{
			name: "altered stages label",
			input: good().line("   Starting in fragments").rows(eig).
				line("   phenomenological rate coefficients for the wells").
				line("   total products at each stage").String(),
			wantErr: ErrFormat,
			reason:  stagesLabel,
		},
		{
			name: "single space in products label",
			input: good().line("   Starting in fragments").rows(eig).
				line("   phenomenological rate coefficients for the wells").
				line("   total products and total rate constant at each stage in the sum").
				rows(wells).
				line("   phenomenological rate coefficients for each product at each stage in the sum").
				rows(products).String(),
			wantErr: ErrFormat,
			reason:  productsLabel,
		},
		{
			name:    "report ends inside eigenvector table",
			input:   good().line("   Starting in fragments").rows(eig).String(),
			wantErr: ErrFormat,
			reason:  "report ended",
		},
		{
			name:    "eigenvector table with one column",
			input:   good().line("   Starting in fragments").line(fw(1)).line("x").String(),
			wantErr: ErrFormat,
			reason:  "need at least 2",
		},
		{
			name:    "unreadable temperature",
			input:   "Projected Eigenvectors for T = ****** K\n",
			wantErr: ErrFormat,
			reason:  "unreadable temperature",
		},
		{
			name:    "table before any marker",
			input:   "   Starting in fragments\n" + fw(1, 2, 3) + "\n",
			wantErr: ErrMissingContext,
		},
		{
			name:    "pressure before temperature",
			input:   "and Pressure =    760.0 Torr\n",
			wantErr: ErrMissingContext,
		},
		{
			name: "table after temperature without pressure",
			input: (&reportBuilder{}).temperature(300).pressure(1).temperature(400).
				line("   Starting in fragments").String(),
			wantErr: ErrMissingContext,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseReport(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var ferr *FormatError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, "<input>", ferr.Source)
			assert.Positive(t, ferr.Line)
			if tt.reason != "" {
				assert.Contains(t, err.Error(), tt.reason)
			}
		})
	}
}

func TestParseReport_ErrorLocatesOffendingLine(t *testing.T) {
	eig, _, _ := sampleTables(0)
	var r reportBuilder
	r.temperature(500).pressure(760).line("   Starting in fragments").rows(eig).
		line("   something else entirely")

	_, err := ParseReport(strings.NewReader(r.String()))
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 7, ferr.Line)
	assert.Equal(t, "   something else entirely", ferr.Text)
}

func TestScanner_ContextCarriesAcrossReports(t *testing.T) {
	eig, wells, products := sampleTables(0)
	var head, tail reportBuilder
	head.temperature(700).pressure(5)
	tail.block(eig, wells, products)

	s := NewScanner()
	require.NoError(t, s.Scan(strings.NewReader(head.String()), "part1"))
	require.NoError(t, s.Scan(strings.NewReader(tail.String()), "part2"))

	cond, ok := s.Dataset().Get(700, 5)
	require.True(t, ok)
	assert.True(t, cond.Complete)
	assert.Equal(t, []string{"part1", "part2"}, s.Dataset().Sources)
}

func TestScanner_WithColumnWidth(t *testing.T) {
	input := "Projected Eigenvectors for T =    300.0 K\n" +
		"and Pressure =      1.0 Torr\n" +
		"Starting in fragments\n" +
		"  0.5  0.5 -1.0 -0.1\n" +
		"phenomenological rate coefficients for the wells\n" +
		"total products and total rate constant at each stage in the sum\n" +
		"  1.0  2.0\n" +
		"phenomenological rate coefficients for  each product at each stage in the sum\n" +
		"  3.0\n"

	s := NewScanner(WithColumnWidth(5))
	require.NoError(t, s.Scan(strings.NewReader(input), "narrow"))

	cond, ok := s.Dataset().Get(300, 1)
	require.True(t, ok)
	assert.Equal(t, [][]float64{{0.5, 0.5}}, cond.Populations)
	assert.Equal(t, []float64{-1}, cond.Eigenvalues)
	assert.Equal(t, []float64{-0.1}, cond.NormalisedEigenvalues)
	assert.Equal(t, [][]float64{{1, 2}}, cond.WellRateConstants)
	assert.Equal(t, [][]float64{{3}}, cond.ProductRateConstants)
}

func TestSplitEigenBlock_Empty(t *testing.T) {
	pops, eig, norm, err := splitEigenBlock([][]float64{})
	require.NoError(t, err)
	assert.Empty(t, pops)
	assert.Empty(t, eig)
	assert.Empty(t, norm)
}

func TestParseReport_ReadErrorInsideBlock(t *testing.T) {
	var r reportBuilder
	r.temperature(500).pressure(760).
		line("   Starting in fragments").
		line(strings.Repeat(fw(1.5), maxLineLength/DefaultColumnWidth+1))

	_, err := ParseReport(strings.NewReader(r.String()))
	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
	assert.NotErrorIs(t, err, ErrFormat)
	var fe *FormatError
	assert.False(t, errors.As(err, &fe))
}
