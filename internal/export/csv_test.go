package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/variflex_go/internal/parser"
)

func testDataset() *parser.Dataset {
	ds := parser.NewDataset()
	ds.Data[500] = map[float64]*parser.Condition{
		760: {
			Temperature:          500,
			Pressure:             760,
			Populations:          [][]float64{{0.25}},
			WellRateConstants:    [][]float64{{1.5, 2}},
			ProductRateConstants: [][]float64{{3e-7}},
			Complete:             true,
		},
		1: {Temperature: 500, Pressure: 1},
	}
	return ds
}

func TestWriteRateCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteRateCSV(&buf, testDataset(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want := strings.Join([]string{
		"temperature_k,pressure_torr,kind,row,column,value",
		"500,760,well,1,1,1.5",
		"500,760,well,1,2,2",
		"500,760,product,1,1,3e-07",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteRateCSV_TSVWithPopulations(t *testing.T) {
	var buf bytes.Buffer
	cfg := &CSVConfig{Dialect: DialectTSV, Precision: 3, NAString: "NA", IncludePopulations: true}
	n, err := WriteRateCSV(&buf, testDataset(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4, "no header requested")
	assert.Equal(t, "500\t760\tpopulation\t1\t1\t0.25", lines[0])
}

func TestCSVWriter_SkipsPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, nil)
	require.NoError(t, cw.WriteCondition(&parser.Condition{Temperature: 1, Pressure: 1}))
	require.NoError(t, cw.Flush())
	assert.Zero(t, cw.RowsWritten())
	assert.Empty(t, buf.String())
}
