// Package export writes parsed VariFlex datasets in tabular form.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/user/variflex_go/internal/parser"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 comma-separated values.
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

// Table kinds written in the kind column.
const (
	KindWell       = "well"
	KindProduct    = "product"
	KindPopulation = "population"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	Dialect       CSVDialect
	IncludeHeader bool
	// Precision is the number of significant digits; -1 keeps the shortest exact form.
	Precision int
	NAString  string
	// IncludePopulations also writes the eigenvector population tables.
	IncludePopulations bool
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     -1,
		NAString:      "NA",
	}
}

// CSVWriter writes dataset tables in long format: one value per row,
// keyed by temperature, pressure, table kind, row and column.
type CSVWriter struct {
	config      *CSVConfig
	writer      *csv.Writer
	headerDone  bool
	rowsWritten int
}

// NewCSVWriter creates a CSVWriter on w. A nil config means DefaultCSVConfig().
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}
	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}
	return &CSVWriter{config: config, writer: csvWriter}
}

var header = []string{"temperature_k", "pressure_torr", "kind", "row", "column", "value"}

// WriteHeader writes the header row once.
func (cw *CSVWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}
	if err := cw.writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	cw.headerDone = true
	return nil
}

func (cw *CSVWriter) formatFloat(v float64) string {
	if math.IsNaN(v) {
		return cw.config.NAString
	}
	return strconv.FormatFloat(v, 'g', cw.config.Precision, 64)
}

func (cw *CSVWriter) writeTable(cond *parser.Condition, kind string, table [][]float64) error {
	t := cw.formatFloat(cond.Temperature)
	p := cw.formatFloat(cond.Pressure)
	for i, row := range table {
		for j, v := range row {
			record := []string{t, p, kind, strconv.Itoa(i + 1), strconv.Itoa(j + 1), cw.formatFloat(v)}
			if err := cw.writer.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
			cw.rowsWritten++
		}
	}
	return nil
}

// WriteCondition writes the rate tables of one complete condition.
// Placeholders without an eigenvalue block are skipped.
func (cw *CSVWriter) WriteCondition(cond *parser.Condition) error {
	if !cond.Complete {
		return nil
	}
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}
	if cw.config.IncludePopulations {
		if err := cw.writeTable(cond, KindPopulation, cond.Populations); err != nil {
			return err
		}
	}
	if err := cw.writeTable(cond, KindWell, cond.WellRateConstants); err != nil {
		return err
	}
	return cw.writeTable(cond, KindProduct, cond.ProductRateConstants)
}

// WriteDataset writes every complete condition ordered by temperature and pressure.
func (cw *CSVWriter) WriteDataset(ds *parser.Dataset) error {
	for _, cond := range ds.Conditions() {
		if err := cw.WriteCondition(cond); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// RowsWritten returns the number of data rows written, header excluded.
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

// WriteRateCSV writes ds to w and flushes.
func WriteRateCSV(w io.Writer, ds *parser.Dataset, config *CSVConfig) (int, error) {
	cw := NewCSVWriter(w, config)
	if err := cw.WriteDataset(ds); err != nil {
		return cw.RowsWritten(), err
	}
	return cw.RowsWritten(), cw.Flush()
}
