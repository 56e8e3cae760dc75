package parser

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Marker and label text as printed by VariFlex. The double space in
// productsLabel is part of the report layout.
const (
	tableStartMarker = "Starting in fragments"
	wellsLabel       = "phenomenological rate coefficients for the wells"
	stagesLabel      = "total products and total rate constant at each stage in the sum"
	productsLabel    = "phenomenological rate coefficients for  each product at each stage in the sum"
)

var (
	temperatureRe = regexp.MustCompile(`Projected Eigenvectors for T =\s+(\S+)\s+K`)
	pressureRe    = regexp.MustCompile(`and Pressure =\s+(\S+)\s+Torr`)
)

// Option configures a Scanner.
type Option func(*Scanner)

// WithColumnWidth sets the fixed field width of numeric tables.
func WithColumnWidth(width int) Option {
	return func(s *Scanner) {
		if width > 0 {
			s.width = width
		}
	}
}

// WithEncoding sets the text encoding used by ScanFile. Empty means UTF-8/ASCII.
func WithEncoding(encoding string) Option {
	return func(s *Scanner) { s.encoding = encoding }
}

// WithLogger sets the logger used for per-marker debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scanner reads VariFlex eigenvalue reports into a Dataset. The current
// temperature and pressure carry over between reports scanned by the same
// Scanner, so several files behave like one concatenated report.
type Scanner struct {
	width    int
	encoding string
	logger   *slog.Logger
	data     *Dataset

	temperature     float64
	pressure        float64
	haveTemperature bool
	havePressure    bool
}

// NewScanner returns a Scanner with an empty Dataset.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		width:  DefaultColumnWidth,
		logger: slog.Default(),
		data:   NewDataset(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dataset returns the dataset built so far.
func (s *Scanner) Dataset() *Dataset {
	return s.data
}

// ParseReport scans a single report from r with default settings.
func ParseReport(r io.Reader) (*Dataset, error) {
	s := NewScanner()
	if err := s.Scan(r, "<input>"); err != nil {
		return nil, err
	}
	return s.Dataset(), nil
}

// ParseFiles scans the named reports in order with default settings.
// "-" reads standard input.
func ParseFiles(paths ...string) (*Dataset, error) {
	s := NewScanner()
	for _, path := range paths {
		if err := s.ScanFile(path); err != nil {
			return nil, err
		}
	}
	return s.Dataset(), nil
}

// ScanFile opens path, scans it and closes it whether or not scanning succeeded.
func (s *Scanner) ScanFile(path string) error {
	rc, err := openReport(path, s.encoding)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer rc.Close()
	return s.Scan(rc, path)
}

// Scan reads every line of r, adding the tables it finds to the dataset.
// source names r in error messages.
func (s *Scanner) Scan(r io.Reader, source string) error {
	ls := newLineStream(r, source)
	s.data.Sources = append(s.data.Sources, source)

	for {
		line, ok := ls.next()
		if !ok {
			break
		}
		if err := s.handleLine(ls, line); err != nil {
			return err
		}
	}
	if err := ls.err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}
	return nil
}

func (s *Scanner) handleLine(ls *lineStream, line string) error {
	if m := temperatureRe.FindStringSubmatch(line); m != nil {
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return s.formatError(ls, line, ErrFormat, "unreadable temperature "+strconv.Quote(m[1]))
		}
		s.temperature, s.haveTemperature = t, true
		s.havePressure = false
		s.data.ensureTemperature(t)
		s.logger.Debug("temperature marker", "source", ls.source, "line", ls.line, "temperature_k", t)
		return nil
	}

	if m := pressureRe.FindStringSubmatch(line); m != nil {
		p, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return s.formatError(ls, line, ErrFormat, "unreadable pressure "+strconv.Quote(m[1]))
		}
		if !s.haveTemperature {
			return s.formatError(ls, line, ErrMissingContext, "pressure marker before any temperature marker")
		}
		s.pressure, s.havePressure = p, true
		s.data.ensureCondition(s.temperature, p)
		s.logger.Debug("pressure marker", "source", ls.source, "line", ls.line, "pressure_torr", p)
		return nil
	}

	if strings.Contains(line, tableStartMarker) {
		if !s.haveTemperature || !s.havePressure {
			return s.formatError(ls, line, ErrMissingContext, "eigenvector table before temperature and pressure markers")
		}
		return s.readBlock(ls)
	}
	return nil
}

// readBlock reads the eigenvector table and the two rate tables that follow
// a table-start marker and stores them under the current state.
//
// The line that ends the product table is pushed back onto the stream and
// goes through marker matching again, so a temperature, pressure or
// table-start marker printed directly after the table is not lost.
func (s *Scanner) readBlock(ls *lineStream) error {
	startLine := ls.line

	block, line, ok := readArray(ls, s.width)
	if !ok {
		return s.truncated(ls, wellsLabel)
	}
	populations, eigenvalues, normalised, err := splitEigenBlock(block)
	if err != nil {
		return s.formatError(ls, line, ErrFormat, err.Error())
	}
	if err := s.expect(ls, line, wellsLabel); err != nil {
		return err
	}

	line, ok = ls.next()
	if !ok {
		return s.truncated(ls, stagesLabel)
	}
	if err := s.expect(ls, line, stagesLabel); err != nil {
		return err
	}

	wells, line, ok := readArray(ls, s.width)
	if !ok {
		return s.truncated(ls, productsLabel)
	}
	if err := s.expect(ls, line, productsLabel); err != nil {
		return err
	}

	products, line, ok := readArray(ls, s.width)
	if ok {
		ls.unread(line)
	}

	cond := s.data.ensureCondition(s.temperature, s.pressure)
	if cond.Complete {
		s.data.Warnings = append(s.data.Warnings, fmt.Sprintf(
			"%s:%d: second eigenvalue block for T=%g K, P=%g Torr ignored; keeping the first",
			ls.source, startLine, s.temperature, s.pressure))
		return nil
	}
	cond.Populations = populations
	cond.Eigenvalues = eigenvalues
	cond.NormalisedEigenvalues = normalised
	cond.WellRateConstants = wells
	cond.ProductRateConstants = products
	cond.Complete = true

	s.logger.Debug("condition complete",
		"source", ls.source, "line", startLine,
		"temperature_k", s.temperature, "pressure_torr", s.pressure,
		"eigenvalues", len(eigenvalues), "wells", cond.NumWells(),
		"well_stages", len(wells), "product_stages", len(products))
	return nil
}

// splitEigenBlock separates the trailing eigenvalue and normalised
// eigenvalue columns from the population columns.
func splitEigenBlock(block [][]float64) (populations [][]float64, eigenvalues, normalised []float64, err error) {
	populations = make([][]float64, len(block))
	eigenvalues = make([]float64, len(block))
	normalised = make([]float64, len(block))
	for i, row := range block {
		n := len(row)
		if n < 2 {
			return nil, nil, nil, fmt.Errorf("eigenvector table has %d columns, need at least 2", n)
		}
		populations[i] = row[: n-2 : n-2]
		eigenvalues[i] = row[n-2]
		normalised[i] = row[n-1]
	}
	return populations, eigenvalues, normalised, nil
}

func (s *Scanner) expect(ls *lineStream, line, label string) error {
	if strings.Contains(line, label) {
		return nil
	}
	return s.formatError(ls, line, ErrFormat, "expected "+strconv.Quote(label))
}

// truncated reports a block cut short. A failed read is returned as such
// rather than as a layout problem.
func (s *Scanner) truncated(ls *lineStream, label string) error {
	if err := ls.err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", ls.source, err)
	}
	return s.formatError(ls, "", ErrFormat, "report ended before "+strconv.Quote(label))
}

func (s *Scanner) formatError(ls *lineStream, line string, kind error, reason string) error {
	return &FormatError{
		Source: ls.source,
		Line:   ls.line,
		Text:   line,
		Reason: reason,
		Err:    kind,
	}
}
