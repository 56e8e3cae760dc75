package parser

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// maxLineLength bounds a single report line; wide eigenvector tables with
// many wells can exceed bufio's 64 KiB default.
const maxLineLength = 1 << 20

// lineStream yields report lines one at a time and remembers where each came
// from. It holds at most one line of pushback.
type lineStream struct {
	sc     *bufio.Scanner
	source string
	line   int

	pending    string
	hasPending bool
}

func newLineStream(r io.Reader, source string) *lineStream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &lineStream{sc: sc, source: source}
}

// next returns the following line with any trailing carriage return removed.
// ok is false once the input is exhausted.
func (s *lineStream) next() (string, bool) {
	if s.hasPending {
		s.hasPending = false
		s.line++
		return s.pending, true
	}
	if !s.sc.Scan() {
		return "", false
	}
	s.line++
	return strings.TrimRight(s.sc.Text(), "\r"), true
}

// unread pushes line back so the next call to next returns it again.
func (s *lineStream) unread(line string) {
	s.pending = line
	s.hasPending = true
	s.line--
}

func (s *lineStream) err() error {
	return s.sc.Err()
}

// splitFixedWidth cuts line into as many width-sized fields as fit and parses
// each as a float. Any trailing remainder shorter than width is ignored.
func splitFixedWidth(line string, width int) ([]float64, bool) {
	n := len(line) / width
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		field := strings.TrimSpace(line[i*width : (i+1)*width])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// readArray consumes lines from s while they parse as fixed-width numeric
// rows with the same column count as the first row. The line that ends the
// table is consumed and returned as boundary so the caller can match it
// against the next expected label. ok is false when the stream ran out
// before any boundary line was seen.
//
// A line with no complete field (blank or shorter than width) ends the table.
func readArray(s *lineStream, width int) (table [][]float64, boundary string, ok bool) {
	table = make([][]float64, 0)
	for {
		line, more := s.next()
		if !more {
			return table, "", false
		}
		row, numeric := splitFixedWidth(line, width)
		if !numeric || len(row) == 0 {
			return table, line, true
		}
		if len(table) > 0 && len(row) != len(table[0]) {
			return table, line, true
		}
		table = append(table, row)
	}
}
