package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports that the input does not follow the VariFlex report layout.
	ErrFormat = errors.New("unexpected report format")

	// ErrMissingContext reports a pressure marker or table block seen before
	// the temperature and pressure it belongs to.
	ErrMissingContext = errors.New("missing temperature or pressure context")
)

// FormatError locates a fatal structural problem in a report.
type FormatError struct {
	Source string
	Line   int
	Text   string // offending line, empty when the report ended early
	Reason string
	Err    error // ErrFormat or ErrMissingContext
}

func (e *FormatError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s:%d: %v: %s", e.Source, e.Line, e.Err, e.Reason)
	}
	return fmt.Sprintf("%s:%d: %v: %s: %q", e.Source, e.Line, e.Err, e.Reason, e.Text)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
