package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// multiReadCloser closes every wrapped closer on Close.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// lookupEncoding maps a configured encoding name to a decoder. Empty,
// "utf-8" and "ascii" mean the bytes are used as they are.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "ascii":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported report encoding %q", name)
	}
}

// ValidEncoding reports whether name is an encoding openReport understands.
func ValidEncoding(name string) bool {
	_, err := lookupEncoding(name)
	return err == nil
}

// openReport opens path for reading. "-" is standard input. Gzip input is
// detected by magic number, or by a .gz suffix for named files.
func openReport(path, enc string) (io.ReadCloser, error) {
	decoder, err := lookupEncoding(enc)
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	if path == "-" {
		rc, err = decompress(os.Stdin, io.NopCloser(nil), false)
		if err != nil {
			return nil, fmt.Errorf("standard input: %w", err)
		}
	} else {
		rc, err = openFile(path)
		if err != nil {
			return nil, err
		}
	}

	if decoder == nil {
		return rc, nil
	}
	return &multiReadCloser{Reader: decoder.NewDecoder().Reader(rc), closers: []io.Closer{rc}}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return decompress(fh, fh, strings.HasSuffix(path, ".gz"))
}

// decompress wraps r in a gzip reader when it starts with the gzip magic
// number or forceGzip is set. closer is closed with the returned reader, or
// immediately if the gzip header is bad.
func decompress(r io.Reader, closer io.Closer, forceGzip bool) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	sig, _ := br.Peek(2)
	isGzip := len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b
	if !isGzip && !forceGzip {
		return &multiReadCloser{Reader: br, closers: []io.Closer{closer}}, nil
	}
	gr, err := gzip.NewReader(br)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, closer}}, nil
}

// ExpandPatterns expands shell glob patterns in order. A pattern that matches
// nothing is kept as a literal path so opening it reports the problem.
func ExpandPatterns(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if pattern == "-" {
			paths = append(paths, pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			paths = append(paths, pattern)
			continue
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
