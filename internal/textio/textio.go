// Package textio provides the line-oriented stream abstractions consumed
// by the CLI drivers. The core packages never open files: they receive
// already-opened readers and writers through these interfaces.
package textio

import (
	"bufio"
	"fmt"
	"io"
)

// LineReader yields successive text lines without their terminators.
type LineReader interface {
	// ReadLine returns the next line. It returns io.EOF after the last
	// line has been delivered.
	ReadLine() (string, error)
}

// LineWriter accepts successive text lines, adding the terminator itself.
type LineWriter interface {
	WriteLine(line string) error
}

type lineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader wraps r in a LineReader. Lines up to 1 MiB are accepted.
func NewLineReader(r io.Reader) LineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineReader{scanner: scanner}
}

func (lr *lineReader) ReadLine() (string, error) {
	if lr.scanner.Scan() {
		return lr.scanner.Text(), nil
	}
	if err := lr.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

type lineWriter struct {
	w io.Writer
}

// NewLineWriter wraps w in a LineWriter.
func NewLineWriter(w io.Writer) LineWriter {
	return &lineWriter{w: w}
}

func (lw *lineWriter) WriteLine(line string) error {
	if _, err := fmt.Fprintln(lw.w, line); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}
