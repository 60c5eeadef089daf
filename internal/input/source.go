// Package input provides the line sources the pipeline reads from:
// stdin, plain files, and a follow source with tail semantics that
// survives file rotation and truncation.
package input

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Source yields one terminator-stripped line per call. Finite sources
// return io.EOF when exhausted.
type Source interface {
	Next() (string, error)
}

// trimLine strips a trailing LF, and a CR before it, so LF and CRLF
// input look the same downstream.
func trimLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

type readerSource struct {
	r *bufio.Reader
}

func (s *readerSource) Next() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", io.EOF
		}
		// Final line without a trailing newline.
		return trimLine(line), nil
	}
	if err != nil {
		return "", err
	}
	return trimLine(line), nil
}

// StdinSource reads lines from standard input.
type StdinSource struct {
	readerSource
}

func NewStdinSource() *StdinSource {
	return &StdinSource{readerSource{r: bufio.NewReader(os.Stdin)}}
}

// FileSource reads a file to completion.
type FileSource struct {
	readerSource
	f *os.File
}

func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{readerSource: readerSource{r: bufio.NewReader(f)}, f: f}, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
