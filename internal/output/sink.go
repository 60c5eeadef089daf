// Package output writes rendered lines to their destination. The stdout
// sink flushes after every record so interactive use sees lines as they
// arrive; the file sink stays buffered until closed.
package output

import (
	"bufio"
	"io"
	"os"
)

// Sink receives fully rendered output lines.
type Sink interface {
	WriteLine(line string) error
	Close() error
}

// StdoutSink writes to standard output, flushing per line.
type StdoutSink struct {
	w *bufio.Writer
}

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{w: bufio.NewWriter(os.Stdout)}
}

func (s *StdoutSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *StdoutSink) Close() error {
	return s.w.Flush()
}

// FileSink writes buffered output to a file.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// WriterSink adapts any io.Writer into a Sink.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteLine(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

func (s *WriterSink) Close() error { return nil }
