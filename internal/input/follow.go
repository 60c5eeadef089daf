package input

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"time"
)

const (
	defaultBackoff = 200 * time.Millisecond

	// After this many consecutive failures to stat the followed file we
	// stop trusting identity metadata and fall back to length probing.
	statFailureThreshold = 3
)

// rotationDetector decides whether a freshly opened handle for the
// followed path is a new incarnation of the file. Identity comparison is
// platform-dependent, so it is a swappable strategy: the stat-based
// detector compares file identity and length, the probe detector only
// lengths.
type rotationDetector interface {
	// Rotated reports whether f is a different file than the one tracked,
	// or the same file truncated below offset.
	Rotated(f *os.File, offset int64) (bool, error)
	// Track records f as the current incarnation.
	Track(f *os.File) error
}

type statDetector struct {
	info os.FileInfo
}

func (d *statDetector) Rotated(f *os.File, offset int64) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if d.info == nil || !os.SameFile(d.info, info) {
		return true, nil
	}
	return info.Size() < offset, nil
}

func (d *statDetector) Track(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	d.info = info
	return nil
}

// probeDetector decides rotation purely from length: a file shorter than
// the read offset must have been replaced or truncated.
type probeDetector struct{}

func (probeDetector) Rotated(f *os.File, offset int64) (bool, error) {
	length, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return false, err
	}
	return length < offset, nil
}

func (probeDetector) Track(*os.File) error { return nil }

// FollowSource tails a file like tail -f. At EOF it waits briefly
// (woken early by a filesystem notification when available) and
// re-opens the path, resuming at the previous offset unless the file
// was rotated or truncated, in which case it restarts from the top and
// discards any buffered partial line, which belonged to the old
// incarnation. It never returns io.EOF; it blocks until data appears or
// its context is cancelled.
type FollowSource struct {
	ctx      context.Context
	path     string
	file     *os.File
	offset   int64
	pending  []byte // bytes read but not yet terminated by a newline
	lines    []string
	buf      []byte
	backoff  time.Duration
	detector rotationDetector
	notify   *notifier

	statFailures int
	probeWarned  bool
}

// NewFollowSource opens path for tailing from the beginning. The context
// bounds the otherwise endless EOF wait loop.
func NewFollowSource(ctx context.Context, path string) (*FollowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	detector := &statDetector{}
	if err := detector.Track(f); err != nil {
		f.Close()
		return nil, err
	}
	return &FollowSource{
		ctx:      ctx,
		path:     path,
		file:     f,
		buf:      make([]byte, 64*1024),
		backoff:  defaultBackoff,
		detector: detector,
		notify:   newNotifier(path),
	}, nil
}

// Close releases the file handle and any filesystem watcher.
func (s *FollowSource) Close() error {
	if s.notify != nil {
		s.notify.Close()
	}
	return s.file.Close()
}

func (s *FollowSource) Next() (string, error) {
	for {
		if len(s.lines) > 0 {
			line := s.lines[0]
			s.lines = s.lines[1:]
			return line, nil
		}
		if err := s.ctx.Err(); err != nil {
			return "", err
		}

		n, err := s.file.Read(s.buf)
		if n > 0 {
			s.offset += int64(n)
			s.pending = append(s.pending, s.buf[:n]...)
			s.splitPending()
			continue
		}
		if err == nil || err == io.EOF {
			if werr := s.waitAndReopen(); werr != nil {
				return "", werr
			}
			continue
		}
		return "", err
	}
}

// splitPending moves complete lines out of the partial buffer. Bytes
// after the last newline stay buffered until the line is finished.
func (s *FollowSource) splitPending() {
	for {
		idx := bytes.IndexByte(s.pending, '\n')
		if idx < 0 {
			return
		}
		line := string(s.pending[:idx])
		s.pending = s.pending[idx+1:]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		s.lines = append(s.lines, line)
	}
}

// waitAndReopen sleeps out the backoff (or returns early on a
// filesystem event), re-opens the path and decides whether the file was
// rotated. On rotation the read restarts at offset zero and the partial
// buffer is dropped; otherwise reading resumes where it left off.
func (s *FollowSource) waitAndReopen() error {
	if s.notify != nil {
		s.notify.Wait(s.ctx, s.backoff)
	} else {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-time.After(s.backoff):
		}
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(s.path)
	if err != nil {
		// The file may be mid-rotation; keep the old handle and retry.
		return nil
	}

	rotated, derr := s.detector.Rotated(f, s.offset)
	if derr != nil {
		s.statFailures++
		if s.statFailures >= statFailureThreshold {
			if !s.probeWarned {
				log.Printf("jl: cannot stat %s, falling back to length probing for rotation detection", s.path)
				s.probeWarned = true
			}
			s.detector = probeDetector{}
			rotated, derr = s.detector.Rotated(f, s.offset)
		}
		if derr != nil {
			f.Close()
			return nil
		}
	} else {
		s.statFailures = 0
	}

	if rotated {
		s.offset = 0
		s.pending = nil
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return err
		}
		if err := s.detector.Track(f); err != nil {
			f.Close()
			return nil
		}
	} else {
		if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
			f.Close()
			return err
		}
	}

	s.file.Close()
	s.file = f
	return nil
}
