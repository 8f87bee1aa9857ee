// Package tee duplicates writes to an output stream into a shared,
// append-only log file.
package tee

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Mode selects how a File reaches the disk.
type Mode int

const (
	// PerWrite opens, appends and closes the file on every write. Output
	// survives crashes and external rotation or deletion of the file.
	PerWrite Mode = iota
	// HoldOpen opens the file once and keeps it until Close.
	HoldOpen
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case HoldOpen:
		return "hold-open"
	default:
		return "per-write"
	}
}

// ParseMode accepts "per-write" and "hold-open". Empty means PerWrite.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "per-write":
		return PerWrite, nil
	case "hold-open":
		return HoldOpen, nil
	default:
		return PerWrite, fmt.Errorf("invalid tee mode: %q", s)
	}
}

// File is the append-only log shared by one or more Sinks. Appends from all
// sinks are serialised.
type File struct {
	path string
	mode Mode

	mu     sync.Mutex
	f      *os.File
	closed bool
}

// NewFile prepares a shared log file. In PerWrite mode nothing is opened
// until the first append.
func NewFile(path string, mode Mode) (*File, error) {
	tf := &File{path: path, mode: mode}
	if mode == HoldOpen {
		f, err := openAppend(path)
		if err != nil {
			return nil, err
		}
		tf.f = f
	}
	return tf, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open console log: %w", err)
	}
	return f, nil
}

// Path returns the file path.
func (tf *File) Path() string { return tf.path }

// Mode returns the write mode.
func (tf *File) Mode() Mode { return tf.mode }

// Append writes p to the end of the file.
func (tf *File) Append(p []byte) error {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if tf.mode == HoldOpen {
		if tf.closed {
			return os.ErrClosed
		}
		_, err := tf.f.Write(p)
		return err
	}
	f, err := openAppend(tf.path)
	if err != nil {
		return err
	}
	if _, err := f.Write(p); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Close releases a held file. It is a no-op in PerWrite mode.
func (tf *File) Close() error {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if tf.closed {
		return nil
	}
	tf.closed = true
	if tf.f != nil {
		return tf.f.Close()
	}
	return nil
}

// Sink is an io.Writer that writes to its stream and then to the shared File.
type Sink struct {
	stream io.Writer
	file   *File
}

// New binds stream to file.
func New(file *File, stream io.Writer) *Sink {
	return &Sink{stream: stream, file: file}
}

// Write sends p to the stream, flushes it, then appends the same bytes to
// the file. Both destinations hold p before Write returns.
func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.stream.Write(p)
	if err != nil {
		return n, err
	}
	if err := s.Flush(); err != nil {
		return n, err
	}
	if err := s.file.Append(p); err != nil {
		return n, err
	}
	return len(p), nil
}

// Flush flushes the stream when it buffers. The file needs no flushing.
func (s *Sink) Flush() error {
	if f, ok := s.stream.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Stream returns the wrapped stream.
func (s *Sink) Stream() io.Writer { return s.stream }

// File returns the shared log file.
func (s *Sink) File() *File { return s.file }
