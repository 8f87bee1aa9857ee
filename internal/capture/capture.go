// Package capture wires a structured logger and stdout/stderr tee sinks over
// one log directory.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"teelog/internal/logdir"
	"teelog/internal/logging"
	"teelog/internal/tee"
)

// Options configures Install. Zero values select the process streams,
// PerWrite mode and time.Now.
type Options struct {
	Dir    string
	Name   string
	Stdout io.Writer
	Stderr io.Writer
	Mode   tee.Mode
	Now    func() time.Time
	// Logger options are applied before the console and clock are bound.
	Logger []logging.Option
}

// Session is the result of Install.
type Session struct {
	Logger  *logging.Logger
	Stdout  *tee.Sink
	Stderr  *tee.Sink
	Console *tee.File
}

// Install creates the log directory, tees Stdout and Stderr into a shared
// {name}_console_{stamp}.log and returns a Session whose Logger writes its
// own {name}_{stamp}.log and prints through the teed stdout.
func Install(o Options) (*Session, error) {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if err := logdir.ValidName(o.Name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	console, err := tee.NewFile(logdir.ConsolePath(o.Dir, o.Name, o.Now()), o.Mode)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Console: console,
		Stdout:  tee.New(console, o.Stdout),
		Stderr:  tee.New(console, o.Stderr),
	}

	opts := append(append([]logging.Option{}, o.Logger...),
		logging.WithConsole(s.Stdout),
		logging.WithClock(o.Now),
	)
	l, err := logging.Create(o.Dir, o.Name, opts...)
	if err != nil {
		_ = console.Close()
		return nil, err
	}
	s.Logger = l
	return s, nil
}

// Close closes the logger and the console file.
func (s *Session) Close() error {
	return errors.Join(s.Logger.Close(), s.Console.Close())
}

// RedirectProcess replaces os.Stdout and os.Stderr with pipes drained into
// the session sinks, so output written by any code, including child
// processes inheriting the descriptors, reaches the console log. restore
// reinstates the original files and waits until the pipes are drained. It
// returns the first sink error seen while draining.
func (s *Session) RedirectProcess() (restore func() error, err error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		_ = outR.Close()
		_ = outW.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	origOut, origErr := os.Stdout, os.Stderr
	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = pump(s.Stdout, outR)
	}()
	go func() {
		defer wg.Done()
		errs[1] = pump(s.Stderr, errR)
	}()
	os.Stdout, os.Stderr = outW, errW

	var (
		once sync.Once
		rerr error
	)
	restore = func() error {
		once.Do(func() {
			os.Stdout, os.Stderr = origOut, origErr
			closeErr := errors.Join(outW.Close(), errW.Close())
			wg.Wait()
			rerr = errors.Join(closeErr, errs[0], errs[1])
		})
		return rerr
	}
	return restore, nil
}

// pump copies src into dst until EOF. After a write error it keeps reading so
// writers on the other end of the pipe never block.
func pump(dst io.Writer, src io.ReadCloser) error {
	defer src.Close()
	buf := make([]byte, 32*1024)
	var werr error
	for {
		n, err := src.Read(buf)
		if n > 0 && werr == nil {
			_, werr = dst.Write(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return werr
			}
			return errors.Join(werr, err)
		}
	}
}
