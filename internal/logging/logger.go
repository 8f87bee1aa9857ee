// Package logging writes leveled records to a timestamped file and to the
// console at the same time.
//
// Each call to Create returns an independent Logger with exactly two
// destinations: its own file under the log directory and a console writer.
// Loggers are never registered globally, so creating a second Logger with
// the same name cannot duplicate output of the first.
//
//	l, err := logging.Create("logs", "MART")
//	if err != nil {
//		return err
//	}
//	defer l.Close()
//	l.Info("start")
//	l.Error("boom")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"teelog/internal/logdir"
)

// ErrClosed is returned by Log after Close.
var ErrClosed = errors.New("logging: logger closed")

type destination interface {
	emit(r *Record) error
	close() error
}

// writerDest formats records onto an io.Writer.
type writerDest struct {
	w      io.Writer
	format Formatter
	closer io.Closer
}

func (d *writerDest) emit(r *Record) error {
	if _, err := d.w.Write(d.format.Format(r)); err != nil {
		return err
	}
	if f, ok := d.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (d *writerDest) close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// Logger emits records to its file and console destinations.
type Logger struct {
	name  string
	path  string
	level Level
	now   func() time.Time
	fail  func(error)

	mu     sync.Mutex
	dests  []destination
	closed bool
}

type options struct {
	level   Level
	console io.Writer
	style   Style
	color   ColorMode
	now     func() time.Time
	fail    func(error)
}

// Option configures Create.
type Option func(*options)

// WithLevel sets the minimum emitted level. The default is InfoLevel.
func WithLevel(l Level) Option { return func(o *options) { o.level = l } }

// WithConsole replaces os.Stdout as the console destination.
func WithConsole(w io.Writer) Option { return func(o *options) { o.console = w } }

// WithStyle selects the console rendering.
func WithStyle(s Style) Option { return func(o *options) { o.style = s } }

// WithColor controls console colour.
func WithColor(m ColorMode) Option { return func(o *options) { o.color = m } }

// WithClock replaces time.Now for file naming and record timestamps.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithFailHandler receives delivery errors from the leveled helpers
// (Info, Error, ...). The default reports the error and exits with status 1.
func WithFailHandler(fn func(error)) Option { return func(o *options) { o.fail = fn } }

var osExit = os.Exit

// exitOnError reports on w and exits with status 1. w is bound when the
// Logger is created, so a later swap of os.Stderr cannot swallow the report.
func exitOnError(w io.Writer) func(error) {
	return func(err error) {
		fmt.Fprintf(w, "log delivery failed: %v\n", err)
		osExit(1)
	}
}

// Create makes dir when missing, opens {dir}/{name}_{stamp}.log for append
// and returns a Logger writing there and to the console. The first record
// announces the log file path.
func Create(dir, name string, opts ...Option) (*Logger, error) {
	o := options{
		level:   InfoLevel,
		console: os.Stdout,
		style:   PlainStyle,
		color:   ColorAuto,
		now:     time.Now,
		fail:    exitOnError(os.Stderr),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := logdir.ValidName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := logdir.StructuredPath(dir, name, o.now())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var console destination
	switch o.style {
	case PrettyStyle:
		console = newPrettyDest(o.console, name, o.color)
	default:
		console = &writerDest{
			w:      o.console,
			format: &TextFormatter{LevelStyle: plainLevelStyle(o.console, o.color)},
		}
	}

	l := &Logger{
		name:  name,
		path:  path,
		level: o.level,
		now:   o.now,
		fail:  o.fail,
		dests: []destination{
			&writerDest{w: f, format: &TextFormatter{WithName: true}, closer: f},
			console,
		},
	}
	if err := l.Log(InfoLevel, "Logger initialized. Log file: "+path); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Path returns the structured log file path.
func (l *Logger) Path() string { return l.path }

// Level returns the minimum emitted level.
func (l *Logger) Level() Level { return l.level }

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level Level) bool { return level >= l.level }

// Log writes one record to every destination, file first, and returns once
// all of them have been written. Records below the minimum level are
// dropped.
func (l *Logger) Log(level Level, msg string) error {
	if !l.Enabled(level) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	r := &Record{Time: l.now(), Name: l.name, Level: level, Message: msg}
	var errs []error
	for _, d := range l.dests {
		if err := d.emit(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logf formats msg with fmt.Sprintf and logs it.
func (l *Logger) Logf(level Level, format string, args ...interface{}) error {
	if !l.Enabled(level) {
		return nil
	}
	return l.Log(level, fmt.Sprintf(format, args...))
}

func (l *Logger) must(err error) {
	if err != nil {
		l.fail(err)
	}
}

func (l *Logger) Debug(msg string)    { l.must(l.Log(DebugLevel, msg)) }
func (l *Logger) Info(msg string)     { l.must(l.Log(InfoLevel, msg)) }
func (l *Logger) Warning(msg string)  { l.must(l.Log(WarningLevel, msg)) }
func (l *Logger) Error(msg string)    { l.must(l.Log(ErrorLevel, msg)) }
func (l *Logger) Critical(msg string) { l.must(l.Log(CriticalLevel, msg)) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.must(l.Logf(DebugLevel, format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.must(l.Logf(InfoLevel, format, args...))
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.must(l.Logf(WarningLevel, format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.must(l.Logf(ErrorLevel, format, args...))
}

func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.must(l.Logf(CriticalLevel, format, args...))
}

// Close releases the log file. Further calls to Log return ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	var errs []error
	for _, d := range l.dests {
		if err := d.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
