// Package follow streams appended log output from a log directory, like
// tail -f over every teelog file in it.
package follow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"teelog/internal/logdir"
)

// Follower copies bytes appended to matching files in Dir to Out.
type Follower struct {
	Dir string
	// Kind limits which files are followed; empty follows both kinds.
	Kind logdir.Kind
	Out  io.Writer
	// FromStart prints existing content instead of starting at the end.
	FromStart bool
	// Headers prints "==> file <==" whenever output switches files.
	Headers bool
	// OnReady, when set, is called once the directory is being watched.
	OnReady func()

	offsets map[string]int64
	last    string
}

// Run watches Dir until ctx is done. Files created after Run starts are
// printed from their beginning.
func (f *Follower) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(f.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", f.Dir, err)
	}

	f.offsets = map[string]int64{}
	entries, err := logdir.Scan(f.Dir)
	if err != nil {
		return err
	}
	// oldest first so FromStart output reads chronologically
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.FromStart {
			if err := f.drain(e.File); err != nil {
				return err
			}
		} else {
			f.offsets[e.File] = e.Size
		}
	}
	if f.OnReady != nil {
		f.OnReady()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !logdir.Match(name, f.Kind) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(f.offsets, name)
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				if err := f.drain(name); err != nil {
					return err
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// drain writes everything past the recorded offset of name. A file shorter
// than its offset was truncated and is read again from the start.
func (f *Follower) drain(name string) error {
	if f.offsets == nil {
		f.offsets = map[string]int64{}
	}
	fh, err := os.Open(filepath.Join(f.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			delete(f.offsets, name)
			return nil
		}
		return err
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		return err
	}
	off := f.offsets[name]
	if st.Size() < off {
		off = 0
	}
	if _, err := fh.Seek(off, io.SeekStart); err != nil {
		return err
	}
	b, err := io.ReadAll(fh)
	if err != nil {
		return err
	}
	f.offsets[name] = off + int64(len(b))
	if len(b) == 0 {
		return nil
	}
	if f.Headers && name != f.last {
		if _, err := fmt.Fprintf(f.Out, "==> %s <==\n", name); err != nil {
			return err
		}
	}
	f.last = name
	_, err = f.Out.Write(b)
	return err
}
