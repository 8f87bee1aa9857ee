// Package logdir names, classifies and lists the files teelog writes into a
// log directory.
package logdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

// Stamp is the timestamp layout embedded in log file names.
const Stamp = "20060102_150405"

const (
	ext           = ".log"
	consoleMarker = "_console_"
)

// Kind tells structured logs apart from captured console output.
type Kind string

const (
	Structured Kind = "structured"
	Console    Kind = "console"
)

// Entry describes one log file found in a directory.
type Entry struct {
	File    string    `json:"file"`
	Kind    Kind      `json:"kind"`
	Name    string    `json:"name"`
	Stamp   time.Time `json:"stamp"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// ValidName reports whether name can be used for log files in a way Parse
// reads back unchanged. A name ending in "_console" would make its structured
// log indistinguishable from another logger's console log.
func ValidName(name string) error {
	switch {
	case name == "":
		return errors.New("logger name is required")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("logger name must not contain path separators, got %q", name)
	case strings.HasSuffix(name, strings.TrimSuffix(consoleMarker, "_")):
		return fmt.Errorf("logger name must not end in %q, got %q", strings.TrimSuffix(consoleMarker, "_"), name)
	}
	return nil
}

// StructuredName returns "{name}_{stamp}.log".
func StructuredName(name string, t time.Time) string {
	return name + "_" + t.Format(Stamp) + ext
}

// ConsoleName returns "{name}_console_{stamp}.log".
func ConsoleName(name string, t time.Time) string {
	return name + consoleMarker + t.Format(Stamp) + ext
}

// StructuredPath joins dir and StructuredName.
func StructuredPath(dir, name string, t time.Time) string {
	return filepath.Join(dir, StructuredName(name, t))
}

// ConsolePath joins dir and ConsoleName.
func ConsolePath(dir, name string, t time.Time) string {
	return filepath.Join(dir, ConsoleName(name, t))
}

// Parse classifies a base file name. Files that do not follow either naming
// scheme report ok=false.
func Parse(file string) (e Entry, ok bool) {
	base := filepath.Base(file)
	if !strings.HasSuffix(base, ext) {
		return Entry{}, false
	}
	stem := strings.TrimSuffix(base, ext)
	// stamp is the last 15 bytes: YYYYMMDD_HHMMSS
	if len(stem) < len(Stamp)+2 || stem[len(stem)-len(Stamp)-1] != '_' {
		return Entry{}, false
	}
	ts, err := time.ParseInLocation(Stamp, stem[len(stem)-len(Stamp):], time.Local)
	if err != nil {
		return Entry{}, false
	}
	head := stem[:len(stem)-len(Stamp)-1]
	e = Entry{File: base, Kind: Structured, Name: head, Stamp: ts}
	if n, found := strings.CutSuffix(head, strings.TrimSuffix(consoleMarker, "_")); found && n != "" {
		e.Kind = Console
		e.Name = n
	}
	if e.Name == "" {
		return Entry{}, false
	}
	return e, true
}

// Scan lists the recognised log files in dir, newest first. A missing
// directory yields an empty list without error.
func Scan(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		e, ok := Parse(de.Name())
		if !ok {
			continue
		}
		if info, err := de.Info(); err == nil {
			e.Size = info.Size()
			e.ModTime = info.ModTime()
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Stamp.Equal(out[j].Stamp) {
			return out[i].Stamp.After(out[j].Stamp)
		}
		return out[i].File < out[j].File
	})
	return out, nil
}

// Filter keeps the entries whose file name fuzzily matches query, best match
// first. An empty query returns entries unchanged.
func Filter(entries []Entry, query string) []Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.File
	}
	matches := fuzzy.Find(query, names)
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

// Match reports whether file is a log file of the given kind. An empty kind
// matches both.
func Match(file string, kind Kind) bool {
	e, ok := Parse(file)
	if !ok {
		return false
	}
	return kind == "" || e.Kind == kind
}
