package follow

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"teelog/internal/logdir"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func appendFile(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := f.WriteString(s); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()
}

func TestDrain_AppendsAndTruncation(t *testing.T) {
	dir := t.TempDir()
	name := "MART_console_20240101_000000.log"
	path := filepath.Join(dir, name)
	var out bytes.Buffer
	f := &Follower{Dir: dir, Out: &out}

	appendFile(t, path, "hello\n")
	if err := f.drain(name); err != nil {
		t.Fatalf("drain: %v", err)
	}
	appendFile(t, path, "again\n")
	if err := f.drain(name); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if out.String() != "hello\nagain\n" {
		t.Fatalf("out = %q", out.String())
	}

	if err := os.WriteFile(path, []byte("z\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if err := f.drain(name); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if out.String() != "hello\nagain\nz\n" {
		t.Fatalf("out after truncation = %q", out.String())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.drain(name); err != nil {
		t.Fatalf("drain of removed file: %v", err)
	}
}

func TestDrain_Headers(t *testing.T) {
	dir := t.TempDir()
	a, b := "A_20240101_000000.log", "B_20240101_000000.log"
	appendFile(t, filepath.Join(dir, a), "a\n")
	appendFile(t, filepath.Join(dir, b), "b\n")
	var out bytes.Buffer
	f := &Follower{Dir: dir, Out: &out, Headers: true}
	_ = f.drain(a)
	_ = f.drain(a)
	_ = f.drain(b)
	want := "==> A_20240101_000000.log <==\na\n==> B_20240101_000000.log <==\nb\n"
	if out.String() != want {
		t.Fatalf("out = %q", out.String())
	}
}

func TestRun_FollowsAppendsAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "MART_console_20240101_000000.log")
	appendFile(t, existing, "old\n")
	appendFile(t, filepath.Join(dir, "MART_20240101_000000.log"), "structured\n")

	out := &syncBuffer{}
	ready := make(chan struct{})
	f := &Follower{Dir: dir, Kind: logdir.Console, Out: out, OnReady: func() { close(ready) }}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatalf("follower never became ready")
	}

	appendFile(t, existing, "new\n")
	appendFile(t, filepath.Join(dir, "MART_console_20240102_000000.log"), "fresh\n")
	appendFile(t, filepath.Join(dir, "MART_20240101_000000.log"), "skipped\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := out.String()
		if strings.Contains(s, "new\n") && strings.Contains(s, "fresh\n") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run error: %v", err)
	}

	s := out.String()
	if !strings.Contains(s, "new\n") || !strings.Contains(s, "fresh\n") {
		t.Fatalf("missing followed output: %q", s)
	}
	if strings.Contains(s, "old") || strings.Contains(s, "structured") || strings.Contains(s, "skipped") {
		t.Fatalf("unexpected output: %q", s)
	}
}

func TestRun_MissingDir(t *testing.T) {
	f := &Follower{Dir: filepath.Join(t.TempDir(), "nope"), Out: &bytes.Buffer{}}
	if err := f.Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
