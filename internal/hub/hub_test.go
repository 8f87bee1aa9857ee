package hub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestDownload_CachesAndSendsToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/MCG-NJU/videomae-base/resolve/main/pytorch_model.bin" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("weights"))
	}))
	defer srv.Close()

	c := &Client{Endpoint: srv.URL, Token: "secret", CacheDir: t.TempDir(), HTTP: srv.Client()}
	p, err := c.Download(context.Background(), "MCG-NJU/videomae-base", "pytorch_model.bin", "")
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if p != c.CachePath("MCG-NJU/videomae-base", "pytorch_model.bin", "main") {
		t.Fatalf("unexpected cache path %s", p)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "weights" {
		t.Fatalf("content = %q", b)
	}

	if _, err := c.Download(context.Background(), "MCG-NJU/videomae-base", "pytorch_model.bin", "main"); err != nil {
		t.Fatalf("cached Download error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestDownload_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/org/repo/resolve/main/missing.bin" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cache := t.TempDir()
	c := &Client{Endpoint: srv.URL, CacheDir: cache, HTTP: srv.Client()}

	_, err := c.Download(context.Background(), "org/repo", "missing.bin", "main")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Download(context.Background(), "org/repo", "broken.bin", "main"); err == nil {
		t.Fatalf("expected error on 500")
	}
	if _, err := os.Stat(c.CachePath("org/repo", "broken.bin", "main")); !os.IsNotExist(err) {
		t.Fatalf("failed download must not leave a cached file")
	}
	if _, err := c.Download(context.Background(), "", "x", ""); err == nil {
		t.Fatalf("expected error for empty repo")
	}
}

func TestFileURL(t *testing.T) {
	c := &Client{}
	if got := c.FileURL("a/b", "dir/f.bin", "v1.0"); got != DefaultEndpoint+"/a/b/resolve/v1.0/dir/f.bin" {
		t.Fatalf("FileURL = %s", got)
	}
	c.Endpoint = "http://mirror/"
	if got := c.FileURL("a/b", "f", ""); got != "http://mirror/a/b/resolve/main/f" {
		t.Fatalf("FileURL = %s", got)
	}
}

func TestMove_CreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	if err := os.WriteFile(src, []byte("w"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dst := filepath.Join(dir, "models", "mbt", "pretrained_models", "videomae_base_patch16_224.pth")
	if err := Move(src, dst); err != nil {
		t.Fatalf("Move error: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("src should be gone")
	}
	b, _ := os.ReadFile(dst)
	if string(b) != "w" {
		t.Fatalf("dst content = %q", b)
	}
}

func TestMove_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := Move(filepath.Join(dir, "nope"), filepath.Join(dir, "out")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	_ = os.WriteFile(src, []byte("payload"), 0o600)
	dst := filepath.Join(dir, "b")
	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile error: %v", err)
	}
	b, _ := os.ReadFile(dst)
	if string(b) != "payload" {
		t.Fatalf("copy = %q", b)
	}
}

func TestDownload_RejectsEscapingPaths(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()
	root := t.TempDir()
	cache := filepath.Join(root, "cache")
	c := &Client{Endpoint: srv.URL, CacheDir: cache, HTTP: srv.Client()}

	cases := []struct{ repo, file, rev string }{
		{"org/repo", "../../escaped.bin", "main"},
		{"org/repo", "dir/../../../escaped.bin", "main"},
		{"org/repo", "/etc/escaped.bin", "main"},
		{"org/repo", "f.bin", "../../.."},
	}
	for _, cs := range cases {
		if _, err := c.Download(context.Background(), cs.repo, cs.file, cs.rev); err == nil {
			t.Fatalf("Download(%q, %q, %q) accepted", cs.repo, cs.file, cs.rev)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("rejected paths still sent %d requests", n)
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.bin")); !os.IsNotExist(err) {
		t.Fatalf("file written outside the cache")
	}

	// nested names that stay inside the cache are fine
	p, err := c.Download(context.Background(), "org/repo", "sub/../weights.bin", "main")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if rel, err := filepath.Rel(cache, p); err != nil || strings.HasPrefix(rel, "..") {
		t.Fatalf("cached at %s, outside %s", p, cache)
	}
}
