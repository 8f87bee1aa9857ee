// Package hub downloads files from a Hugging Face style model hub and stages
// them on local disk. There is no retry and no checksum verification.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultEndpoint is the public Hugging Face hub.
const DefaultEndpoint = "https://huggingface.co"

// ErrNotFound is returned when the hub answers 404.
var ErrNotFound = errors.New("hub: file not found")

// Client fetches repository files into CacheDir.
type Client struct {
	Endpoint string
	Token    string
	CacheDir string
	HTTP     *http.Client
}

// DefaultCacheDir returns {user cache dir}/teelog/hub.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil || strings.TrimSpace(base) == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine cache directory")
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "teelog", "hub"), nil
}

// FileURL returns {endpoint}/{repoID}/resolve/{revision}/{filename}.
func (c *Client) FileURL(repoID, filename, revision string) string {
	ep := strings.TrimRight(c.Endpoint, "/")
	if ep == "" {
		ep = DefaultEndpoint
	}
	if revision == "" {
		revision = "main"
	}
	return ep + "/" + repoID + "/resolve/" + url.PathEscape(revision) + "/" + filename
}

// CachePath returns where Download stores a file.
func (c *Client) CachePath(repoID, filename, revision string) string {
	if revision == "" {
		revision = "main"
	}
	repo := "models--" + strings.ReplaceAll(repoID, "/", "--")
	return filepath.Join(c.CacheDir, repo, revision, filepath.FromSlash(filename))
}

// checkRel rejects path segments that would place a file outside the cache.
func checkRel(p string) error {
	if p == "" {
		return nil
	}
	clean := path.Clean(filepath.ToSlash(p))
	if path.IsAbs(clean) || filepath.IsAbs(p) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("hub: %q escapes the cache directory", p)
	}
	return nil
}

// Download fetches filename from repoID at revision and returns the local
// cache path. A file already in the cache is returned without a request.
func (c *Client) Download(ctx context.Context, repoID, filename, revision string) (string, error) {
	if strings.TrimSpace(repoID) == "" || strings.TrimSpace(filename) == "" {
		return "", errors.New("hub: repo and filename are required")
	}
	if c.CacheDir == "" {
		return "", errors.New("hub: cache dir not set")
	}
	for _, p := range []string{repoID, filename, revision} {
		if err := checkRel(p); err != nil {
			return "", err
		}
	}
	dst := c.CachePath(repoID, filename, revision)
	if st, err := os.Stat(dst); err == nil && !st.IsDir() {
		return dst, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(repoID, filename, revision), nil)
	if err != nil {
		return "", err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("hub: download %s/%s: %w", repoID, filename, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s/%s@%s", ErrNotFound, repoID, filename, revision)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("hub: download %s/%s: %s", repoID, filename, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("hub: download %s/%s: %w", repoID, filename, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return dst, nil
}

// Move relocates src to dst, creating dst's parent directory. When a rename
// is impossible (different filesystems) the file is copied and src removed.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	st, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
