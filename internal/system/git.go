package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GitInfo is the revision state of a working directory.
type GitInfo struct {
	InRepo   bool
	Branch   string
	ShortSHA string
	Dirty    bool
}

const gitTimeout = 800 * time.Millisecond

// git runs one git query against dir, bounded by gitTimeout.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()
	out, err := exec.CommandContext(cctx, "git", append([]string{"-C", dir}, args...)...).Output()
	return strings.TrimSpace(string(out)), err
}

// GetGitInfo inspects dir. A missing git binary or a directory outside any
// work tree yields a zero GitInfo and no error.
func GetGitInfo(ctx context.Context, dir string) GitInfo {
	var gi GitInfo
	if _, err := exec.LookPath("git"); err != nil {
		return gi
	}
	if out, err := git(ctx, dir, "rev-parse", "--is-inside-work-tree"); err != nil || out != "true" {
		return gi
	}
	gi.InRepo = true
	if out, err := git(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD"); err == nil {
		gi.Branch = out
	} else if out, err := git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		// detached HEAD
		gi.Branch = out
	}
	if out, err := git(ctx, dir, "rev-parse", "--short", "HEAD"); err == nil {
		gi.ShortSHA = out
	}
	if out, err := git(ctx, dir, "status", "--porcelain"); err == nil {
		gi.Dirty = out != ""
	}
	return gi
}

// String renders gi as "branch@sha" with a "+dirty" suffix, or "" outside
// a repository.
func (gi GitInfo) String() string {
	if !gi.InRepo {
		return ""
	}
	s := gi.Branch
	if gi.ShortSHA != "" {
		s = fmt.Sprintf("%s@%s", gi.Branch, gi.ShortSHA)
	}
	if gi.Dirty {
		s += "+dirty"
	}
	return s
}
