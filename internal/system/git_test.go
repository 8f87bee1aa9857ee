package system

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestGitInfoString(t *testing.T) {
	cases := []struct {
		gi   GitInfo
		want string
	}{
		{GitInfo{}, ""},
		{GitInfo{InRepo: true, Branch: "main"}, "main"},
		{GitInfo{InRepo: true, Branch: "main", ShortSHA: "abc1234"}, "main@abc1234"},
		{GitInfo{InRepo: true, Branch: "HEAD", ShortSHA: "abc1234", Dirty: true}, "HEAD@abc1234+dirty"},
	}
	for _, c := range cases {
		if got := c.gi.String(); got != c.want {
			t.Fatalf("%+v: got %q want %q", c.gi, got, c.want)
		}
	}
}

func TestGetGitInfo_OutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	if gi := GetGitInfo(context.Background(), dir); gi.InRepo {
		t.Fatalf("temp dir reported as repo: %+v", gi)
	}
}
