package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"teelog/internal/hub"
	"teelog/internal/system"
)

var fetchOpts struct {
	repo, file, revision, target, endpoint, cacheDir string
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	f := fetchCmd.Flags()
	f.StringVar(&fetchOpts.repo, "repo", "", "repository id (default from settings)")
	f.StringVar(&fetchOpts.file, "file", "", "file inside the repository")
	f.StringVar(&fetchOpts.revision, "revision", "", "branch, tag or commit")
	f.StringVar(&fetchOpts.target, "to", "", "destination path")
	f.StringVar(&fetchOpts.endpoint, "endpoint", "", "hub endpoint")
	f.StringVar(&fetchOpts.cacheDir, "cache-dir", "", "download cache directory")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a pretrained model file from the hub",
	Long:  "Downloads one file from a hub repository into the cache and moves it to the target path. HF_TOKEN is sent as a bearer token when set.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := settings.Fetch
		override(&f.Repo, fetchOpts.repo)
		override(&f.File, fetchOpts.file)
		override(&f.Revision, fetchOpts.revision)
		override(&f.Target, fetchOpts.target)
		override(&f.Endpoint, fetchOpts.endpoint)
		override(&f.CacheDir, fetchOpts.cacheDir)
		if f.CacheDir == "" {
			dir, err := hub.DefaultCacheDir()
			if err != nil {
				return err
			}
			f.CacheDir = dir
		}

		c := &hub.Client{
			Endpoint: f.Endpoint,
			Token:    strings.TrimSpace(os.Getenv("HF_TOKEN")),
			CacheDir: f.CacheDir,
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Downloading %s ...\n", f.Repo)
		system.Logger.Debug("fetch", "url", c.FileURL(f.Repo, f.File, f.Revision), "cache", f.CacheDir)

		path, err := c.Download(cmd.Context(), f.Repo, f.File, f.Revision)
		if err != nil {
			return fmt.Errorf("download %s/%s: %w", f.Repo, f.File, err)
		}
		if err := hub.Move(path, f.Target); err != nil {
			return err
		}
		size := "?"
		if st, err := os.Stat(f.Target); err == nil {
			size = humanize.Bytes(uint64(st.Size()))
		}
		fmt.Fprintf(out, "✓ Model downloaded to: %s (%s)\n", f.Target, size)
		return nil
	},
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
