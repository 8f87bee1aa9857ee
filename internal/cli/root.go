package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfg "teelog/internal/config"
	"teelog/internal/system"
)

var (
	cfgFile   string
	logDirArg string
	nameArg   string
	levelArg  string
	verbose   bool

	// settings holds the effective configuration after flags are applied.
	settings     cfg.Settings
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "teelog",
	Short: "teelog – structured logs plus teed console output in one directory",
	Long: "teelog runs commands with stdout and stderr mirrored into a console log, " +
		"writes leveled records to a structured log next to it, and ships small tools " +
		"to list, follow and serve those logs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "settings file (default <user config dir>/teelog/config.yaml)")
	pf.StringVar(&logDirArg, "log-dir", "", "log directory")
	pf.StringVarP(&nameArg, "name", "n", "", "logger name")
	pf.StringVar(&levelArg, "level", "", "minimum level: debug, info, warning, error, critical")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print debug diagnostics")
}

func loadSettings() error {
	system.SetVerbose(verbose)
	p := cfgFile
	if p == "" {
		var err error
		if p, err = cfg.Path(); err != nil {
			return err
		}
	}
	s, err := cfg.Load(p)
	if err != nil {
		return err
	}
	if logDirArg != "" {
		s.LogDir = logDirArg
	}
	if nameArg != "" {
		s.Name = nameArg
	}
	if levelArg != "" {
		s.Level = levelArg
	}
	if errs := cfg.Validate(s); len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	settings, settingsPath = s, p
	system.Logger.Debug("settings loaded", "path", p, "log_dir", s.LogDir, "name", s.Name)
	return nil
}

// exitError carries a child process status out of RunE.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
