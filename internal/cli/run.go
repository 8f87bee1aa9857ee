package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"teelog/internal/capture"
	"teelog/internal/logging"
	"teelog/internal/system"
	"teelog/internal/tee"
)

var runTeeMode string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runTeeMode, "tee-mode", "", "console log mode: per-write or hold-open (default from settings)")
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Run a command with stdout/stderr teed into the log directory",
	Long: "Creates {name}_console_{stamp}.log and {name}_{stamp}.log in the log directory, " +
		"mirrors everything written to stdout and stderr into the console log, and records " +
		"the command's start and exit status in the structured log. Exits with the command's status.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := settings.TeeMode()
		if runTeeMode != "" {
			m, err := tee.ParseMode(runTeeMode)
			if err != nil {
				return err
			}
			mode = m
		}
		var restore func() error
		sess, err := capture.Install(capture.Options{
			Dir:  settings.LogDir,
			Name: settings.Name,
			Mode: mode,
			Logger: append(settings.LoggerOptions(),
				logging.WithFailHandler(failAfterRestore(&restore, os.Exit))),
		})
		if err != nil {
			return err
		}
		defer sess.Close()
		system.Logger.Debug("capture installed", "log", sess.Logger.Path(), "console", sess.Console.Path(), "mode", mode)

		restore, err = sess.RedirectProcess()
		if err != nil {
			return err
		}
		code, runErr := runChild(cmd.Context(), sess.Logger, args, sess.Stdout, sess.Stderr)
		if err := restore(); err != nil {
			system.Logger.Warn("console capture incomplete", "err", err)
		}
		if runErr != nil {
			return runErr
		}
		if code != 0 {
			return &exitError{code: code}
		}
		return nil
	},
}

// failAfterRestore handles a log delivery failure while the process streams
// are redirected: the originals are put back first so the report reaches
// the real stderr, then the process exits with status 1.
func failAfterRestore(restore *func() error, exit func(int)) func(error) {
	return func(err error) {
		if *restore != nil {
			_ = (*restore)()
		}
		fmt.Fprintf(os.Stderr, "log delivery failed: %v\n", err)
		exit(1)
	}
}

// runChild runs args with its output written to stdout and stderr and
// reports the outcome through l. Run returns only after every byte the
// child wrote has been copied, so the exit record follows the child's
// output. A non-zero exit is a status, not an error.
func runChild(ctx context.Context, l *logging.Logger, args []string, stdout, stderr io.Writer) (int, error) {
	l.Infof("running: %s", strings.Join(args, " "))
	if wd, err := os.Getwd(); err == nil {
		if rev := system.GetGitInfo(ctx, wd).String(); rev != "" {
			l.Infof("workdir: %s (git %s)", wd, rev)
		} else {
			l.Infof("workdir: %s", wd)
		}
	}
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, stdout, stderr

	start := time.Now()
	err := c.Run()
	took := time.Since(start).Round(time.Millisecond)
	var ee *exec.ExitError
	switch {
	case err == nil:
		l.Infof("command finished in %s", took)
		return 0, nil
	case errors.As(err, &ee):
		code := ee.ExitCode()
		if code < 0 {
			// killed by a signal
			code = 1
		}
		l.Errorf("command exited with status %d after %s", code, took)
		return code, nil
	default:
		l.Errorf("command failed to start: %v", err)
		return 0, err
	}
}
