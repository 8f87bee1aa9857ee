package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teelog/internal/follow"
	"teelog/internal/logdir"
	"teelog/internal/system"
)

var (
	followKind      string
	followFromStart bool
	followNoHeaders bool
)

func init() {
	rootCmd.AddCommand(followCmd)
	f := followCmd.Flags()
	f.StringVarP(&followKind, "kind", "k", "", "only follow one kind of file: console or structured")
	f.BoolVar(&followFromStart, "from-start", false, "print existing content first")
	f.BoolVar(&followNoHeaders, "no-headers", false, "omit ==> file <== headers")
}

var followCmd = &cobra.Command{
	Use:   "follow [dir]",
	Short: "Stream new output from every log file in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := settings.LogDir
		if len(args) == 1 {
			dir = args[0]
		}
		kind := logdir.Kind(followKind)
		switch kind {
		case "", logdir.Structured, logdir.Console:
		default:
			return fmt.Errorf("unknown kind %q (want console or structured)", followKind)
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fl := &follow.Follower{
			Dir:       dir,
			Kind:      kind,
			Out:       cmd.OutOrStdout(),
			FromStart: followFromStart,
			Headers:   !followNoHeaders,
			OnReady:   func() { system.Logger.Debug("following", "dir", dir) },
		}
		return fl.Run(ctx)
	},
}
