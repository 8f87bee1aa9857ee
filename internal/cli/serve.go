package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teelog/internal/server"
	"teelog/internal/system"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "address to bind (host:port, default from settings)")
	serveCmd.Flags().BoolP("open", "o", false, "open the log list in a browser after start")
}

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve a log directory over a read-only HTTP API",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		open, _ := cmd.Flags().GetBool("open")
		if addr == "" {
			addr = settings.Serve.Addr
		}
		dir := settings.LogDir
		if len(args) == 1 {
			dir = args[0]
		}
		srv := &server.Server{Addr: addr, Dir: dir}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if open {
			url := fmt.Sprintf("http://%s/api/logs", addr)
			if err := server.OpenBrowser(url); err != nil {
				system.Logger.Warn("failed to open browser", "err", err)
			}
		}
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
