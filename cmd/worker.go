package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomvoet/imgconv/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Serve conversion requests on stdin/stdout",
	Long:   `Reads one JSON request per line from stdin and answers with JSON envelopes on stdout. Used by --isolate.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		child := log.WithField("pid", os.Getpid())
		exec := worker.NewExecutor(newCodec(), workerOptions()...)
		child.Debug("worker ready")
		return worker.Serve(ctx, os.Stdin, os.Stdout, exec, child)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
