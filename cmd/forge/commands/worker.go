package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Manage worker nodes",
		Hidden: true,
	}

	cmd.AddCommand(c.newWorkerServeCmd())

	return cmd
}

// newWorkerServeCmd is the entry point of spawned worker processes; the
// build manager launches it with the socket it will connect to.
func (c *CLI) newWorkerServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "serve",
		Short:  "Start a worker node (internal use)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			socket, _ := cmd.Flags().GetString("socket")
			return c.app.ServeWorker(cmd.Context(), socket)
		},
	}

	cmd.Flags().String("socket", "", "Unix socket path to serve on")
	_ = cmd.MarkFlagRequired("socket")

	return cmd
}
