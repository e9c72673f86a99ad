package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newTaskHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "taskhost",
		Short:  "Manage task host processes",
		Hidden: true,
	}

	cmd.AddCommand(c.newTaskHostRunCmd())

	return cmd
}

// newTaskHostRunCmd is the entry point of spawned task host processes: one
// task invocation arrives on stdin, events and the outcome leave on stdout.
func (c *CLI) newTaskHostRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "run",
		Short:  "Run a single isolated task (internal use)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.RunTaskHost(cmd.Context())
		},
	}
}
