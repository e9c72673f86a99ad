package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build the given targets of a project",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			properties, _ := cmd.Flags().GetStringArray("property")
			maxNodes, _ := cmd.Flags().GetInt("max-nodes")
			multiThreaded, _ := cmd.Flags().GetBool("multi-threaded")
			noInProc, _ := cmd.Flags().GetBool("no-inproc")
			nodeReuse, _ := cmd.Flags().GetBool("node-reuse")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			onlyErrors, _ := cmd.Flags().GetBool("only-errors")
			saveEnv, _ := cmd.Flags().GetBool("save-environment")
			warnAsError, _ := cmd.Flags().GetStringSlice("warn-as-error")
			notWarnAsError, _ := cmd.Flags().GetStringSlice("not-warn-as-error")
			warnAsMessage, _ := cmd.Flags().GetStringSlice("warn-as-message")

			return c.app.Run(cmd.Context(), args, app.RunOptions{
				Project:         project,
				Properties:      properties,
				MaxNodeCount:    maxNodes,
				MultiThreaded:   multiThreaded,
				DisableInProc:   noInProc,
				NodeReuse:       nodeReuse,
				NoCache:         noCache,
				OnlyErrors:      onlyErrors,
				SaveEnvironment: saveEnv,
				WarnAsError:     warnAsError,
				NotWarnAsError:  notWarnAsError,
				WarnAsMessage:   warnAsMessage,
			})
		},
	}

	cmd.Flags().StringP("project", "p", "", "Project file or directory to build (defaults to the working directory)")
	cmd.Flags().StringArrayP("property", "D", nil, "Set a global property as key=value (repeatable)")
	cmd.Flags().IntP("max-nodes", "m", 1, "Maximum number of build nodes, the in-process node included")
	cmd.Flags().Bool("multi-threaded", false, "Execute requests concurrently")
	cmd.Flags().Bool("no-inproc", false, "Disable the in-process node and build on workers only")
	cmd.Flags().Bool("node-reuse", false, "Keep idle worker nodes alive for later builds")
	cmd.Flags().BoolP("no-cache", "n", false, "Drop cached target results before building")
	cmd.Flags().BoolP("only-errors", "q", false, "Log only warnings, errors and build boundaries")
	cmd.Flags().Bool("save-environment", false, "Restore the working directory and environment after the build")
	cmd.Flags().StringSlice("warn-as-error", nil, "Warning codes to escalate to errors (* for all)")
	cmd.Flags().StringSlice("not-warn-as-error", nil, "Warning codes exempt from --warn-as-error=*")
	cmd.Flags().StringSlice("warn-as-message", nil, "Warning codes to demote to messages")

	return cmd
}
