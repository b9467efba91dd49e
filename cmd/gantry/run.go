package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the release pipeline for a trigger",
	Long: `Plans the stage graph and executes it for the given trigger event
and branch. Publish stages only run on a push to a publish branch.

Exit codes: 0 run succeeded, 1 a stage failed, 2 configuration error.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		sourceDir, _ := cmd.Flags().GetString("dir")
		event, _ := cmd.Flags().GetString("event")
		branch, _ := cmd.Flags().GetString("branch")
		environment, _ := cmd.Flags().GetString("environment")
		runID, _ := cmd.Flags().GetString("run-id")
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")
		approvalAddr, _ := cmd.Flags().GetString("approvals")
		metricsAddr, _ := cmd.Flags().GetString("metrics")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code := cli.Execute(ctx, cli.RunOptions{
			ConfigPath:   configPath,
			SourceDir:    sourceDir,
			Event:        event,
			Branch:       branch,
			Environment:  environment,
			RunID:        runID,
			JSON:         jsonMode,
			Debug:        debug,
			ApprovalAddr: approvalAddr,
			MetricsAddr:  metricsAddr,
		})
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("event", "push", "Trigger event (push, pull_request)")
	runCmd.Flags().String("branch", "main", "Trigger branch")
	runCmd.Flags().String("environment", "", "Environment identity for publish stages")
	runCmd.Flags().String("run-id", "", "Run identifier (generated if empty)")
	runCmd.Flags().Bool("json", false, "Emit the run report as JSON")
	runCmd.Flags().Bool("debug", false, "Enable debug logging")
	runCmd.Flags().String("approvals", "", "Listen address for the approval endpoint (empty = auto-approve)")
	runCmd.Flags().String("metrics", "", "Listen address for the Prometheus metrics endpoint")
}
