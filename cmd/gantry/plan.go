package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry/internal/cli"
	"github.com/aretw0/gantry/internal/config"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Check the pipeline definition and print the execution order",
	Long:  `Validates gantry.yaml, plans the stage graph and reports the order stages would run in, without executing anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(cli.ExitConfig)
		}

		pipe, err := cfg.Pipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(cli.ExitConfig)
		}

		plan, err := pipe.Plan()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(cli.ExitConfig)
		}

		fmt.Printf("Pipeline %q plans %d stages:\n", cfg.Name, len(plan))
		for i, stage := range plan {
			marker := ""
			if stage.Publish != nil {
				marker = fmt.Sprintf("  [publish -> %s]", stage.Publish.Audience)
			}
			if stage.Commit != nil {
				marker = "  [commits changes]"
			}
			fmt.Printf("  %d. %s%s\n", i+1, stage.Name, marker)
		}
		fmt.Println("Pipeline is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
