package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry/internal/cli"
	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the stage graph visualization",
	Long:  `Plans the pipeline and outputs a Mermaid diagram (graph TD) of the stage dependencies.`,
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

		fmt.Print(graph.GenerateMermaid(plan, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
