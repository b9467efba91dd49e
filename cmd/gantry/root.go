package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Gantry is a release pipeline runner",
	Long: `Gantry runs a project's release pipeline: formatting commits,
artifact builds, verification, and trusted publishing to a package
index, all driven by a gantry.yaml definition.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "gantry.yaml", "Path to the pipeline definition")
	rootCmd.PersistentFlags().String("dir", ".", "Source directory the pipeline operates on")
}
