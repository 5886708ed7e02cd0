package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sensornet-sim",
	Short: "Wireless sensor network simulation toolkit",
	Long:  "sensornet-sim simulates a battery-constrained sensor network routed by an energy-aware SDN controller, and replays or evaluates the flow datasets it produces.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(trainCmd)
}
