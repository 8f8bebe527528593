package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "options-trading",
	Short: "Play lifecycle and dynamic exit orchestration engine",
}

func Execute() error {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(repairCmd)
	return rootCmd.Execute()
}
