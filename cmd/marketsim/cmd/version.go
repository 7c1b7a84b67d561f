package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the marketsim version",
	Long:  `Display the current version of the marketsim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketsim version %s\n", version)
		fmt.Println("A market simulation and risk-control research tool")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
