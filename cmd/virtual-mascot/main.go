package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "virtual-mascot",
	Short: "Companion service for a desktop mascot",
	Long: `virtual-mascot answers chat and weather questions for a desktop mascot.

Messages are classified as exit, weather or chat. Weather answers come from a
time-windowed cache over HTTP weather providers; chat replies are generated
from the last few turns of a capped JSON history.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.json if present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
