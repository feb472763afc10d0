package cmd

import (
	"fmt"
	"os"

	"tunehub/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tunehub",
	Short: "TuneHub is a music sharing service.",
	Long:  `TuneHub lets artists upload songs and listeners browse, play, download, like and organize them into playlists.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
