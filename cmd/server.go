package cmd

import (
	"tunehub/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the TuneHub HTTP server",
	Long:  `Start the TuneHub HTTP server, serving the JSON API and stored media.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
