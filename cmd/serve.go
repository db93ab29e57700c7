package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pctrack/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the journey history as a local web page",
	Long: `Serve a small read-only web page with the journey history, plus JSON
endpoints, for viewing from other devices on the network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		app, err := buildApp()
		if err != nil {
			return err
		}

		server := web.NewServer(app.Journeys)
		fmt.Printf("Serving journey history on http://%s\n", addr)
		return server.Run(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8807", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
