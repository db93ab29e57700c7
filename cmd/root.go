package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pctrack/pkg/tui"
)

var rootCmd = &cobra.Command{
	Use:   "pctrack",
	Short: "A CLI and TUI for tracking journeys between UK postcodes",
	Long: `pctrack records journeys between UK postcodes: start a journey where
you are, end it where you arrive, and the server resolves both locations to
postcodes and computes the distance. History is mirrored locally so it
stays available offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation drops into the interactive TUI
		app, err := buildApp()
		if err != nil {
			return err
		}
		return tui.RunTUI(app)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
