package cmd

import (
	"github.com/spf13/cobra"

	"pctrack/pkg/tui"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the interactive TUI",
	Long:  `Launch the Text User Interface to track journeys, browse history, and manage saved postcodes interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		return tui.RunTUI(app)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
