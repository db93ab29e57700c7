package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var journeyCmd = &cobra.Command{
	Use:   "journey",
	Short: "Track a live journey",
}

var journeyStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a journey from your current location",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		var startErr error
		_ = spinner.New().
			Title("Acquiring location and starting journey...").
			Action(func() {
				startErr = app.Journeys.StartJourney(cmd.Context())
			}).
			Run()

		if startErr != nil {
			return fmt.Errorf("%s", app.Journeys.Snapshot().ErrorMessage)
		}

		snap := app.Journeys.Snapshot()
		fmt.Printf("Journey started from %s\n", snap.CurrentJourney.StartPostcode)
		return nil
	},
}

var journeyEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active journey at your current location",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		var endErr error
		_ = spinner.New().
			Title("Acquiring location and ending journey...").
			Action(func() {
				endErr = app.Journeys.EndJourney(cmd.Context())
			}).
			Run()

		if endErr != nil {
			return fmt.Errorf("%s", app.Journeys.Snapshot().ErrorMessage)
		}

		snap := app.Journeys.Snapshot()
		if len(snap.Journeys) > 0 {
			done := snap.Journeys[0]
			end := ""
			if done.EndPostcode != nil {
				end = *done.EndPostcode
			}
			fmt.Printf("Journey complete: %s -> %s", done.StartPostcode, end)
			if d := done.Duration(); d != "" {
				fmt.Printf(" (%s)", d)
			}
			if done.DistanceMiles != nil {
				fmt.Printf(", %s", done.FormattedDistance())
			}
			fmt.Println()
		}
		return nil
	},
}

var journeyStatusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"check"},
	Short:   "Show the tracked journey, reconciling with the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		_ = spinner.New().
			Title("Checking for an active journey...").
			Action(func() {
				_ = app.Journeys.CheckActiveJourney(cmd.Context())
			}).
			Run()

		snap := app.Journeys.Snapshot()
		if snap.ErrorMessage != "" {
			fmt.Println(snap.ErrorMessage)
		}

		if snap.CurrentJourney == nil {
			fmt.Println("No journey in progress.")
			return nil
		}

		fmt.Printf("Journey in progress from %s\n", snap.CurrentJourney.StartPostcode)
		if started, ok := snap.CurrentJourney.StartedAt(); ok {
			fmt.Printf("Started %s\n", started.Local().Format("Mon 2 Jan 15:04"))
		}
		return nil
	},
}

func init() {
	journeyCmd.AddCommand(journeyStartCmd)
	journeyCmd.AddCommand(journeyEndCmd)
	journeyCmd.AddCommand(journeyStatusCmd)
	rootCmd.AddCommand(journeyCmd)
}
