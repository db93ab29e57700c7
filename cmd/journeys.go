package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	routeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var journeysCmd = &cobra.Command{
	Use:   "journeys",
	Short: "List journey history",
	Long: `List past journeys, newest first. With a connection the list is
refreshed from the server and mirrored to the local cache; offline the
cached copy is shown instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		_ = spinner.New().
			Title("Loading journeys...").
			Action(func() {
				_ = app.Journeys.LoadJourneys(cmd.Context())
			}).
			Run()

		snap := app.Journeys.Snapshot()
		if snap.ErrorMessage != "" {
			fmt.Println(dimStyle.Render(snap.ErrorMessage + " (showing cached journeys)"))
		}

		if len(snap.Journeys) == 0 {
			fmt.Println("No journeys recorded yet.")
			return nil
		}

		for _, j := range snap.Journeys {
			dateStr := ""
			if started, ok := j.StartedAt(); ok {
				dateStr = started.Local().Format("Mon 2 Jan 15:04")
			}

			end := "in progress"
			if !j.IsActive && j.EndPostcode != nil {
				end = *j.EndPostcode
			}

			line := fmt.Sprintf("%4d  %s  %s", j.ID, dimStyle.Render(dateStr), routeStyle.Render(fmt.Sprintf("%s -> %s", j.StartPostcode, end)))
			if d := j.Duration(); d != "" {
				line += dimStyle.Render("  " + d)
			}
			if j.DistanceMiles != nil {
				line += dimStyle.Render("  " + j.FormattedDistance())
			}
			if label := j.LabelText(); label != "" {
				line += fmt.Sprintf("  [%s]", label)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var journeysLabelCmd = &cobra.Command{
	Use:   "label <journey-id> <label>",
	Short: "Set the label on a journey",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		journeyID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("journey id must be a number: %q", args[0])
		}

		var updateErr error
		_ = spinner.New().
			Title("Saving label...").
			Action(func() {
				updateErr = app.Journeys.UpdateJourneyLabel(cmd.Context(), journeyID, args[1])
			}).
			Run()

		if updateErr != nil {
			return fmt.Errorf("%s", app.Journeys.Snapshot().ErrorMessage)
		}
		fmt.Printf("Label saved on journey %d\n", journeyID)
		return nil
	},
}

var journeysDeleteCmd = &cobra.Command{
	Use:   "delete <journey-id>...",
	Short: "Remove journeys from this device",
	Long:  `Remove journeys from the local cache and list. The server copy is not touched.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		ids := make([]int, 0, len(args))
		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("journey id must be a number: %q", arg)
			}
			ids = append(ids, id)
		}

		if err := app.Journeys.DeleteJourneys(ids); err != nil {
			return fmt.Errorf("could not delete journeys: %w", err)
		}
		fmt.Printf("Removed %d journeys from this device\n", len(ids))
		return nil
	},
}

var manualCmd = &cobra.Command{
	Use:   "manual <start-postcode> <end-postcode>",
	Short: "Record a journey between two postcodes",
	Long:  `Record a journey directly between two UK postcodes without location tracking.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		var createErr error
		_ = spinner.New().
			Title(fmt.Sprintf("Recording journey %s -> %s...", args[0], args[1])).
			Action(func() {
				_, createErr = app.Journeys.CreateManualJourney(cmd.Context(), args[0], args[1])
			}).
			Run()

		if createErr != nil {
			return fmt.Errorf("%s", app.Journeys.Snapshot().ErrorMessage)
		}

		snap := app.Journeys.Snapshot()
		if len(snap.Journeys) > 0 {
			created := snap.Journeys[0]
			fmt.Printf("Recorded journey %s -> ", created.StartPostcode)
			if created.EndPostcode != nil {
				fmt.Print(*created.EndPostcode)
			}
			if created.DistanceMiles != nil {
				fmt.Printf(" (%s)", created.FormattedDistance())
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	journeysCmd.AddCommand(journeysLabelCmd)
	journeysCmd.AddCommand(journeysDeleteCmd)
	rootCmd.AddCommand(journeysCmd)
	rootCmd.AddCommand(manualCmd)
}
