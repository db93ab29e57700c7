package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// RunTrackingTUI drives the live journey flow: it reconciles with the server,
// shows the current tracking state and offers to start or end a journey.
func RunTrackingTUI(app *App) error {
	if !app.Auth.IsAuthenticated() {
		fmt.Println(errorStyle.Render("You are not logged in."))
		fmt.Println("Run 'pctrack auth login' or use the Account menu first.")
		return nil
	}

	ctx := context.Background()

	_ = spinner.New().
		Title("Checking for an active journey...").
		Action(func() {
			_ = app.Journeys.CheckActiveJourney(ctx)
		}).
		Run()

	snap := app.Journeys.Snapshot()
	if snap.ErrorMessage != "" {
		fmt.Println(errorStyle.Render(snap.ErrorMessage))
		app.Journeys.ClearError()
	}

	if snap.CurrentJourney != nil {
		return runEndJourneyView(app, ctx)
	}
	return runStartJourneyView(app, ctx)
}

func runStartJourneyView(app *App, ctx context.Context) error {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("No journey in progress. Start one from your current location?").
				Affirmative("Start journey").
				Negative("Back").
				Value(&confirmed),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	var startErr error
	_ = spinner.New().
		Title("Acquiring location and starting journey...").
		Action(func() {
			startErr = app.Journeys.StartJourney(ctx)
		}).
		Run()

	snap := app.Journeys.Snapshot()
	if startErr != nil {
		fmt.Println(errorStyle.Render(snap.ErrorMessage))
		app.Journeys.ClearError()
		return nil
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Journey started from %s\n", snap.CurrentJourney.StartPostcode)))
	return nil
}

func runEndJourneyView(app *App, ctx context.Context) error {
	snap := app.Journeys.Snapshot()
	current := snap.CurrentJourney

	fmt.Println(accentStyle.Render("\n--- 🚗 Journey in Progress ---"))
	fmt.Printf("From: %s\n", current.StartPostcode)
	if started, ok := current.StartedAt(); ok {
		fmt.Printf("Started: %s\n", started.Local().Format("Mon 2 Jan 15:04"))
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("End this journey at your current location?").
				Affirmative("End journey").
				Negative("Back").
				Value(&confirmed),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	var endErr error
	_ = spinner.New().
		Title("Acquiring location and ending journey...").
		Action(func() {
			endErr = app.Journeys.EndJourney(ctx)
		}).
		Run()

	snap = app.Journeys.Snapshot()
	if endErr != nil {
		fmt.Println(errorStyle.Render(snap.ErrorMessage))
		app.Journeys.ClearError()
		return nil
	}

	if len(snap.Journeys) > 0 {
		done := snap.Journeys[0]
		fmt.Println(successStyle.Render("\n✅ Journey complete!"))
		fmt.Printf("%s -> %s", done.StartPostcode, endText(done))
		if d := done.Duration(); d != "" {
			fmt.Printf(" (%s)", d)
		}
		if done.DistanceMiles != nil {
			fmt.Printf(", %s", done.FormattedDistance())
		}
		fmt.Println()
	}
	return nil
}
