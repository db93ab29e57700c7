package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"pctrack/pkg/api"
	"pctrack/pkg/exporter"
)

func endText(j api.Journey) string {
	if j.IsActive {
		return "in progress"
	}
	if j.EndPostcode == nil {
		return "?"
	}
	return *j.EndPostcode
}

func journeyLine(j api.Journey) string {
	dateStr := ""
	if started, ok := j.StartedAt(); ok {
		dateStr = started.Local().Format("Mon 2 Jan 15:04")
	}

	routeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	line := fmt.Sprintf("%s  %s", dimStyle.Render(dateStr), routeStyle.Render(fmt.Sprintf("%s -> %s", j.StartPostcode, endText(j))))
	if d := j.Duration(); d != "" {
		line += dimStyle.Render(fmt.Sprintf("  %s", d))
	}
	if j.DistanceMiles != nil {
		line += dimStyle.Render(fmt.Sprintf("  %s", j.FormattedDistance()))
	}
	if label := j.LabelText(); label != "" {
		line += fmt.Sprintf("  [%s]", label)
	}
	return line
}

// RunHistoryTUI lists past journeys and offers labelling, deletion and export.
func RunHistoryTUI(app *App) error {
	ctx := context.Background()

	_ = spinner.New().
		Title("Loading journeys...").
		Action(func() {
			_ = app.Journeys.LoadJourneys(ctx)
		}).
		Run()

	snap := app.Journeys.Snapshot()
	if snap.ErrorMessage != "" {
		fmt.Println(errorStyle.Render(snap.ErrorMessage))
		app.Journeys.ClearError()
	}

	if len(snap.Journeys) == 0 {
		fmt.Println(errorStyle.Render("No journeys recorded yet."))
		return nil
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n--- 📖 Journey History (%d) ---", len(snap.Journeys))))
	for _, j := range snap.Journeys {
		fmt.Println("  " + journeyLine(j))
	}
	fmt.Println()

	var action string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("History actions").
				Options(
					huh.NewOption("Edit a label", "label"),
					huh.NewOption("Delete journeys", "delete"),
					huh.NewOption("Export as CSV", "csv"),
					huh.NewOption("Export as calendar (ICS)", "ics"),
					huh.NewOption("Back to Main Menu", "back"),
				).
				Value(&action),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	switch action {
	case "label":
		return runEditLabelView(app, ctx, snap.Journeys)
	case "delete":
		return runDeleteJourneysView(app, snap.Journeys)
	case "csv":
		return exportCSVView(snap.Journeys)
	case "ics":
		return exportICSView(snap.Journeys)
	}
	return nil
}

func journeyOptions(journeys []api.Journey) []huh.Option[int] {
	opts := make([]huh.Option[int], 0, len(journeys))
	for _, j := range journeys {
		opts = append(opts, huh.NewOption(journeyLine(j), j.ID))
	}
	return opts
}

func runEditLabelView(app *App, ctx context.Context, journeys []api.Journey) error {
	var journeyID int
	var label string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which journey?").
				Options(journeyOptions(journeys)...).
				Value(&journeyID),
			huh.NewInput().
				Title("Label").
				Placeholder("e.g. School run").
				Value(&label),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	var updateErr error
	_ = spinner.New().
		Title("Saving label...").
		Action(func() {
			updateErr = app.Journeys.UpdateJourneyLabel(ctx, journeyID, label)
		}).
		Run()

	if updateErr != nil {
		fmt.Println(errorStyle.Render(app.Journeys.Snapshot().ErrorMessage))
		app.Journeys.ClearError()
		return nil
	}
	fmt.Println(successStyle.Render("\n✅ Label saved.\n"))
	return nil
}

func runDeleteJourneysView(app *App, journeys []api.Journey) error {
	var ids []int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("Select journeys to remove from this device").
				Description("Space = toggle, Enter = confirm.").
				Options(journeyOptions(journeys)...).
				Value(&ids).
				Height(12),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := app.Journeys.DeleteJourneys(ids); err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Could not delete journeys: %v", err)))
		return nil
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Removed %d journeys.\n", len(ids))))
	return nil
}

func exportCSVView(journeys []api.Journey) error {
	filename := exporter.CSVFilename(time.Now())
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create export file: %w", err)
	}
	defer file.Close()

	if err := exporter.GenerateCSV(journeys, file); err != nil {
		return fmt.Errorf("could not write CSV: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Exported %d journeys to %s\n", len(journeys), filename)))
	return nil
}

func exportICSView(journeys []api.Journey) error {
	filename := fmt.Sprintf("journeys_%s.ics", time.Now().Format("2006-01-02"))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create export file: %w", err)
	}
	defer file.Close()

	if err := exporter.GenerateICS(journeys, file); err != nil {
		return fmt.Errorf("could not write calendar: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Exported journey calendar to %s\n", filename)))
	return nil
}
