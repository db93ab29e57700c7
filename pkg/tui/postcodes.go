package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"pctrack/pkg/api"
	"pctrack/pkg/postcode"
)

// RunPostcodesTUI manages the saved postcode shortcuts and the distance
// calculator.
func RunPostcodesTUI(app *App) error {
	for {
		saved, err := app.Postcodes.List()
		if err != nil {
			return err
		}

		if len(saved) > 0 {
			fmt.Println(accentStyle.Render(fmt.Sprintf("\n--- 📍 Saved Postcodes (%d) ---", len(saved))))
			for _, s := range saved {
				fmt.Printf("  %s  %s\n", s.Postcode, s.Label)
			}
			fmt.Println()
		}

		var action string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Saved Postcodes").
					Options(
						huh.NewOption("Add a postcode", "add"),
						huh.NewOption("Rename a postcode", "rename"),
						huh.NewOption("Delete postcodes", "delete"),
						huh.NewOption("Distance between two postcodes", "distance"),
						huh.NewOption("Back to Main Menu", "back"),
					).
					Value(&action),
			),
		).WithTheme(GetTheme())

		if err := form.Run(); err != nil {
			return err
		}

		switch action {
		case "add":
			err = runAddPostcodeView(app)
		case "rename":
			err = runRenamePostcodeView(app, saved)
		case "delete":
			err = runDeletePostcodesView(app, saved)
		case "distance":
			err = runDistanceView(app)
		default:
			return nil
		}

		if err != nil {
			return err
		}
	}
}

func runAddPostcodeView(app *App) error {
	var raw, label string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Postcode").
				Placeholder("SW1A 1AA").
				Value(&raw).
				Validate(func(s string) error {
					if !postcode.IsValid(postcode.Format(s)) {
						return fmt.Errorf("not a valid UK postcode")
					}
					return nil
				}),
			huh.NewInput().
				Title("Label").
				Placeholder("e.g. Home, Work, School").
				Value(&label),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	saved, err := app.Postcodes.Add(raw, label)
	if err != nil {
		if errors.Is(err, postcode.ErrDuplicatePostcode) {
			fmt.Println(errorStyle.Render("That postcode is already saved."))
			return nil
		}
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Saved %s (%s)\n", saved.Postcode, saved.Label)))
	return nil
}

func savedOptions(saved []postcode.Saved) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(saved))
	for _, s := range saved {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", s.Postcode, s.Label), s.ID))
	}
	return opts
}

func runRenamePostcodeView(app *App, saved []postcode.Saved) error {
	if len(saved) == 0 {
		fmt.Println(errorStyle.Render("No saved postcodes yet."))
		return nil
	}

	var id, label string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which postcode?").
				Options(savedOptions(saved)...).
				Value(&id),
			huh.NewInput().
				Title("New label").
				Value(&label),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if err := app.Postcodes.Rename(id, label); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("\n✅ Label updated.\n"))
	return nil
}

func runDeletePostcodesView(app *App, saved []postcode.Saved) error {
	if len(saved) == 0 {
		fmt.Println(errorStyle.Render("No saved postcodes yet."))
		return nil
	}

	var ids []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select postcodes to delete").
				Description("Space = toggle, Enter = confirm.").
				Options(savedOptions(saved)...).
				Value(&ids),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := app.Postcodes.Delete(ids...); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Deleted %d postcodes.\n", len(ids))))
	return nil
}

func runDistanceView(app *App) error {
	var from, to string
	validate := func(s string) error {
		if !postcode.IsValid(postcode.Format(s)) {
			return fmt.Errorf("not a valid UK postcode")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("From postcode").Value(&from).Validate(validate),
			huh.NewInput().Title("To postcode").Value(&to).Validate(validate),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	var dist *api.DistanceResponse
	var distErr error
	_ = spinner.New().
		Title("Calculating distance...").
		Action(func() {
			dist, distErr = app.API.PostcodeDistance(context.Background(), postcode.Format(from), postcode.Format(to))
		}).
		Run()

	if distErr != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Could not calculate distance: %v", distErr)))
		return nil
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n%s -> %s is %.2f %s\n", postcode.Format(from), postcode.Format(to), dist.Distance, dist.Unit)))
	return nil
}

// RunManualJourneyTUI records a journey between two typed or saved postcodes.
func RunManualJourneyTUI(app *App) error {
	if !app.Auth.IsAuthenticated() {
		fmt.Println(errorStyle.Render("You are not logged in."))
		return nil
	}

	saved, err := app.Postcodes.List()
	if err != nil {
		return err
	}

	start, err := pickPostcode(app, "Start postcode", saved)
	if err != nil || start == "" {
		return err
	}
	end, err := pickPostcode(app, "End postcode", saved)
	if err != nil || end == "" {
		return err
	}

	var created error
	_ = spinner.New().
		Title("Recording journey...").
		Action(func() {
			_, created = app.Journeys.CreateManualJourney(context.Background(), start, end)
		}).
		Run()

	if created != nil {
		fmt.Println(errorStyle.Render(app.Journeys.Snapshot().ErrorMessage))
		app.Journeys.ClearError()
		return nil
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Recorded journey %s -> %s\n", postcode.Format(start), postcode.Format(end))))
	return nil
}

// pickPostcode offers the saved shortcuts plus free-text entry. Returns ""
// when the user backs out.
func pickPostcode(app *App, title string, saved []postcode.Saved) (string, error) {
	const typeManually = "__manual__"

	choice := typeManually
	if len(saved) > 0 {
		opts := make([]huh.Option[string], 0, len(saved)+1)
		for _, s := range saved {
			opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", s.Postcode, s.Label), s.Postcode))
		}
		opts = append(opts, huh.NewOption("Type a postcode...", typeManually))

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(title).
					Options(opts...).
					Value(&choice),
			),
		).WithTheme(GetTheme())

		if err := form.Run(); err != nil {
			return "", err
		}
	}

	if choice != typeManually {
		return choice, nil
	}

	var typed string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("SW1A 1AA").
				Value(&typed).
				Validate(func(s string) error {
					if !postcode.IsValid(postcode.Format(s)) {
						return fmt.Errorf("not a valid UK postcode")
					}
					return nil
				}),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return typed, nil
}
