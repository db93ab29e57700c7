package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// RunAccountTUI handles login, registration, profile and logout.
func RunAccountTUI(app *App) error {
	ctx := context.Background()

	if !app.Auth.IsAuthenticated() {
		var action string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("You are not logged in").
					Options(
						huh.NewOption("Log in", "login"),
						huh.NewOption("Create an account", "register"),
						huh.NewOption("Back to Main Menu", "back"),
					).
					Value(&action),
			),
		).WithTheme(GetTheme())

		if err := form.Run(); err != nil {
			return err
		}

		if action == "login" {
			return runLoginView(app, ctx)
		} else if action == "register" {
			return runRegisterView(app, ctx)
		}
		return nil
	}

	var action string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("View profile", "profile"),
					huh.NewOption("Log out", "logout"),
					huh.NewOption("Back to Main Menu", "back"),
				).
				Value(&action),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if action == "profile" {
		return runProfileView(app, ctx)
	} else if action == "logout" {
		return runLogoutView(app, ctx)
	}
	return nil
}

func credentialsForm(username, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password),
		),
	).WithTheme(GetTheme())
}

func runLoginView(app *App, ctx context.Context) error {
	var username, password string
	if err := credentialsForm(&username, &password).Run(); err != nil {
		return err
	}

	var token string
	var loginErr error
	_ = spinner.New().
		Title("Logging in...").
		Action(func() {
			token, loginErr = app.API.Login(ctx, username, password)
		}).
		Run()

	if loginErr != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Login failed: %v", loginErr)))
		return nil
	}

	if err := app.Auth.Login(token); err != nil {
		return err
	}

	// Restore any journey left running on another device
	_ = spinner.New().
		Title("Syncing journey state...").
		Action(func() {
			_ = app.Journeys.RefreshAuthenticationState(ctx)
		}).
		Run()

	fmt.Println(successStyle.Render(fmt.Sprintf("\n✅ Logged in as %s\n", username)))
	return nil
}

func runRegisterView(app *App, ctx context.Context) error {
	var username, password string
	if err := credentialsForm(&username, &password).Run(); err != nil {
		return err
	}

	var message string
	var regErr error
	_ = spinner.New().
		Title("Creating account...").
		Action(func() {
			message, regErr = app.API.Register(ctx, username, password)
		}).
		Run()

	if regErr != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Registration failed: %v", regErr)))
		return nil
	}

	if message == "" {
		message = "Account created. You can now log in."
	}
	fmt.Println(successStyle.Render("\n✅ " + message + "\n"))
	return nil
}

func runProfileView(app *App, ctx context.Context) error {
	p, err := fetchProfile(app, ctx)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Could not load profile: %v", err)))
		return nil
	}

	fmt.Println(accentStyle.Render("\n--- 👤 Profile ---"))
	fmt.Println(p)
	return nil
}

func fetchProfile(app *App, ctx context.Context) (string, error) {
	var out string
	var fetchErr error
	_ = spinner.New().
		Title("Loading profile...").
		Action(func() {
			profile, err := app.API.GetProfile(ctx)
			if err != nil {
				fetchErr = err
				return
			}
			out = fmt.Sprintf("Username: %s\nJourneys: %d\nTotal distance: %.2f miles\n",
				profile.Username, profile.TotalJourneys, profile.TotalDistanceMiles)
		}).
		Run()
	return out, fetchErr
}

func runLogoutView(app *App, ctx context.Context) error {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Log out? Cached journeys on this device will be cleared.").
				Affirmative("Log out").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	if err := app.Auth.Logout(); err != nil {
		return err
	}
	if err := app.Journeys.RefreshAuthenticationState(ctx); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("\n✅ Logged out.\n"))
	return nil
}
