package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"pctrack/pkg/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the account session",
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		username := args[0]

		password, err := readPassword("Password")
		if err != nil {
			return err
		}

		var token string
		var loginErr error
		_ = spinner.New().
			Title(fmt.Sprintf("Logging in as %s...", username)).
			Action(func() {
				token, loginErr = app.API.Login(cmd.Context(), username, password)
			}).
			Run()

		if loginErr != nil {
			return fmt.Errorf("login failed: %w", loginErr)
		}
		if err := app.Auth.Login(token); err != nil {
			return err
		}
		if err := app.Journeys.RefreshAuthenticationState(cmd.Context()); err != nil {
			fmt.Printf("Logged in, but could not sync journey state: %v\n", err)
			return nil
		}

		fmt.Printf("Logged in as %s\n", username)
		if app.Journeys.HasActiveJourney() {
			fmt.Println("You have a journey in progress. Run 'pctrack journey status' to see it.")
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		username := args[0]

		password, err := readPassword("Password")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		var message string
		var regErr error
		_ = spinner.New().
			Title("Creating account...").
			Action(func() {
				message, regErr = app.API.Register(cmd.Context(), username, password)
			}).
			Run()

		if regErr != nil {
			return fmt.Errorf("registration failed: %w", regErr)
		}
		if message == "" {
			message = "Account created. You can now log in."
		}
		fmt.Println(message)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear local journey data",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		if !app.Auth.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		if err := app.Auth.Logout(); err != nil {
			return err
		}
		if err := app.Journeys.RefreshAuthenticationState(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out. Local journey data cleared.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		if !app.Auth.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Println("Logged in.")
		if info, err := app.Auth.TokenInfo(); err == nil {
			if info.Subject != "" {
				fmt.Printf("  Subject:  %s\n", info.Subject)
			}
			if !info.IssuedAt.IsZero() {
				fmt.Printf("  Issued:   %s\n", info.IssuedAt.Local().Format("2 Jan 2006 15:04"))
			}
			if !info.ExpiresAt.IsZero() {
				fmt.Printf("  Expires:  %s\n", info.ExpiresAt.Local().Format("2 Jan 2006 15:04"))
			}
		}
		return nil
	},
}

func readPassword(title string) (string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	).WithTheme(tui.GetTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return password, nil
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)
}
