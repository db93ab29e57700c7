package tui

import (
	"fmt"
	"strconv"
	"strings"

	"pctrack/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// RunConfigTUI launches the interactive experience for managing configurations
func RunConfigTUI() error {
	for {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		var action string

		initialForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Configuration Settings").
					Options(
						huh.NewOption("Set Accent Color (Theme)", "theme"),
						huh.NewOption("Set Server Address", "server"),
						huh.NewOption("Set Home Coordinates", "home"),
						huh.NewOption("Set Location Bridge URL", "location"),
						huh.NewOption("View Current Config", "view"),
						huh.NewOption("Back to Main Menu", "back"),
					).
					Value(&action),
			),
		).WithTheme(GetTheme())

		if err := initialForm.Run(); err != nil {
			return err
		}

		if action == "back" {
			return nil
		}

		if action == "theme" {
			err = runSetThemeTUI(cfg)
		} else if action == "server" {
			err = runSetServerTUI(cfg)
		} else if action == "home" {
			err = runSetHomeTUI(cfg)
		} else if action == "location" {
			err = runSetLocationURLTUI(cfg)
		} else if action == "view" {
			fmt.Println(accentStyle.Render("\n--- Current Configuration (~/.pctrack.json) ---"))
			fmt.Printf("Server: %s\n", cfg.ServerURL())
			if cfg.HasHomeLocation() {
				fmt.Printf("Home: %.4f, %.4f\n", cfg.HomeLatitude, cfg.HomeLongitude)
			} else {
				fmt.Println("Home: Not set")
			}
			if cfg.LocationURL == "" {
				fmt.Println("Location bridge: Not set")
			} else {
				fmt.Printf("Location bridge: %s\n", cfg.LocationURL)
			}
			fmt.Printf("Accent Color: %s\n", cfg.AccentColor)
			fmt.Println()
		}

		if err != nil {
			return err
		}
	}
}

func runSetServerTUI(cfg *config.AppConfig) error {
	input := cfg.BaseURL

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API server base address").
				Description("Leave empty to use the default server.").
				Placeholder(config.DefaultBaseURL).
				Value(&input),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.BaseURL = strings.TrimRight(input, "/")
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Server address set to: %s\n", cfg.ServerURL())))
	return nil
}

func runSetHomeTUI(cfg *config.AppConfig) error {
	var latStr, lonStr string
	if cfg.HasHomeLocation() {
		latStr = strconv.FormatFloat(cfg.HomeLatitude, 'f', -1, 64)
		lonStr = strconv.FormatFloat(cfg.HomeLongitude, 'f', -1, 64)
	}

	validateCoord := func(s string) error {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("must be a decimal number")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Home latitude").
				Description("Used as the journey location when no bridge is configured.").
				Placeholder("51.5014").
				Value(&latStr).
				Validate(validateCoord),
			huh.NewInput().
				Title("Home longitude").
				Placeholder("-0.1419").
				Value(&lonStr).
				Validate(validateCoord),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.HomeLatitude, _ = strconv.ParseFloat(latStr, 64)
	cfg.HomeLongitude, _ = strconv.ParseFloat(lonStr, 64)
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Home coordinates saved: %.4f, %.4f\n", cfg.HomeLatitude, cfg.HomeLongitude)))
	return nil
}

func runSetLocationURLTUI(cfg *config.AppConfig) error {
	input := cfg.LocationURL

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Location bridge URL").
				Description("An HTTP endpoint returning your live coordinates as JSON.\nLeave empty to use the fixed home coordinates instead.").
				Placeholder("http://192.168.1.20:8947/location").
				Value(&input),
		),
	).WithTheme(GetTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.LocationURL = input
	if err := config.Save(cfg); err != nil {
		return err
	}

	if cfg.LocationURL == "" {
		fmt.Println(accentStyle.Render("\n✅ Location bridge cleared. Using fixed home coordinates.\n"))
	} else {
		fmt.Println(accentStyle.Render(fmt.Sprintf("\n✅ Location bridge set to: %s\n", cfg.LocationURL)))
	}
	return nil
}

func colorBlock(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("██")
}

func runSetThemeTUI(cfg *config.AppConfig) error {
	var input string

	inputForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose an Accent Color for pctrack").
				Description("Select a curated Charm style or choose Custom to enter your own Hex.").
				Options(
					huh.NewOption(fmt.Sprintf("%s Postcode Blue", colorBlock("39")), "39"),
					huh.NewOption(fmt.Sprintf("%s Sakura Pink", colorBlock("205")), "205"),
					huh.NewOption(fmt.Sprintf("%s Ocean Teal", colorBlock("86")), "86"),
					huh.NewOption(fmt.Sprintf("%s Matrix Green", colorBlock("42")), "42"),
					huh.NewOption("✨ Custom Hex Code", "custom"),
				).
				Value(&input),
		),
	).WithTheme(GetTheme())

	if err := inputForm.Run(); err != nil {
		return err
	}

	if input == "custom" {
		var hexInput string
		hexForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter a Hex Color Code").
					Description("Include the `#` symbol. Example: #FF00FF").
					Placeholder("#").
					Value(&hexInput).
					Validate(func(str string) error {
						if len(str) != 7 || !strings.HasPrefix(str, "#") {
							return fmt.Errorf("must be a valid 6-character hex code starting with #")
						}
						return nil
					}),
			),
		).WithTheme(GetTheme())

		if err := hexForm.Run(); err != nil {
			return err
		}
		cfg.AccentColor = hexInput
	} else {
		cfg.AccentColor = input
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(accentStyle.Render("\n✅ Beautiful! The theme color is now saved.\n"))
	return nil
}
