package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pctrack/pkg/api"
	"pctrack/pkg/postcode"
)

var postcodesCmd = &cobra.Command{
	Use:   "postcodes",
	Short: "Manage saved postcode shortcuts",
}

var postcodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved postcodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		saved, err := app.Postcodes.List()
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			fmt.Println("No saved postcodes. Add one with 'pctrack postcodes add'.")
			return nil
		}

		titleCaser := cases.Title(language.BritishEnglish)
		for _, s := range saved {
			fmt.Printf("%s  %-10s %s\n", s.ID[:8], s.Postcode, titleCaser.String(s.Label))
		}
		return nil
	},
}

var postcodesAddCmd = &cobra.Command{
	Use:   "add <postcode> <label>",
	Short: "Save a postcode shortcut",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		saved, err := app.Postcodes.Add(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s)\n", saved.Postcode, saved.Label)
		return nil
	},
}

var postcodesRenameCmd = &cobra.Command{
	Use:   "rename <id> <new-label>",
	Short: "Rename a saved postcode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		id, err := resolvePostcodeID(app.Postcodes, args[0])
		if err != nil {
			return err
		}
		if err := app.Postcodes.Rename(id, args[1]); err != nil {
			return err
		}
		fmt.Println("Label updated.")
		return nil
	},
}

var postcodesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete saved postcodes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(args))
		for _, arg := range args {
			id, err := resolvePostcodeID(app.Postcodes, arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		if err := app.Postcodes.Delete(ids...); err != nil {
			return err
		}
		fmt.Printf("Deleted %d postcodes\n", len(ids))
		return nil
	},
}

var distanceCmd = &cobra.Command{
	Use:   "distance <from-postcode> <to-postcode>",
	Short: "Road distance between two postcodes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		from := postcode.Format(args[0])
		to := postcode.Format(args[1])
		if !postcode.IsValid(from) || !postcode.IsValid(to) {
			return fmt.Errorf("both arguments must be valid UK postcodes")
		}

		var dist *api.DistanceResponse
		var distErr error
		_ = spinner.New().
			Title(fmt.Sprintf("Calculating distance %s -> %s...", from, to)).
			Action(func() {
				dist, distErr = app.API.PostcodeDistance(cmd.Context(), from, to)
			}).
			Run()

		if distErr != nil {
			return fmt.Errorf("could not calculate distance: %w", distErr)
		}
		fmt.Printf("%s -> %s is %.2f %s\n", from, to, dist.Distance, dist.Unit)
		return nil
	},
}

// resolvePostcodeID accepts either a full saved-postcode id or an
// unambiguous prefix of one, as printed by 'postcodes list'.
func resolvePostcodeID(manager *postcode.Manager, ref string) (string, error) {
	saved, err := manager.List()
	if err != nil {
		return "", err
	}

	var match string
	for _, s := range saved {
		if s.ID == ref {
			return s.ID, nil
		}
		if len(ref) >= 4 && len(s.ID) >= len(ref) && s.ID[:len(ref)] == ref {
			if match != "" {
				return "", fmt.Errorf("postcode id %q is ambiguous", ref)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no saved postcode with id %q", ref)
	}
	return match, nil
}

func init() {
	postcodesCmd.AddCommand(postcodesListCmd)
	postcodesCmd.AddCommand(postcodesAddCmd)
	postcodesCmd.AddCommand(postcodesRenameCmd)
	postcodesCmd.AddCommand(postcodesDeleteCmd)
	postcodesCmd.AddCommand(distanceCmd)
	rootCmd.AddCommand(postcodesCmd)
}
