package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"pctrack/pkg/exporter"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journey history to a CSV or ICS file",
	Long: `Export journey history without using the interactive TUI. The list is
refreshed from the server first; offline, the cached copy is exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		if format != "csv" && format != "ics" {
			return fmt.Errorf("format must be csv or ics, got %q", format)
		}

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
		if len(snap.Journeys) == 0 {
			return fmt.Errorf("no journeys to export")
		}

		if output == "" {
			if format == "csv" {
				output = exporter.CSVFilename(time.Now())
			} else {
				output = fmt.Sprintf("journeys_%s.ics", time.Now().Format("2006-01-02"))
			}
		}

		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		if format == "csv" {
			err = exporter.GenerateCSV(snap.Journeys, file)
		} else {
			err = exporter.GenerateICS(snap.Journeys, file)
		}
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", format, err)
		}

		fmt.Printf("Successfully exported %d journeys to %s\n", len(snap.Journeys), output)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "Export format: csv or ics")
	exportCmd.Flags().StringP("output", "o", "", "Output file (defaults to a timestamped name)")
	rootCmd.AddCommand(exportCmd)
}
