// Package exporter renders journey history as CSV spreadsheets and ICS
// calendars.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"pctrack/pkg/api"
)

var csvHeader = []string{
	"Label",
	"Date",
	"Start Time",
	"Start Postcode",
	"End Time",
	"End Postcode",
	"Duration",
	"Distance (miles)",
}

// GenerateCSV writes the journeys as CSV rows, one per journey, newest
// ordering preserved from the input.
func GenerateCSV(journeys []api.Journey, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, j := range journeys {
		var date, startClock, endClock string
		if start, ok := j.StartedAt(); ok {
			date = start.Format("2006-01-02")
			startClock = start.Format("15:04:05")
		}
		if end, ok := j.EndedAt(); ok {
			endClock = end.Format("15:04:05")
		}

		var distance string
		if j.DistanceMiles != nil {
			distance = fmt.Sprintf("%.2f", *j.DistanceMiles)
		}

		row := []string{
			j.LabelText(),
			date,
			startClock,
			j.StartPostcode,
			endClock,
			endPostcodeText(j),
			j.Duration(),
			distance,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSVFilename builds the timestamped export filename.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("journeys_export_%s.csv", now.Format("2006-01-02_15-04-05"))
}
