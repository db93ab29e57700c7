package exporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pctrack/pkg/api"
)

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func sampleJourneys() []api.Journey {
	return []api.Journey{
		{
			ID:            2,
			StartPostcode: "SW1A 1AA",
			EndPostcode:   strPtr("EC1A 1BB"),
			StartTime:     "2026-08-02T08:30:00Z",
			EndTime:       strPtr("2026-08-02T09:15:00Z"),
			DistanceMiles: f64Ptr(2.4),
			Label:         strPtr("School run, morning"),
		},
		{
			ID:            1,
			StartPostcode: "N1 9GU",
			StartTime:     "2026-08-01T10:00:00Z",
			IsActive:      true,
		},
	}
}

func TestGenerateCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateCSV(sampleJourneys(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one row per journey")

	assert.Equal(t, csvHeader, records[0])

	completed := records[1]
	assert.Equal(t, "School run, morning", completed[0])
	assert.Equal(t, "2026-08-02", completed[1])
	assert.Equal(t, "08:30:00", completed[2])
	assert.Equal(t, "SW1A 1AA", completed[3])
	assert.Equal(t, "09:15:00", completed[4])
	assert.Equal(t, "EC1A 1BB", completed[5])
	assert.Equal(t, "45m", completed[6])
	assert.Equal(t, "2.40", completed[7])

	// The active journey has empty end and distance columns
	active := records[2]
	assert.Equal(t, "N1 9GU", active[3])
	assert.Empty(t, active[4])
	assert.Empty(t, active[5])
	assert.Empty(t, active[6])
	assert.Empty(t, active[7])
}

func TestCSVFilename(t *testing.T) {
	now := time.Date(2026, 9, 1, 14, 5, 30, 0, time.UTC)
	assert.Equal(t, "journeys_export_2026-09-01_14-05-30.csv", CSVFilename(now))
}

func TestGenerateICS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateICS(sampleJourneys(), &buf))

	output := buf.String()

	assert.Contains(t, output, "SUMMARY:School run")
	assert.Contains(t, output, "LOCATION:SW1A 1AA")
	assert.Contains(t, output, "DTSTART:20260802T083000Z")
	assert.Contains(t, output, "DTEND:20260802T091500Z")

	// The active journey has no end time and must not produce an event
	assert.Equal(t, 1, strings.Count(output, "BEGIN:VEVENT"))
	assert.NotContains(t, output, "N1 9GU")
}
