package exporter

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"pctrack/pkg/api"
)

// GenerateICS creates an ICS calendar from completed journeys and writes it
// to the provided writer. Active journeys have no end time and are skipped.
func GenerateICS(journeys []api.Journey, w io.Writer) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, j := range journeys {
		startTime, ok := j.StartedAt()
		if !ok {
			continue // Skip malformed times
		}
		endTime, ok := j.EndedAt()
		if !ok {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%d", startTime.Format("20060102T150405Z"), j.ID))
		event.SetCreatedTime(time.Now())
		event.SetDtStampTime(time.Now())
		event.SetModifiedAt(time.Now())
		event.SetStartAt(startTime)
		event.SetEndAt(endTime)
		event.SetSummary(journeySummary(j))
		event.SetLocation(j.StartPostcode)

		description := fmt.Sprintf("From: %s\nTo: %s", j.StartPostcode, endPostcodeText(j))
		if j.DistanceMiles != nil {
			description += fmt.Sprintf("\nDistance: %s", j.FormattedDistance())
		}
		event.SetDescription(description)
	}

	return cal.SerializeTo(w)
}

func journeySummary(j api.Journey) string {
	if label := j.LabelText(); label != "" {
		return label
	}
	return fmt.Sprintf("Journey %s to %s", j.StartPostcode, endPostcodeText(j))
}

func endPostcodeText(j api.Journey) string {
	if j.EndPostcode == nil {
		return ""
	}
	return *j.EndPostcode
}
