package api

import (
	"fmt"
	"time"
)

// Journey represents a single tracked trip between two UK postcodes.
// Timestamps arrive as ISO-8601 strings, with or without fractional seconds
// and a trailing zone marker, so they are kept raw and parsed on demand.
type Journey struct {
	ID             int      `json:"id"`
	UserID         int      `json:"user_id,omitempty"`
	StartPostcode  string   `json:"start_postcode"`
	EndPostcode    *string  `json:"end_postcode,omitempty"`
	StartTime      string   `json:"start_time"`
	EndTime        *string  `json:"end_time,omitempty"`
	StartLatitude  *float64 `json:"start_latitude,omitempty"`
	StartLongitude *float64 `json:"start_longitude,omitempty"`
	EndLatitude    *float64 `json:"end_latitude,omitempty"`
	EndLongitude   *float64 `json:"end_longitude,omitempty"`
	DistanceMiles  *float64 `json:"distance_miles,omitempty"`
	IsActive       bool     `json:"is_active"`
	IsManual       bool     `json:"is_manual,omitempty"`
	Label          *string  `json:"label,omitempty"`
}

// serverTimeLayouts covers the timestamp shapes the backend has been seen to
// emit: with and without sub-second precision, with and without a zone.
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseServerTime parses one of the backend's timestamp variants. Zoneless
// values are taken as UTC.
func ParseServerTime(s string) (time.Time, error) {
	for _, layout := range serverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// StartedAt parses the journey's start timestamp.
func (j Journey) StartedAt() (time.Time, bool) {
	t, err := ParseServerTime(j.StartTime)
	return t, err == nil
}

// EndedAt parses the journey's end timestamp, absent while in progress.
func (j Journey) EndedAt() (time.Time, bool) {
	if j.EndTime == nil {
		return time.Time{}, false
	}
	t, err := ParseServerTime(*j.EndTime)
	return t, err == nil
}

// Duration renders the elapsed time as "2h 15m" or "45m", empty when either
// endpoint is missing or unparseable.
func (j Journey) Duration() string {
	start, ok := j.StartedAt()
	if !ok {
		return ""
	}
	end, ok := j.EndedAt()
	if !ok {
		return ""
	}

	total := int(end.Sub(start).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormattedDistance renders the computed distance, or a placeholder while
// the server has not calculated one.
func (j Journey) FormattedDistance() string {
	if j.DistanceMiles == nil {
		return "Distance not calculated"
	}
	return fmt.Sprintf("%.2f miles", *j.DistanceMiles)
}

// LabelText returns the label or "".
func (j Journey) LabelText() string {
	if j.Label == nil {
		return ""
	}
	return *j.Label
}

// Profile is the authenticated user's profile with aggregate journey stats.
type Profile struct {
	ID                 int     `json:"id"`
	Username           string  `json:"username"`
	TotalJourneys      int     `json:"total_journeys"`
	TotalDistanceMiles float64 `json:"total_distance_miles"`
}

// Response wrappers for the JSON envelopes the backend uses.

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

// errorResponse covers both error envelope spellings the backend emits.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// JourneyActionResponse is returned by start, end, manual-create and label
// update. A success=false body carries a user-facing message.
type JourneyActionResponse struct {
	Success bool     `json:"success"`
	Journey *Journey `json:"journey,omitempty"`
	Message string   `json:"message,omitempty"`
}

type ActiveJourneyResponse struct {
	Success bool     `json:"success"`
	Active  bool     `json:"active"`
	Journey *Journey `json:"journey,omitempty"`
}

type JourneysResponse struct {
	Success  bool      `json:"success"`
	Journeys []Journey `json:"journeys"`
}

type PostcodeResponse struct {
	Success  bool   `json:"success"`
	Postcode string `json:"postcode,omitempty"`
	Message  string `json:"message,omitempty"`
}

type DistanceResponse struct {
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}
