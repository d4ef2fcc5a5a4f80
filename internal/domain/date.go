package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// InvalidDatePlaceholder is rendered for event dates that cannot be decoded.
const InvalidDatePlaceholder = "Fecha no válida"

// EventDate is an event date as stored. The store is schemaless about this
// field: current rows hold RFC3339 text, legacy rows may hold a bare calendar
// date or epoch seconds. Raw keeps the stored value unchanged; Time and Valid
// carry the normalized form.
type EventDate struct {
	Raw   string
	Time  time.Time
	Valid bool
}

// NewEventDate returns a valid EventDate for t, stored as RFC3339 UTC.
func NewEventDate(t time.Time) EventDate {
	u := t.UTC().Truncate(time.Second)
	return EventDate{Raw: u.Format(time.RFC3339), Time: u, Valid: true}
}

// ParseEventDate normalizes a stored date value. It tries RFC3339 first, then
// the legacy shapes, and returns an invalid EventDate (never an error) when
// nothing matches, so a malformed row renders a placeholder instead of failing.
func ParseEventDate(raw string) EventDate {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return EventDate{Raw: raw, Time: t.UTC(), Valid: true}
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return EventDate{Raw: raw, Time: time.Unix(secs, 0).UTC(), Valid: true}
	}
	return EventDate{Raw: raw}
}

// Display returns the RFC3339 form of a valid date, or the placeholder.
func (d EventDate) Display() string {
	if !d.Valid {
		return InvalidDatePlaceholder
	}
	return d.Time.Format(time.RFC3339)
}

// MarshalJSON renders the normalized date, or the placeholder for rows whose
// stored value could not be decoded.
func (d EventDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Display())
}

// UnmarshalJSON accepts any of the supported raw shapes.
func (d *EventDate) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = ParseEventDate(raw)
	return nil
}
