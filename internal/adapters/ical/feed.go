// Package ical renders events as iCalendar documents so attendees can import
// them into their own calendars.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"communityevents/internal/domain"
)

const prodID = "-//communityevents//eventsd//ES"

// defaultDuration is used for the VEVENT end; events carry only a start date.
const defaultDuration = 2 * time.Hour

type renderer struct{}

// NewRenderer returns a CalendarRenderer producing one VEVENT per event.
func NewRenderer() domain.CalendarRenderer {
	return &renderer{}
}

func (r *renderer) RenderEvent(e *domain.Event) (string, error) {
	if !e.Date.Valid {
		return "", fmt.Errorf("event %s has no decodable date", e.ID)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)

	ev := cal.AddEvent(e.ID)
	ev.SetCreatedTime(e.CreatedAt)
	ev.SetDtStampTime(e.UpdatedAt)
	ev.SetStartAt(e.Date.Time)
	ev.SetEndAt(e.Date.Time.Add(defaultDuration))
	ev.SetSummary(e.Title)
	ev.SetDescription(e.Description)
	ev.SetLocation(e.Location)

	return cal.Serialize(), nil
}
