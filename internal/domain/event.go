package domain

import (
	"context"
	"time"
)

// Event represents a community event document.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        EventDate `json:"date"`
	Attendees   []string  `json:"attendees"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event created by creatorID. The creator is the first
// attendee. ID is minted by the repository on create.
func NewEvent(title, description, location string, date EventDate, creatorID string, now time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Location:    location,
		Date:        date,
		Attendees:   []string{creatorID},
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasAttendee reports whether userID has confirmed attendance.
func (e *Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// EventUpdate carries the mutable event fields for a partial update.
// Nil fields are left unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	Location    *string
	Date        *EventDate
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns all events ordered ascending by date.
	List(ctx context.Context) ([]*Event, error)
	// ListByCreator returns the events created by userID in creation order.
	ListByCreator(ctx context.Context, userID string) ([]*Event, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error
	// AddAttendee appends userID to the event's attendees unless already
	// present. It returns the resulting event and whether the user was newly
	// added. The check and the append run in one transaction.
	AddAttendee(ctx context.Context, eventID, userID string) (*Event, bool, error)
}

// CreateEventInput holds the fields accepted by CreateEvent.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Date        EventDate
}

// CalendarRenderer renders an event as an iCalendar document.
type CalendarRenderer interface {
	RenderEvent(event *Event) (string, error)
}

// EventService defines the business logic for the events collection.
type EventService interface {
	ListEvents(ctx context.Context) ([]*Event, error)
	// WatchEvents subscribes to the live event list. The channel first carries
	// the current snapshot, then a fresh ordered snapshot after every write.
	// The returned cancel func must be called when the consumer goes away.
	WatchEvents(ctx context.Context) (<-chan []*Event, func(), error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	CreateEvent(ctx context.Context, creatorID string, in CreateEventInput) (*Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID string, upd EventUpdate) (*Event, error)
	// DeleteEvent removes the event. Deleting an event that is already gone is
	// treated as success.
	DeleteEvent(ctx context.Context, eventID, callerID string) error
	// AttendEvent confirms attendance. Returns (event, joined, err): joined is
	// false when the user was already attending, which is a notice, not an
	// error.
	AttendEvent(ctx context.Context, eventID, userID string) (*Event, bool, error)
	ExportICS(ctx context.Context, eventID string) (string, error)
}
