package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"communityevents/internal/domain"
	"communityevents/internal/live"
)

type eventService struct {
	eventRepo      domain.EventRepository
	calendar       domain.CalendarRenderer
	broker         *live.Broker[[]*domain.Event]
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	calendar domain.CalendarRenderer,
	broker *live.Broker[[]*domain.Event],
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		calendar:       calendar,
		broker:         broker,
		contextTimeout: timeout,
	}
}

// blankEventFields returns the names of blank required fields. Nil fields are
// absent from a partial update and not checked.
func blankEventFields(title, description, location *string) []string {
	var fields []string
	if title != nil && strings.TrimSpace(*title) == "" {
		fields = append(fields, "title")
	}
	if description != nil && strings.TrimSpace(*description) == "" {
		fields = append(fields, "description")
	}
	if location != nil && strings.TrimSpace(*location) == "" {
		fields = append(fields, "location")
	}
	return fields
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.List(ctx)
}

func (s *eventService) WatchEvents(ctx context.Context) (<-chan []*domain.Event, func(), error) {
	ctx, cancelCtx := context.WithTimeout(ctx, s.contextTimeout)
	defer cancelCtx()

	initial, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list events: %w", err)
	}
	updates, cancelSub := s.broker.Subscribe()
	return forwardSnapshots(initial, updates, cancelSub)
}

// forwardSnapshots prepends the initial snapshot to the update stream and
// keeps the broker's latest-wins delivery on the outgoing channel.
func forwardSnapshots[T any](initial T, updates <-chan T, cancelSub func()) (<-chan T, func(), error) {
	out := make(chan T, 1)
	out <- initial

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelSub()
			close(done)
		})
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- snap:
				default:
					select {
					case <-out:
					default:
					}
					select {
					case out <- snap:
					default:
					}
				}
			}
		}
	}()
	return out, cancel, nil
}

// publish pushes a fresh ordered snapshot to all watchers. Best-effort: a
// failed re-query only delays watchers until the next write.
func (s *eventService) publish(ctx context.Context) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return
	}
	s.broker.Publish(events)
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) CreateEvent(ctx context.Context, creatorID string, in domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if creatorID == "" {
		return nil, fmt.Errorf("event creator is required")
	}
	if fields := blankEventFields(&in.Title, &in.Description, &in.Location); len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	event := domain.NewEvent(in.Title, in.Description, in.Location, in.Date, creatorID, time.Now())
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.publish(ctx)
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if fields := blankEventFields(upd.Title, upd.Description, upd.Location); len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatedBy != callerID {
		return nil, domain.ErrForbidden
	}
	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.publish(ctx)
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Already gone; deletion is idempotent for the caller.
			return nil
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.CreatedBy != callerID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.publish(ctx)
	return nil
}

func (s *eventService) AttendEvent(ctx context.Context, eventID, userID string) (*domain.Event, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, joined, err := s.eventRepo.AddAttendee(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("add attendee: %w", err)
	}
	if joined {
		s.publish(ctx)
	}
	return event, joined, nil
}

func (s *eventService) ExportICS(ctx context.Context, eventID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get event: %w", err)
	}
	ics, err := s.calendar.RenderEvent(event)
	if err != nil {
		return "", fmt.Errorf("render calendar: %w", err)
	}
	return ics, nil
}
