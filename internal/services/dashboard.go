package services

import (
	"context"
	"fmt"
	"time"

	"communityevents/internal/domain"
)

type dashboardService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewDashboardService(eventRepo domain.EventRepository, timeout time.Duration) domain.DashboardService {
	return &dashboardService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

// MyEvents is a one-shot query, not a live subscription: the dashboard is
// refreshed on focus.
func (s *dashboardService) MyEvents(ctx context.Context, userID string) ([]*domain.Event, []domain.TrendPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list my events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}

	trend := make([]domain.TrendPoint, 0, len(events))
	for i, e := range events {
		trend = append(trend, domain.TrendPoint{
			Label:     fmt.Sprintf("Ev%d", i+1),
			Attendees: len(e.Attendees),
		})
	}
	return events, trend, nil
}
