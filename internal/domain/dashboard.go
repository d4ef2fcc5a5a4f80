package domain

import "context"

// TrendPoint is one point of the attendance trend chart on the personal
// dashboard: the Nth created event and its confirmed attendee count.
// swagger:model TrendPoint
type TrendPoint struct {
	Label     string `json:"label"`
	Attendees int    `json:"attendees"`
}

// DashboardService serves the personal dashboard: a one-shot list of the
// events the user created plus the attendance trend series.
type DashboardService interface {
	MyEvents(ctx context.Context, userID string) ([]*Event, []TrendPoint, error)
}
