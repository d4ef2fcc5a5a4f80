// Package seed populates an empty database with sample events for local
// development and demos.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"communityevents/internal/domain"
)

const seedCreator = "admin"

type sampleEvent struct {
	title       string
	description string
	location    string
	date        string
}

var sampleEvents = []sampleEvent{
	{
		title:       "Taller de Programación",
		description: "Aprende los fundamentos de la programación en este taller práctico.",
		location:    "Centro Comunitario Principal",
		date:        "2024-12-20",
	},
	{
		title:       "Limpieza del Parque",
		description: "Únete a la comunidad para limpiar y mantener nuestro parque local.",
		location:    "Parque Central",
		date:        "2024-12-15",
	},
	{
		title:       "Festival de Arte",
		description: "Exhibición de arte local con música en vivo y comida.",
		location:    "Plaza Principal",
		date:        "2024-12-25",
	},
}

// Run inserts the sample events if the events table is empty. It reports
// whether anything was inserted.
func Run(ctx context.Context, logger *slog.Logger, repo domain.EventRepository) (bool, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: listing events: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("database already contains events, skipping seed", "count", len(existing))
		return false, nil
	}

	now := time.Now()
	for _, s := range sampleEvents {
		event := domain.NewEvent(s.title, s.description, s.location, domain.ParseEventDate(s.date), seedCreator, now)
		if err := repo.Create(ctx, event); err != nil {
			return false, fmt.Errorf("seed: creating event %q: %w", s.title, err)
		}
	}
	logger.Info("database initialized with sample events", "count", len(sampleEvents))
	return true, nil
}
