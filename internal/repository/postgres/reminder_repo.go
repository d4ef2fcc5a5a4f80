package postgres

import (
	"context"
	"database/sql"

	"communityevents/internal/domain"
)

type reminderRepository struct {
	DB *sql.DB
}

func NewReminderRepository(db *sql.DB) domain.ReminderRepository {
	return &reminderRepository{
		DB: db,
	}
}

func (r *reminderRepository) MarkSent(ctx context.Context, eventID string) (bool, error) {
	query := `
		INSERT INTO event_reminders (event_id, sent_at)
		VALUES ($1, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
