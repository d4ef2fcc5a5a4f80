package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"communityevents/internal/domain"
)

const eventColumns = "id, title, description, location, date, attendees, created_by, created_at, updated_at"

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// Document ids are minted here rather than by the database, matching the
// schemaless-store model where the client names new documents.
func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO events (id, title, description, location, date, attendees, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.Date.Raw,
		pq.Array(e.Attendees), e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func scanEvent(row interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var rawDate string
	var attendees pq.StringArray
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &rawDate,
		&attendees, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Date = domain.ParseEventDate(rawDate)
	e.Attendees = []string(attendees)
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	// RFC3339 UTC text sorts chronologically; legacy raw values sort after
	// their decoded position, which callers tolerate.
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC, created_at ASC`
	return r.queryEvents(ctx, query)
}

func (r *eventRepository) ListByCreator(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE created_by = $1 ORDER BY created_at ASC`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if upd.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *upd.Title)
		n++
	}
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *upd.Description)
		n++
	}
	if upd.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", n))
		args = append(args, *upd.Location)
		n++
	}
	if upd.Date != nil {
		setClauses = append(setClauses, fmt.Sprintf("date = $%d", n))
		args = append(args, upd.Date.Raw)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING `+eventColumns+`
	`, strings.Join(setClauses, ", "), n)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddAttendee locks the row so the check and the append commit together:
// concurrent attends for the same user cannot both observe the user absent.
func (r *eventRepository) AddAttendee(ctx context.Context, eventID, userID string) (*domain.Event, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	e, err := scanEvent(tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, err
	}

	if e.HasAttendee(userID) {
		return e, false, nil
	}

	e.Attendees = append(e.Attendees, userID)
	update := `UPDATE events SET attendees = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	if err := tx.QueryRowContext(ctx, update, pq.Array(e.Attendees), eventID).Scan(&e.UpdatedAt); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return e, true, nil
}
