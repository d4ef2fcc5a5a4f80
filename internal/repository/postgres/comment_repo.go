package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"communityevents/internal/domain"
)

const uniqueViolation = "23505"

type commentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) domain.CommentRepository {
	return &commentRepository{
		DB: db,
	}
}

func (r *commentRepository) Create(ctx context.Context, c *domain.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `
		INSERT INTO comments (id, event_id, user_id, user_name, text, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.EventID, c.UserID, c.UserName, c.Text, c.Score, c.CreatedAt)
	if err != nil {
		// The unique index on (event_id, user_id) enforces one comment per
		// user per event; surface it as the domain rule.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.ErrDuplicateComment
		}
		return err
	}
	return nil
}

func (r *commentRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Comment, error) {
	query := `
		SELECT id, event_id, user_id, user_name, text, score, created_at
		FROM comments
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		c := &domain.Comment{}
		if err := rows.Scan(&c.ID, &c.EventID, &c.UserID, &c.UserName, &c.Text, &c.Score, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *commentRepository) HasCommentByUser(ctx context.Context, eventID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM comments WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
