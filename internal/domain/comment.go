package domain

import (
	"context"
	"time"
)

// Display-name fallbacks for comments whose author has no profile name.
const (
	AnonymousUserName = "Anónimo"
	UnknownUserName   = "Usuario desconocido"
)

// Comment score bounds (star rating).
const (
	MinScore = 1
	MaxScore = 5
)

// Comment is a rated comment on an event. Each user may leave at most one
// comment per event; comments are never edited or deleted.
// swagger:model Comment
type Comment struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment returns a new Comment. ID is minted by the repository on create.
func NewComment(eventID, userID, userName, text string, score int, now time.Time) *Comment {
	if userName == "" {
		userName = AnonymousUserName
	}
	return &Comment{
		EventID:   eventID,
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		Score:     score,
		CreatedAt: now,
	}
}

// CommentRepository defines storage for the per-event comment sub-collection.
type CommentRepository interface {
	// Create inserts the comment. A second comment by the same user on the
	// same event fails with ErrDuplicateComment.
	Create(ctx context.Context, comment *Comment) error
	// ListByEventID returns the event's comments ordered newest first.
	ListByEventID(ctx context.Context, eventID string) ([]*Comment, error)
	HasCommentByUser(ctx context.Context, eventID, userID string) (bool, error)
}

// CommentService defines the business logic for event comments.
type CommentService interface {
	ListComments(ctx context.Context, eventID string) ([]*Comment, error)
	// WatchComments subscribes to the live comment list of one event; same
	// contract as EventService.WatchEvents.
	WatchComments(ctx context.Context, eventID string) (<-chan []*Comment, func(), error)
	// AddComment records userID's single rated comment on the event. The
	// author's display name is resolved from the user store, falling back to
	// AnonymousUserName (blank profile name) or UnknownUserName (lookup
	// failure).
	AddComment(ctx context.Context, eventID, userID, text string, score int) (*Comment, error)
}
