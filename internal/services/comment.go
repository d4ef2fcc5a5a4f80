package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"communityevents/internal/domain"
	"communityevents/internal/live"
)

type commentService struct {
	commentRepo    domain.CommentRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	hub            *live.Hub[[]*domain.Comment]
	contextTimeout time.Duration
}

func NewCommentService(commentRepo domain.CommentRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	hub *live.Hub[[]*domain.Comment],
	timeout time.Duration,
) domain.CommentService {
	return &commentService{
		commentRepo:    commentRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		hub:            hub,
		contextTimeout: timeout,
	}
}

func (s *commentService) ListComments(ctx context.Context, eventID string) ([]*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.commentRepo.ListByEventID(ctx, eventID)
}

func (s *commentService) WatchComments(ctx context.Context, eventID string) (<-chan []*domain.Comment, func(), error) {
	ctx, cancelCtx := context.WithTimeout(ctx, s.contextTimeout)
	defer cancelCtx()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	initial, err := s.commentRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list comments: %w", err)
	}
	updates, cancelSub := s.hub.Subscribe(eventID)
	return forwardSnapshots(initial, updates, cancelSub)
}

func (s *commentService) publish(ctx context.Context, eventID string) {
	comments, err := s.commentRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return
	}
	s.hub.Publish(eventID, comments)
}

// authorName resolves the display name shown next to the comment.
func (s *commentService) authorName(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.UnknownUserName
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return domain.AnonymousUserName
	}
	return user.DisplayName
}

func (s *commentService) AddComment(ctx context.Context, eventID, userID, text string, score int) (*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var fields []string
	if strings.TrimSpace(text) == "" {
		fields = append(fields, "text")
	}
	if score < domain.MinScore || score > domain.MaxScore {
		fields = append(fields, "score")
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Advisory pre-check; the unique index backs it up if two writers race.
	exists, err := s.commentRepo.HasCommentByUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("check existing comment: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateComment
	}

	comment := domain.NewComment(eventID, userID, s.authorName(ctx, userID), text, score, time.Now())
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, domain.ErrDuplicateComment) {
			return nil, domain.ErrDuplicateComment
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.publish(ctx, eventID)
	return comment, nil
}
