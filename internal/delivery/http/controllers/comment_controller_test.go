package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommentService implements domain.CommentService for handler tests.
type fakeCommentService struct {
	listResult []*domain.Comment
	listErr    error
	addResult  *domain.Comment
	addErr     error

	lastEventID string
	lastUserID  string
	lastText    string
	lastScore   int
}

func (f *fakeCommentService) ListComments(ctx context.Context, eventID string) ([]*domain.Comment, error) {
	f.lastEventID = eventID
	return f.listResult, f.listErr
}

func (f *fakeCommentService) WatchComments(ctx context.Context, eventID string) (<-chan []*domain.Comment, func(), error) {
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	ch := make(chan []*domain.Comment, 1)
	ch <- f.listResult
	return ch, func() {}, nil
}

func (f *fakeCommentService) AddComment(ctx context.Context, eventID, userID, text string, score int) (*domain.Comment, error) {
	f.lastEventID = eventID
	f.lastUserID = userID
	f.lastText = text
	f.lastScore = score
	return f.addResult, f.addErr
}

func TestCommentController_AddComment(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		comment := domain.NewComment("ev-1", "user-1", "Ana", "buen evento", 5, time.Now())
		comment.ID = "c-1"
		svc := &fakeCommentService{addResult: comment}
		c := NewCommentController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"text": "buen evento", "score": 5})
		rec := doRequest(t, "POST /events/{eventID}/comments", c.AddComment, http.MethodPost, "/events/ev-1/comments", "user-1", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var got domain.Comment
		require.Nil(t, decodeEnvelope(t, rec, &got))
		assert.Equal(t, "Ana", got.UserName)
		assert.Equal(t, "ev-1", svc.lastEventID)
		assert.Equal(t, 5, svc.lastScore)
	})

	t.Run("duplicate comment maps to 409", func(t *testing.T) {
		svc := &fakeCommentService{addErr: domain.ErrDuplicateComment}
		c := NewCommentController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"text": "otra vez", "score": 2})
		rec := doRequest(t, "POST /events/{eventID}/comments", c.AddComment, http.MethodPost, "/events/ev-1/comments", "user-1", body)

		require.Equal(t, http.StatusConflict, rec.Code)
		apiErr := decodeEnvelope(t, rec, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeDuplicateComment, apiErr.Code)
	})

	t.Run("out-of-range score maps to 400", func(t *testing.T) {
		svc := &fakeCommentService{addErr: domain.NewValidationError("score")}
		c := NewCommentController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"text": "ok", "score": 9})
		rec := doRequest(t, "POST /events/{eventID}/comments", c.AddComment, http.MethodPost, "/events/ev-1/comments", "user-1", body)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decodeEnvelope(t, rec, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeValidation, apiErr.Code)
	})

	t.Run("unknown event maps to 404", func(t *testing.T) {
		svc := &fakeCommentService{addErr: domain.ErrNotFound}
		c := NewCommentController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"text": "ok", "score": 3})
		rec := doRequest(t, "POST /events/{eventID}/comments", c.AddComment, http.MethodPost, "/events/missing/comments", "user-1", body)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCommentController_ListComments(t *testing.T) {
	comment := domain.NewComment("ev-1", "user-1", "Ana", "texto", 4, time.Now())
	svc := &fakeCommentService{listResult: []*domain.Comment{comment}}
	c := NewCommentController(testLogger, svc)

	rec := doRequest(t, "GET /events/{eventID}/comments", c.ListComments, http.MethodGet, "/events/ev-1/comments", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []*domain.Comment
	require.Nil(t, decodeEnvelope(t, rec, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "texto", got[0].Text)
}
