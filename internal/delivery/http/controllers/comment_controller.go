package controllers

import (
	"log/slog"
	"net/http"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
)

type CommentController struct {
	Logger  *slog.Logger
	Service domain.CommentService
}

func NewCommentController(logger *slog.Logger, svc domain.CommentService) *CommentController {
	return &CommentController{
		Logger:  logger,
		Service: svc,
	}
}

// ListCommentsSuccessResponse is the success response envelope for GET /events/{eventID}/comments (200).
type ListCommentsSuccessResponse struct {
	Data  []*domain.Comment `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListComments godoc
// @Summary List comments for an event
// @Description Returns the event's comments, newest first. For live updates use GET /events/{eventID}/comments/stream.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListCommentsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/comments [get]
func (c *CommentController) ListComments(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	comments, err := c.Service.ListComments(r.Context(), eventID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, comments)
}

// StreamComments godoc
// @Summary Live comment stream for an event
// @Description Server-sent events: each message is the event's full comment list, newest first, re-sent after every new comment. The first message is the current snapshot.
// @Tags comments
// @Produce text/event-stream
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "SSE stream of comment list snapshots"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/comments/stream [get]
func (c *CommentController) StreamComments(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "streaming unsupported")
		return
	}
	snapshots, cancel, err := c.Service.WatchComments(r.Context(), eventID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	defer cancel()

	streamSnapshots(w, r, flusher, snapshots)
}

// AddCommentRequest is the request body for POST /events/{eventID}/comments.
type AddCommentRequest struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// AddCommentSuccessResponse is the success response envelope for POST /events/{eventID}/comments (201).
type AddCommentSuccessResponse struct {
	Data  *domain.Comment   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AddComment godoc
// @Summary Add a comment with a score
// @Description Adds a comment for the authenticated user. Text must be non-blank, score between 1 and 5, and each user may comment at most once per event.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param comment body AddCommentRequest true "Comment text and score"
// @Success 201 {object} controllers.AddCommentSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_comment"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/comments [post]
func (c *CommentController) AddComment(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req AddCommentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	comment, err := c.Service.AddComment(r.Context(), eventID, userID, req.Text, req.Score)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, comment)
}
