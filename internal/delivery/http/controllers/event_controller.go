package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
)

// upcomingWindow is how close an event date must be for the create response to
// flag it as upcoming.
const upcomingWindow = 72 * time.Hour

// Notices surfaced to the client for informational (non-error) outcomes.
const (
	noticeAlreadyAttending = "Ya estás inscrito en este evento."
	noticeJoined           = "¡Te has inscrito correctamente!"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// writeDomainError maps shared service errors to the JSON envelope. Returns
// false when err was nil.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidation, vErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrDuplicateComment):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeDuplicateComment, "ya has comentado este evento")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
	return true
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEvents godoc
// @Summary List all events
// @Description Returns all events ordered ascending by date. For live updates use GET /events/stream.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// StreamEvents godoc
// @Summary Live event list stream
// @Description Server-sent events: each message is the full event list, ordered ascending by date, re-sent after every change. The first message is the current snapshot.
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "SSE stream of event list snapshots"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/stream [get]
func (c *EventController) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "streaming unsupported")
		return
	}
	snapshots, cancel, err := c.Service.WatchEvents(r.Context())
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	defer cancel()

	streamSnapshots(w, r, flusher, snapshots)
}

// streamSnapshots writes each snapshot as one SSE data message until the
// client disconnects or the stream closes.
func streamSnapshots[T any](w http.ResponseWriter, r *http.Request, flusher http.Flusher, snapshots <-chan T) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// GetEventSuccessResponse is the success response envelope for GET /events/{eventID} (200).
type GetEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetEventByID godoc
// @Summary Get an event by ID
// @Description Returns a single event snapshot. Requires authentication.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.GetEventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEventByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Date        domain.EventDate `json:"date"`
}

// CreateEventResponse is the payload for a created event. Upcoming is true
// when the event date falls within the next three days.
type CreateEventResponse struct {
	Event    *domain.Event `json:"event"`
	Upcoming bool          `json:"upcoming"`
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  CreateEventResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Creates an event owned by the authenticated user, who becomes its first attendee. Blank title, description, or location fail validation and nothing is written.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event fields"
// @Success 201 {object} controllers.CreateEventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error (blank fields named in message)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, domain.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
	})
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	upcoming := false
	if event.Date.Valid {
		until := time.Until(event.Date.Time)
		upcoming = until >= 0 && until <= upcomingWindow
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateEventResponse{Event: event, Upcoming: upcoming})
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Location    *string           `json:"location"`
	Date        *domain.EventDate `json:"date"`
}

// UpdateEventSuccessResponse is the success response envelope for PATCH /events/{eventID} (200).
type UpdateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UpdateEvent godoc
// @Summary Update event details
// @Description Updates title, description, location, and/or date. Only the event creator may update; provided fields must be non-blank. Requires authentication.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.UpdateEventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, userID, domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
	})
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event. Only the creator may delete; deleting an event that is already gone succeeds. Requires authentication.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	err := c.Service.DeleteEvent(r.Context(), eventID, userID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttendEventResponse is the payload for POST /events/{eventID}/attend.
type AttendEventResponse struct {
	Event  *domain.Event `json:"event"`
	Joined bool          `json:"joined"`
	Notice string        `json:"notice"`
}

// AttendEventSuccessResponse is the success response envelope for POST /events/{eventID}/attend (200 or 201).
type AttendEventSuccessResponse struct {
	Data  AttendEventResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// AttendEvent godoc
// @Summary Confirm attendance for an event
// @Description Appends the authenticated user to the event's attendees. Idempotent: 201 when newly joined, 200 with an informational notice when already attending.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.AttendEventSuccessResponse "Already attending"
// @Success 201 {object} controllers.AttendEventSuccessResponse "Newly joined"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attend [post]
func (c *EventController) AttendEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, joined, err := c.Service.AttendEvent(r.Context(), eventID, userID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	resp := AttendEventResponse{Event: event, Joined: joined, Notice: noticeJoined}
	status := http.StatusCreated
	if !joined {
		resp.Notice = noticeAlreadyAttending
		status = http.StatusOK
	}
	helpers.WriteJSONSuccess(w, status, resp)
}

// ExportICS godoc
// @Summary Export an event as iCalendar
// @Description Returns the event as a text/calendar document for import into external calendars.
// @Tags events
// @Produce text/calendar
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "iCalendar document"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/ical [get]
func (c *EventController) ExportICS(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	ics, err := c.Service.ExportICS(r.Context(), eventID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event-"+eventID+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}
