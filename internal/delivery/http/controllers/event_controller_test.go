package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createResult *domain.Event
	createErr    error
	getResult    *domain.Event
	getErr       error
	updateResult *domain.Event
	updateErr    error
	deleteErr    error
	attendResult *domain.Event
	attendJoined bool
	attendErr    error
	listResult   []*domain.Event
	listErr      error
	icsResult    string
	icsErr       error

	lastCreatorID string
	lastInput     domain.CreateEventInput
	lastEventID   string
	lastCallerID  string
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return f.listResult, f.listErr
}

func (f *fakeEventService) WatchEvents(ctx context.Context) (<-chan []*domain.Event, func(), error) {
	ch := make(chan []*domain.Event, 1)
	ch <- f.listResult
	return ch, func() {}, f.listErr
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	f.lastEventID = eventID
	return f.getResult, f.getErr
}

func (f *fakeEventService) CreateEvent(ctx context.Context, creatorID string, in domain.CreateEventInput) (*domain.Event, error) {
	f.lastCreatorID = creatorID
	f.lastInput = in
	return f.createResult, f.createErr
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	return f.updateResult, f.updateErr
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	return f.deleteErr
}

func (f *fakeEventService) AttendEvent(ctx context.Context, eventID, userID string) (*domain.Event, bool, error) {
	f.lastEventID = eventID
	f.lastCallerID = userID
	return f.attendResult, f.attendJoined, f.attendErr
}

func (f *fakeEventService) ExportICS(ctx context.Context, eventID string) (string, error) {
	f.lastEventID = eventID
	return f.icsResult, f.icsErr
}

func sampleEvent(id, creator string, date time.Time) *domain.Event {
	e := domain.NewEvent("Taller", "desc", "loc", domain.NewEventDate(date), creator, time.Now())
	e.ID = id
	return e
}

// doRequest runs the handler through a mux so path values resolve, with the
// caller already authenticated.
func doRequest(t *testing.T, pattern string, handler http.HandlerFunc, method, target, userID string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if data != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.Error
}

func TestEventController_CreateEvent(t *testing.T) {
	t.Run("created with upcoming flag for a near date", func(t *testing.T) {
		svc := &fakeEventService{createResult: sampleEvent("ev-1", "user-1", time.Now().Add(24*time.Hour))}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{
			"title":       "Taller",
			"description": "desc",
			"location":    "loc",
			"date":        time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
		rec := doRequest(t, "POST /events", c.CreateEvent, http.MethodPost, "/events", "user-1", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp CreateEventResponse
		require.Nil(t, decodeEnvelope(t, rec, &resp))
		assert.True(t, resp.Upcoming)
		assert.Equal(t, "ev-1", resp.Event.ID)
		assert.Equal(t, "user-1", svc.lastCreatorID)
	})

	t.Run("far date is not upcoming", func(t *testing.T) {
		svc := &fakeEventService{createResult: sampleEvent("ev-1", "user-1", time.Now().Add(30*24*time.Hour))}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"title": "t", "description": "d", "location": "l", "date": "2099-01-01"})
		rec := doRequest(t, "POST /events", c.CreateEvent, http.MethodPost, "/events", "user-1", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp CreateEventResponse
		require.Nil(t, decodeEnvelope(t, rec, &resp))
		assert.False(t, resp.Upcoming)
	})

	t.Run("validation failure maps to 400", func(t *testing.T) {
		svc := &fakeEventService{createErr: domain.NewValidationError("title", "location")}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"title": "", "description": "d", "location": ""})
		rec := doRequest(t, "POST /events", c.CreateEvent, http.MethodPost, "/events", "user-1", body)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decodeEnvelope(t, rec, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeValidation, apiErr.Code)
		assert.Contains(t, apiErr.Message, "title")
	})

	t.Run("missing identity maps to 401", func(t *testing.T) {
		c := NewEventController(testLogger, &fakeEventService{})

		body, _ := json.Marshal(map[string]any{"title": "t", "description": "d", "location": "l"})
		rec := doRequest(t, "POST /events", c.CreateEvent, http.MethodPost, "/events", "", body)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEventController_GetEventByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &fakeEventService{getResult: sampleEvent("ev-1", "owner", time.Now())}
		c := NewEventController(testLogger, svc)

		rec := doRequest(t, "GET /events/{eventID}", c.GetEventByID, http.MethodGet, "/events/ev-1", "user-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var e domain.Event
		require.Nil(t, decodeEnvelope(t, rec, &e))
		assert.Equal(t, "ev-1", e.ID)
		assert.Equal(t, "ev-1", svc.lastEventID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEventService{getErr: domain.ErrNotFound}
		c := NewEventController(testLogger, svc)

		rec := doRequest(t, "GET /events/{eventID}", c.GetEventByID, http.MethodGet, "/events/missing", "user-1", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		apiErr := decodeEnvelope(t, rec, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeNotFound, apiErr.Code)
	})
}

func TestEventController_UpdateEvent(t *testing.T) {
	t.Run("forbidden for non-creator", func(t *testing.T) {
		svc := &fakeEventService{updateErr: domain.ErrForbidden}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"title": "nuevo"})
		rec := doRequest(t, "PATCH /events/{eventID}", c.UpdateEvent, http.MethodPatch, "/events/ev-1", "intruder", body)

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "intruder", svc.lastCallerID)
	})

	t.Run("updated", func(t *testing.T) {
		updated := sampleEvent("ev-1", "owner", time.Now())
		updated.Title = "nuevo"
		svc := &fakeEventService{updateResult: updated}
		c := NewEventController(testLogger, svc)

		body, _ := json.Marshal(map[string]any{"title": "nuevo"})
		rec := doRequest(t, "PATCH /events/{eventID}", c.UpdateEvent, http.MethodPatch, "/events/ev-1", "owner", body)

		require.Equal(t, http.StatusOK, rec.Code)
		var e domain.Event
		require.Nil(t, decodeEnvelope(t, rec, &e))
		assert.Equal(t, "nuevo", e.Title)
	})
}

func TestEventController_DeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	c := NewEventController(testLogger, svc)

	rec := doRequest(t, "DELETE /events/{eventID}", c.DeleteEvent, http.MethodDelete, "/events/ev-1", "owner", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ev-1", svc.lastEventID)
	assert.Equal(t, "owner", svc.lastCallerID)
}

func TestEventController_AttendEvent(t *testing.T) {
	t.Run("newly joined responds 201", func(t *testing.T) {
		e := sampleEvent("ev-1", "owner", time.Now())
		e.Attendees = append(e.Attendees, "visitor")
		svc := &fakeEventService{attendResult: e, attendJoined: true}
		c := NewEventController(testLogger, svc)

		rec := doRequest(t, "POST /events/{eventID}/attend", c.AttendEvent, http.MethodPost, "/events/ev-1/attend", "visitor", nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp AttendEventResponse
		require.Nil(t, decodeEnvelope(t, rec, &resp))
		assert.True(t, resp.Joined)
		assert.Equal(t, noticeJoined, resp.Notice)
	})

	t.Run("already attending responds 200 with notice", func(t *testing.T) {
		svc := &fakeEventService{attendResult: sampleEvent("ev-1", "owner", time.Now()), attendJoined: false}
		c := NewEventController(testLogger, svc)

		rec := doRequest(t, "POST /events/{eventID}/attend", c.AttendEvent, http.MethodPost, "/events/ev-1/attend", "owner", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp AttendEventResponse
		require.Nil(t, decodeEnvelope(t, rec, &resp))
		assert.False(t, resp.Joined)
		assert.Equal(t, noticeAlreadyAttending, resp.Notice)
	})
}

func TestEventController_ExportICS(t *testing.T) {
	svc := &fakeEventService{icsResult: "BEGIN:VCALENDAR\nEND:VCALENDAR"}
	c := NewEventController(testLogger, svc)

	rec := doRequest(t, "GET /events/{eventID}/ical", c.ExportICS, http.MethodGet, "/events/ev-1/ical", "user-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
}

func TestEventController_StreamEvents(t *testing.T) {
	svc := &fakeEventService{listResult: []*domain.Event{sampleEvent("ev-1", "owner", time.Now())}}
	c := NewEventController(testLogger, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	c.StreamEvents(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `data: `)
	assert.Contains(t, rec.Body.String(), `"ev-1"`)
}
