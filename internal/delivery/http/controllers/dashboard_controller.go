package controllers

import (
	"log/slog"
	"net/http"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
)

type DashboardController struct {
	Logger  *slog.Logger
	Service domain.DashboardService
}

func NewDashboardController(logger *slog.Logger, svc domain.DashboardService) *DashboardController {
	return &DashboardController{
		Logger:  logger,
		Service: svc,
	}
}

// DashboardResponse is the payload for GET /dashboard/my-events: the caller's own events
// plus an attendance data point per event, in creation order.
type DashboardResponse struct {
	Events []*domain.Event     `json:"events"`
	Trend  []domain.TrendPoint `json:"trend"`
}

// DashboardSuccessResponse is the success response envelope for GET /dashboard/my-events (200).
type DashboardSuccessResponse struct {
	Data  DashboardResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MyEvents godoc
// @Summary Creator dashboard
// @Description Returns the events created by the authenticated user and an attendance trend series (one point per event, creation order).
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.DashboardSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /dashboard/my-events [get]
func (c *DashboardController) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, trend, err := c.Service.MyEvents(r.Context(), userID)
	if writeDomainError(w, r, c.Logger, err, "event not found") {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DashboardResponse{Events: events, Trend: trend})
}
