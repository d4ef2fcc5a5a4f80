package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"communityevents/internal/delivery/http/controllers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	commentController *controllers.CommentController,
	authController *controllers.AuthController,
	dashboardController *controllers.DashboardController,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Events
	mux.HandleFunc("GET /events", auth(eventController.ListEvents))
	mux.HandleFunc("GET /events/stream", auth(eventController.StreamEvents))
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEventByID))
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/attend", auth(eventController.AttendEvent))
	mux.HandleFunc("GET /events/{eventID}/ical", auth(eventController.ExportICS))

	// Comments
	mux.HandleFunc("GET /events/{eventID}/comments", auth(commentController.ListComments))
	mux.HandleFunc("GET /events/{eventID}/comments/stream", auth(commentController.StreamComments))
	mux.HandleFunc("POST /events/{eventID}/comments", auth(commentController.AddComment))

	// Dashboard
	mux.HandleFunc("GET /dashboard/my-events", auth(dashboardController.MyEvents))

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("POST /auth/login/{provider}", authController.FederatedLogin)
	mux.HandleFunc("GET /auth/me", auth(authController.GetMe))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
