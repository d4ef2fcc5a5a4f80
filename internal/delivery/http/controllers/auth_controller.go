package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
)

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *AuthController) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidation, vErr.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
	default:
		c.Logger.ErrorContext(r.Context(), "auth request failed", "path", r.URL.Path, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// SignUpRequest is the request body for POST /auth/signup.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// AuthResponse is the payload returned on successful sign-up or sign-in.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// AuthSuccessResponse is the success response envelope for auth endpoints.
type AuthSuccessResponse struct {
	Data  AuthResponse      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SignUp godoc
// @Summary Register with email and password
// @Description Creates a user account and returns a bearer token. Email must be unique; password at least 8 characters.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignUpRequest true "Registration fields"
// @Success 201 {object} controllers.AuthSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid email or short password)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (email taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup [post]
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		c.writeAuthError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Sign in with email and password
// @Description Verifies credentials and returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} controllers.AuthSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized (invalid credentials)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		c.writeAuthError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// FederatedLoginRequest is the request body for POST /auth/login/{provider}.
type FederatedLoginRequest struct {
	AccessToken string `json:"access_token"`
}

func (r *FederatedLoginRequest) Validate() []string {
	if strings.TrimSpace(r.AccessToken) == "" {
		return []string{"access_token is required"}
	}
	return nil
}

// FederatedLogin godoc
// @Summary Sign in with Google or Facebook
// @Description Validates the provider access token, creates the account on first sign-in, and returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param provider path string true "Provider" Enums(google, facebook)
// @Param body body FederatedLoginRequest true "Provider access token"
// @Success 200 {object} controllers.AuthSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error (missing access_token) or bad_request (unknown provider)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized (token rejected by provider)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login/{provider} [post]
func (c *AuthController) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(r.PathValue("provider"))
	var req FederatedLoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.FederatedLogin(r.Context(), provider, req.AccessToken)
	if err != nil {
		c.writeAuthError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// GetMeSuccessResponse is the success response envelope for GET /auth/me (200).
type GetMeSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetMe godoc
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GetMeSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/me [get]
func (c *AuthController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.GetUser(r.Context(), userID)
	if err != nil {
		c.writeAuthError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}
