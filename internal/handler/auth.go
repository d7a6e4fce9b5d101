// Package handler contains the HTTP request handlers. Handlers parse
// requests, call the service layer, and write responses — no business logic
// and no SQL.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/auth"
	"github.com/sakif/pinmap/internal/service"
)

// AuthHandler serves registration, login and the authenticated account
// endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		validate: validator.New(),
		logger:   logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /register {username, email, password}
// Responses: 201 {token} | 400 validation or duplicate email.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// HandleLogin authenticates an existing account.
//
// HTTP: POST /login {email, password}
// Responses: 200 {token} | 400 invalid credentials (same body for unknown
// email and wrong password).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// HandleMap is the token smoke-test endpoint the map page calls on load.
//
// HTTP: GET /map (bearer token)
// Responses: 200 {message, user} | 401.
func (h *AuthHandler) HandleMap(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the map!",
		"user":    user.Email,
	})
}

// HandleDeleteAccount deletes the caller's account. Their markers and votes
// cascade at the store.
//
// HTTP: DELETE /me (bearer token)
// Responses: 200 {message} | 401.
func (h *AuthHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), user.ID); err != nil {
		h.logger.Error("account deletion failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// decodeAndValidate decodes the JSON body into req and runs the struct's
// validate tags. Both failure modes come back as a 400-mapped validation
// error.
func (h *AuthHandler) decodeAndValidate(r *http.Request, req interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.logger.Warn("invalid JSON body", slog.String("error", err.Error()))
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperror.ValidationFailed("body", err.Error())
	}
	return nil
}
