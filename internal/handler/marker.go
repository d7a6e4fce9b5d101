package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/auth"
	"github.com/sakif/pinmap/internal/model"
	"github.com/sakif/pinmap/internal/service"
)

// MarkerHandler serves the marker CRUD and vote endpoints. Every route is
// behind auth.RequireAuth, so handlers can assume a user in the context.
type MarkerHandler struct {
	markers  *service.MarkerService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewMarkerHandler creates a MarkerHandler.
func NewMarkerHandler(markers *service.MarkerService, logger *slog.Logger) *MarkerHandler {
	return &MarkerHandler{
		markers:  markers,
		validate: validator.New(),
		logger:   logger,
	}
}

// createMarkerRequest uses pointer fields so that a missing or null lat/lng
// is distinguishable from a legitimate 0.0 — the equator is a valid place
// for a marker.
type createMarkerRequest struct {
	MarkerName *string  `json:"markerName" validate:"required"`
	Lat        *float64 `json:"lat"        validate:"required"`
	Lng        *float64 `json:"lng"        validate:"required"`
}

// HandleList returns every marker with its owner's username.
//
// HTTP: GET /markers (bearer token)
// Responses: 200 [marker...] | 401.
func (h *MarkerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	markers, err := h.markers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, markers)
}

// HandleCreate places a new marker owned by the caller.
//
// HTTP: POST /markers {markerName, lat, lng} (bearer token)
// Responses: 201 marker | 400 missing/null field | 401.
func (h *MarkerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	var req createMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid marker JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "missing marker data"))
		return
	}

	marker, err := h.markers.Create(r.Context(), user.ID, *req.MarkerName, *req.Lat, *req.Lng)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, marker)
}

// HandleLike records the caller's like on a marker.
//
// HTTP: PATCH /markers/{id}/like (bearer token)
// Responses: 200 updated marker | 401 | 404 | 409 already voted.
func (h *MarkerHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, h.markers.Like)
}

// HandleDislike records the caller's dislike on a marker.
//
// HTTP: PATCH /markers/{id}/dislike (bearer token)
// Responses: 200 updated marker | 401 | 404 | 409 already voted.
func (h *MarkerHandler) HandleDislike(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, h.markers.Dislike)
}

func (h *MarkerHandler) handleVote(
	w http.ResponseWriter,
	r *http.Request,
	vote func(ctx context.Context, markerID, voterID string) (*model.Marker, error),
) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	id := r.PathValue("id")
	marker, err := vote(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, marker)
}

// HandleDelete removes a marker. Owner-only: a non-owner gets 403.
//
// HTTP: DELETE /markers/{id} (bearer token)
// Responses: 200 {message} | 401 | 403 | 404.
func (h *MarkerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	id := r.PathValue("id")
	if err := h.markers.Delete(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Marker deleted"})
}
