package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/model"
	"github.com/sakif/pinmap/internal/repository"
)

// MaxMarkerNameLength bounds the category label. Labels are short ("Pizza
// Place", "Icy Spot"); anything longer is a client bug.
const MaxMarkerNameLength = 100

// MarkerService handles marker placement, listing, voting and deletion.
type MarkerService struct {
	markers repository.MarkerRepository
	logger  *slog.Logger
}

// NewMarkerService creates a MarkerService.
func NewMarkerService(markers repository.MarkerRepository, logger *slog.Logger) *MarkerService {
	return &MarkerService{
		markers: markers,
		logger:  logger,
	}
}

// Create validates and places a new marker owned by ownerID. Counters start
// at zero. Returns the marker re-read from the store so the response
// carries the owner's username like every other marker read.
func (s *MarkerService) Create(ctx context.Context, ownerID, markerName string, lat, lng float64) (*model.Marker, error) {
	markerName = strings.TrimSpace(markerName)

	if markerName == "" {
		return nil, apperror.ValidationFailed("markerName", "marker name is required")
	}
	if len(markerName) > MaxMarkerNameLength {
		return nil, apperror.ValidationFailed("markerName",
			fmt.Sprintf("marker name must be %d characters or less", MaxMarkerNameLength))
	}
	if lat < -90 || lat > 90 {
		return nil, apperror.ValidationFailed("lat", "latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return nil, apperror.ValidationFailed("lng", "longitude must be between -180 and 180")
	}

	marker := &model.Marker{
		MarkerName: markerName,
		Lat:        lat,
		Lng:        lng,
		UserID:     ownerID,
	}
	if err := s.markers.Create(ctx, marker); err != nil {
		s.logger.Error("failed to create marker",
			slog.String("markerName", markerName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating marker: %w", err)
	}

	s.logger.Info("marker created",
		slog.String("id", marker.ID),
		slog.String("markerName", marker.MarkerName),
		slog.String("ownerID", ownerID),
	)

	return s.markers.GetByID(ctx, marker.ID)
}

// List returns all markers with their owners' usernames.
func (s *MarkerService) List(ctx context.Context) ([]model.Marker, error) {
	markers, err := s.markers.List(ctx)
	if err != nil {
		s.logger.Error("failed to list markers", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing markers: %w", err)
	}
	return markers, nil
}

// Like records voterID's like on the marker and bumps the counter.
//
// The vote row goes in first: its primary key is what enforces "one vote
// per user per marker", and inserting before incrementing means a rejected
// repeat vote never touches the counter. A missing marker surfaces as
// NotFound from the same insert via the foreign key.
func (s *MarkerService) Like(ctx context.Context, markerID, voterID string) (*model.Marker, error) {
	return s.vote(ctx, markerID, voterID, model.VoteLike)
}

// Dislike is the dislike counterpart of Like.
func (s *MarkerService) Dislike(ctx context.Context, markerID, voterID string) (*model.Marker, error) {
	return s.vote(ctx, markerID, voterID, model.VoteDislike)
}

func (s *MarkerService) vote(ctx context.Context, markerID, voterID string, value int) (*model.Marker, error) {
	markerID = strings.TrimSpace(markerID)
	if markerID == "" {
		return nil, apperror.ValidationFailed("id", "marker ID is required")
	}

	if err := s.markers.RecordVote(ctx, markerID, voterID, value); err != nil {
		return nil, err
	}

	var (
		marker *model.Marker
		err    error
	)
	if value == model.VoteLike {
		marker, err = s.markers.IncrementLike(ctx, markerID)
	} else {
		marker, err = s.markers.IncrementDislike(ctx, markerID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("vote recorded",
		slog.String("markerID", markerID),
		slog.String("voterID", voterID),
		slog.Int("value", value),
	)

	return marker, nil
}

// Delete removes a marker, owner-only. A non-owner gets Forbidden even
// though the marker exists — deletion is the one marker mutation that is
// restricted to the user who placed it.
func (s *MarkerService) Delete(ctx context.Context, markerID, callerID string) error {
	markerID = strings.TrimSpace(markerID)
	if markerID == "" {
		return apperror.ValidationFailed("id", "marker ID is required")
	}

	marker, err := s.markers.GetByID(ctx, markerID)
	if err != nil {
		return err
	}

	if marker.UserID != callerID {
		return apperror.Forbidden("only the marker's owner can delete it")
	}

	if err := s.markers.Delete(ctx, markerID); err != nil {
		return err
	}

	s.logger.Info("marker deleted",
		slog.String("id", markerID),
		slog.String("ownerID", callerID),
	)
	return nil
}
