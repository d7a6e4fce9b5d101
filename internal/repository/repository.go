// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage is the concrete implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/pinmap/internal/model"
)

// UserRepository persists accounts. Email is unique; Create returns
// apperror.ErrEmailTaken on a duplicate. Delete cascades to the user's
// markers and votes.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

// MarkerRepository persists markers and their vote records.
//
// IncrementLike/IncrementDislike are single atomic updates — concurrent
// calls never lose an increment. RecordVote inserts the (marker, user) vote
// row and returns apperror.ErrConflict when the pair already voted.
type MarkerRepository interface {
	Create(ctx context.Context, marker *model.Marker) error
	List(ctx context.Context) ([]model.Marker, error)
	GetByID(ctx context.Context, id string) (*model.Marker, error)
	IncrementLike(ctx context.Context, id string) (*model.Marker, error)
	IncrementDislike(ctx context.Context, id string) (*model.Marker, error)
	Delete(ctx context.Context, id string) error
	RecordVote(ctx context.Context, markerID, userID string, value int) error
}
