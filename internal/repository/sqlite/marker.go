package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/model"
	"github.com/sakif/pinmap/internal/repository"
)

// MarkerRepo implements repository.MarkerRepository.
type MarkerRepo struct {
	conn *sql.DB
}

var _ repository.MarkerRepository = (*MarkerRepo)(nil)

const markerColumns = `m.id, m.marker_name, m.lat, m.lng, m.likes, m.dislikes,
	m.user_id, u.username, m.created_at, m.updated_at`

// Create inserts a new marker. Likes and dislikes start at 0 via the column
// defaults; ID and timestamps are generated here and written back through
// the pointer. UserID must reference an existing user.
func (r *MarkerRepo) Create(ctx context.Context, marker *model.Marker) error {
	now := time.Now()
	marker.ID = xid.New().String()
	marker.CreatedAt = now
	marker.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO markers (id, marker_name, lat, lng, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		marker.ID,
		marker.MarkerName,
		marker.Lat,
		marker.Lng,
		marker.UserID,
		marker.CreatedAt,
		marker.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", marker.UserID)
		}
		return fmt.Errorf("sqlite: creating marker: %w", err)
	}

	return nil
}

// List returns every marker joined with its owner's username, in insertion
// order (xid ids sort by creation time).
func (r *MarkerRepo) List(ctx context.Context) ([]model.Marker, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+markerColumns+`
		 FROM markers m
		 JOIN users u ON u.id = m.user_id
		 ORDER BY m.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing markers: %w", err)
	}
	defer rows.Close()

	markers := make([]model.Marker, 0)
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning marker row: %w", err)
		}
		markers = append(markers, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating markers: %w", err)
	}

	return markers, nil
}

// GetByID retrieves a single marker with its owner's username.
// Returns apperror.ErrNotFound if no marker exists with that ID.
func (r *MarkerRepo) GetByID(ctx context.Context, id string) (*model.Marker, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+markerColumns+`
		 FROM markers m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.id = ?`,
		id,
	)

	m, err := scanMarker(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("marker", id)
		}
		return nil, fmt.Errorf("sqlite: getting marker %s: %w", id, err)
	}

	return m, nil
}

// IncrementLike performs `likes = likes + 1` as a single UPDATE. SQLite
// serialises writers, so two concurrent calls both land — no read-modify-
// write cycle that could lose an update. Returns the refreshed marker.
func (r *MarkerRepo) IncrementLike(ctx context.Context, id string) (*model.Marker, error) {
	return r.incrementCounter(ctx, id, "likes")
}

// IncrementDislike is the dislike counterpart of IncrementLike.
func (r *MarkerRepo) IncrementDislike(ctx context.Context, id string) (*model.Marker, error) {
	return r.incrementCounter(ctx, id, "dislikes")
}

// incrementCounter bumps the named counter column. The column name comes
// from the two constant call sites above, never from user input.
func (r *MarkerRepo) incrementCounter(ctx context.Context, id, column string) (*model.Marker, error) {
	result, err := r.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE markers SET %s = %s + 1, updated_at = ? WHERE id = ?`, column, column),
		time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: incrementing %s on marker %s: %w", column, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("marker", id)
	}

	return r.GetByID(ctx, id)
}

// Delete removes a marker. Vote rows cascade with it.
func (r *MarkerRepo) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM markers WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting marker %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("marker", id)
	}

	return nil
}

// RecordVote inserts the (marker, user) vote row. The composite primary key
// makes a repeat vote a constraint violation, which comes back as
// apperror.ErrConflict; a vote on a marker that no longer exists trips the
// foreign key and comes back as apperror.ErrNotFound.
func (r *MarkerRepo) RecordVote(ctx context.Context, markerID, userID string, value int) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO votes (marker_id, user_id, value, created_at)
		 VALUES (?, ?, ?, ?)`,
		markerID, userID, value, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("already voted on this marker")
		}
		if isForeignKeyViolation(err) {
			return apperror.NotFound("marker", markerID)
		}
		return fmt.Errorf("sqlite: recording vote on marker %s: %w", markerID, err)
	}

	return nil
}

// scanMarker reads one marker row (markerColumns order) from either a
// sql.Row or sql.Rows.
func scanMarker(row interface{ Scan(...any) error }) (*model.Marker, error) {
	var (
		m     model.Marker
		owner model.Owner
	)
	err := row.Scan(
		&m.ID,
		&m.MarkerName,
		&m.Lat,
		&m.Lng,
		&m.Likes,
		&m.Dislikes,
		&m.UserID,
		&owner.Username,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.User = &owner
	return &m, nil
}
