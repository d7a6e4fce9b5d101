package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/model"
)

// =========================================================================
// MOCK MARKER REPOSITORY
// =========================================================================

type voteKey struct {
	markerID string
	userID   string
}

type mockMarkerRepo struct {
	markers map[string]*model.Marker
	votes   map[voteKey]int
	order   []string // insertion order for List
	nextID  int
}

func newMockMarkerRepo() *mockMarkerRepo {
	return &mockMarkerRepo{
		markers: make(map[string]*model.Marker),
		votes:   make(map[voteKey]int),
	}
}

func (m *mockMarkerRepo) Create(_ context.Context, marker *model.Marker) error {
	m.nextID++
	marker.ID = fmt.Sprintf("marker-%d", m.nextID)
	stored := *marker
	stored.User = &model.Owner{Username: "owner-of-" + marker.UserID}
	m.markers[marker.ID] = &stored
	m.order = append(m.order, marker.ID)
	return nil
}

func (m *mockMarkerRepo) List(_ context.Context) ([]model.Marker, error) {
	result := make([]model.Marker, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.markers[id])
	}
	return result, nil
}

func (m *mockMarkerRepo) GetByID(_ context.Context, id string) (*model.Marker, error) {
	marker, ok := m.markers[id]
	if !ok {
		return nil, apperror.NotFound("marker", id)
	}
	result := *marker
	return &result, nil
}

func (m *mockMarkerRepo) IncrementLike(_ context.Context, id string) (*model.Marker, error) {
	marker, ok := m.markers[id]
	if !ok {
		return nil, apperror.NotFound("marker", id)
	}
	marker.Likes++
	result := *marker
	return &result, nil
}

func (m *mockMarkerRepo) IncrementDislike(_ context.Context, id string) (*model.Marker, error) {
	marker, ok := m.markers[id]
	if !ok {
		return nil, apperror.NotFound("marker", id)
	}
	marker.Dislikes++
	result := *marker
	return &result, nil
}

func (m *mockMarkerRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.markers[id]; !ok {
		return apperror.NotFound("marker", id)
	}
	delete(m.markers, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockMarkerRepo) RecordVote(_ context.Context, markerID, userID string, value int) error {
	if _, ok := m.markers[markerID]; !ok {
		return apperror.NotFound("marker", markerID)
	}
	key := voteKey{markerID: markerID, userID: userID}
	if _, ok := m.votes[key]; ok {
		return apperror.Conflict("already voted on this marker")
	}
	m.votes[key] = value
	return nil
}

func newTestMarkerService(t *testing.T) (*MarkerService, *mockMarkerRepo) {
	t.Helper()
	repo := newMockMarkerRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewMarkerService(repo, logger), repo
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestMarkerServiceCreate(t *testing.T) {
	svc, _ := newTestMarkerService(t)

	marker, err := svc.Create(context.Background(), "user-1", "Coffee Shop", 43.65, -79.38)
	require.NoError(t, err)

	assert.NotEmpty(t, marker.ID)
	assert.Equal(t, "Coffee Shop", marker.MarkerName)
	assert.Equal(t, 43.65, marker.Lat)
	assert.Equal(t, -79.38, marker.Lng)
	assert.Equal(t, 0, marker.Likes)
	assert.Equal(t, 0, marker.Dislikes)
	assert.Equal(t, "user-1", marker.UserID)
	assert.NotNil(t, marker.User)
}

func TestMarkerServiceCreate_TrimsName(t *testing.T) {
	svc, _ := newTestMarkerService(t)

	marker, err := svc.Create(context.Background(), "user-1", "  Icy Spot  ", 43.65, -79.38)
	require.NoError(t, err)
	assert.Equal(t, "Icy Spot", marker.MarkerName)
}

func TestMarkerServiceCreate_Validation(t *testing.T) {
	svc, _ := newTestMarkerService(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		markerName string
		lat, lng   float64
	}{
		{"empty name", "", 43.65, -79.38},
		{"whitespace name", "   ", 43.65, -79.38},
		{"latitude too high", "Pizza Place", 91, -79.38},
		{"latitude too low", "Pizza Place", -91, -79.38},
		{"longitude too high", "Pizza Place", 43.65, 181},
		{"longitude too low", "Pizza Place", 43.65, -181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "user-1", tt.markerName, tt.lat, tt.lng)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

// =========================================================================
// VOTE TESTS
// =========================================================================

func TestMarkerServiceLike(t *testing.T) {
	svc, _ := newTestMarkerService(t)
	ctx := context.Background()

	marker, err := svc.Create(ctx, "user-1", "Pizza Place", 43.65, -79.38)
	require.NoError(t, err)

	updated, err := svc.Like(ctx, marker.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Likes)
	assert.Equal(t, 0, updated.Dislikes)
}

// A repeat vote is rejected before the counter moves — the count stays at
// exactly one per voter no matter how often they retry.
func TestMarkerServiceLike_RepeatVoteConflict(t *testing.T) {
	svc, repo := newTestMarkerService(t)
	ctx := context.Background()

	marker, err := svc.Create(ctx, "user-1", "Pizza Place", 43.65, -79.38)
	require.NoError(t, err)

	_, err = svc.Like(ctx, marker.ID, "user-2")
	require.NoError(t, err)

	_, err = svc.Like(ctx, marker.ID, "user-2")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// Switching to dislike doesn't help either
	_, err = svc.Dislike(ctx, marker.ID, "user-2")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	got, err := repo.GetByID(ctx, marker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 0, got.Dislikes)
}

func TestMarkerServiceLike_OwnerMayVote(t *testing.T) {
	svc, _ := newTestMarkerService(t)
	ctx := context.Background()

	marker, err := svc.Create(ctx, "user-1", "Pizza Place", 43.65, -79.38)
	require.NoError(t, err)

	// Voting has no ownership restriction — owners can like their own spot
	updated, err := svc.Like(ctx, marker.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Likes)
}

func TestMarkerServiceDislike(t *testing.T) {
	svc, _ := newTestMarkerService(t)
	ctx := context.Background()

	marker, err := svc.Create(ctx, "user-1", "Icy Spot", 43.65, -79.38)
	require.NoError(t, err)

	updated, err := svc.Dislike(ctx, marker.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Dislikes)
	assert.Equal(t, 0, updated.Likes)
}

func TestMarkerServiceVote_NotFound(t *testing.T) {
	svc, _ := newTestMarkerService(t)

	_, err := svc.Like(context.Background(), "no-such-marker", "user-2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestMarkerServiceDelete_Owner(t *testing.T) {
	svc, repo := newTestMarkerService(t)
	ctx := context.Background()

	marker, err := svc.Create(ctx, "user-1", "Pizza Place", 43.65, -79.38)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, marker.ID, "user-1"))

	_, err = repo.GetByID(ctx, marker.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMarkerServiceDelete_NonOwnerForbidden(t *testing.T) {
	svc, repo := newTestMarkerService(t)
	ctx := context.Background()

	marker, err := svc.Create(ctx, "user-1", "Pizza Place", 43.65, -79.38)
	require.NoError(t, err)

	err = svc.Delete(ctx, marker.ID, "user-2")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Still there
	_, err = repo.GetByID(ctx, marker.ID)
	assert.NoError(t, err)
}

func TestMarkerServiceDelete_NotFound(t *testing.T) {
	svc, _ := newTestMarkerService(t)

	err := svc.Delete(context.Background(), "no-such-marker", "user-1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestMarkerServiceList(t *testing.T) {
	svc, _ := newTestMarkerService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", "Pizza Place", 43.65, -79.38)
	require.NoError(t, err)
	second, err := svc.Create(ctx, "user-2", "Icy Spot", 43.66, -79.39)
	require.NoError(t, err)

	markers, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, first.ID, markers[0].ID)
	assert.Equal(t, second.ID, markers[1].ID)
}
