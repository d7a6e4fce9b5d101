package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sakif/pinmap/internal/apperror"
	"github.com/sakif/pinmap/internal/model"
)

// createTestMarker creates a marker at a fixed downtown Toronto location.
func createTestMarker(t *testing.T, db *DB, ownerID, markerName string) *model.Marker {
	t.Helper()
	marker := &model.Marker{
		MarkerName: markerName,
		Lat:        43.65,
		Lng:        -79.38,
		UserID:     ownerID,
	}
	if err := db.Markers().Create(context.Background(), marker); err != nil {
		t.Fatalf("failed to create test marker: %v", err)
	}
	return marker
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestMarkerCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")

	marker := &model.Marker{
		MarkerName: "Coffee Shop",
		Lat:        43.65,
		Lng:        -79.38,
		UserID:     owner.ID,
	}
	if err := db.Markers().Create(context.Background(), marker); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if marker.ID == "" {
		t.Error("Create() did not set marker.ID")
	}

	// Counters must start at zero and the owner username must come back on
	// the read path.
	got, err := db.Markers().GetByID(context.Background(), marker.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Likes != 0 || got.Dislikes != 0 {
		t.Errorf("new marker counters = %d/%d, want 0/0", got.Likes, got.Dislikes)
	}
	if got.Lat != 43.65 || got.Lng != -79.38 {
		t.Errorf("coordinates = %v,%v, want 43.65,-79.38", got.Lat, got.Lng)
	}
	if got.User == nil || got.User.Username != "alice" {
		t.Errorf("owner = %+v, want username alice", got.User)
	}
}

func TestMarkerCreate_UnknownOwner(t *testing.T) {
	db := newTestDB(t)

	marker := &model.Marker{
		MarkerName: "Pizza Place",
		Lat:        43.65,
		Lng:        -79.38,
		UserID:     "no-such-user",
	}
	err := db.Markers().Create(context.Background(), marker)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Create() with unknown owner error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestMarkerList(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")

	first := createTestMarker(t, db, owner.ID, "Pizza Place")
	second := createTestMarker(t, db, owner.ID, "Icy Spot")

	markers, err := db.Markers().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(markers) != 2 {
		t.Fatalf("List() returned %d markers, want 2", len(markers))
	}

	// Insertion order (xid ids sort by creation time)
	if markers[0].ID != first.ID || markers[1].ID != second.ID {
		t.Errorf("List() order = [%s %s], want [%s %s]",
			markers[0].ID, markers[1].ID, first.ID, second.ID)
	}
	for _, m := range markers {
		if m.User == nil || m.User.Username != "alice" {
			t.Errorf("marker %s owner = %+v, want username alice", m.ID, m.User)
		}
	}
}

func TestMarkerList_Empty(t *testing.T) {
	db := newTestDB(t)

	markers, err := db.Markers().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(markers) != 0 {
		t.Errorf("List() on empty db returned %d markers", len(markers))
	}
}

// =========================================================================
// INCREMENT TESTS
// =========================================================================

func TestIncrementLike(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	got, err := db.Markers().IncrementLike(context.Background(), marker.ID)
	if err != nil {
		t.Fatalf("IncrementLike() error = %v", err)
	}
	if got.Likes != 1 {
		t.Errorf("likes = %d, want 1", got.Likes)
	}
	if got.Dislikes != 0 {
		t.Errorf("dislikes = %d, want 0", got.Dislikes)
	}
}

func TestIncrementDislike(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	got, err := db.Markers().IncrementDislike(context.Background(), marker.ID)
	if err != nil {
		t.Fatalf("IncrementDislike() error = %v", err)
	}
	if got.Dislikes != 1 {
		t.Errorf("dislikes = %d, want 1", got.Dislikes)
	}
}

func TestIncrementLike_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Markers().IncrementLike(context.Background(), "no-such-marker")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("IncrementLike() error = %v, want ErrNotFound", err)
	}
}

// Two concurrent increments must both land — the single-statement UPDATE
// leaves no read-modify-write window to lose one in.
func TestIncrementLike_ConcurrentNoLostUpdate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	const callers = 2
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Markers().IncrementLike(context.Background(), marker.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent IncrementLike() error = %v", err)
		}
	}

	got, err := db.Markers().GetByID(context.Background(), marker.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Likes != callers {
		t.Errorf("likes after %d concurrent increments = %d, want %d", callers, got.Likes, callers)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestMarkerDelete(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	if err := db.Markers().Delete(context.Background(), marker.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.Markers().GetByID(context.Background(), marker.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMarkerDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Markers().Delete(context.Background(), "no-such-marker")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// VOTE RECORD TESTS
// =========================================================================

func TestRecordVote(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	voter := createTestUser(t, db, "bob", "bob@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	if err := db.Markers().RecordVote(context.Background(), marker.ID, voter.ID, model.VoteLike); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
}

func TestRecordVote_RepeatIsConflict(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	voter := createTestUser(t, db, "bob", "bob@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	ctx := context.Background()
	if err := db.Markers().RecordVote(ctx, marker.ID, voter.ID, model.VoteLike); err != nil {
		t.Fatalf("first RecordVote() error = %v", err)
	}

	// Second vote by the same user on the same marker — even with the other
	// value — hits the (marker, user) primary key.
	err := db.Markers().RecordVote(ctx, marker.ID, voter.ID, model.VoteDislike)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("repeat RecordVote() error = %v, want ErrConflict", err)
	}
}

func TestRecordVote_DifferentUsersMayVote(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "alice", "alice@example.com")
	voter1 := createTestUser(t, db, "bob", "bob@example.com")
	voter2 := createTestUser(t, db, "carol", "carol@example.com")
	marker := createTestMarker(t, db, owner.ID, "Pizza Place")

	ctx := context.Background()
	if err := db.Markers().RecordVote(ctx, marker.ID, voter1.ID, model.VoteLike); err != nil {
		t.Fatalf("RecordVote() voter1 error = %v", err)
	}
	if err := db.Markers().RecordVote(ctx, marker.ID, voter2.ID, model.VoteLike); err != nil {
		t.Fatalf("RecordVote() voter2 error = %v", err)
	}
}

func TestRecordVote_UnknownMarker(t *testing.T) {
	db := newTestDB(t)
	voter := createTestUser(t, db, "bob", "bob@example.com")

	err := db.Markers().RecordVote(context.Background(), "no-such-marker", voter.ID, model.VoteLike)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("RecordVote() on unknown marker error = %v, want ErrNotFound", err)
	}
}
