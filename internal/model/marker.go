package model

import "time"

// Marker is a user-placed point of interest on the map.
//
// MarkerName is a category label ("Pizza Place", "Icy Spot", ...), not free
// text — the client also uses it to pick an icon. Lat/Lng are WGS84 degrees.
// Likes and Dislikes are non-negative counters; a marker always has exactly
// one owner (UserID), and deleting the owner deletes the marker.
type Marker struct {
	ID         string    `json:"id"`
	MarkerName string    `json:"markerName"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Likes      int       `json:"likes"`
	Dislikes   int       `json:"dislikes"`
	UserID     string    `json:"userId"`
	User       *Owner    `json:"user,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Owner is the slice of the owning user exposed on marker reads.
// Only the display name — never email or id.
type Owner struct {
	Username string `json:"username"`
}

// Vote values stored per (marker, user) pair. One row per pair means one
// vote per user per marker, enforced by the store.
const (
	VoteLike    = 1
	VoteDislike = -1
)
