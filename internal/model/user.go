// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Email is the login key and is unique at the store. Username is a display
// name shown next to markers the user placed.
//
// PasswordHash holds the bcrypt hash of the password — never the plaintext.
// The `json:"-"` tag keeps it out of every API response.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
