// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The PasswordHash field holds the bcrypt digest of the user's password —
// never the plaintext. The `json:"-"` tag keeps it out of every API response;
// there is no code path that serializes it.
//
// Email is stored and compared exactly as the user typed it (case-sensitive).
// Uniqueness is enforced by a UNIQUE constraint on the email column, not by an
// application-level lookup.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
