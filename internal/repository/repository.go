// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage is the concrete implementation; tests
// substitute in-memory mocks.
//
// Mutations with correctness hazards are expressed as single atomic store
// operations, not application-level read-then-write:
//   - user email uniqueness is a store constraint surfaced as a conflict
//   - attendee-set insertion is an atomic add-if-absent (AddAttendee)
package repository

import (
	"context"

	"github.com/sakif/eventhub/internal/model"
)

// UserRepository is the credential store: registered identities and their
// password hashes.
type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict if a user
	// with the same email already exists (enforced by the store, not by a
	// prior lookup).
	CreateUser(ctx context.Context, user *model.User) error

	// GetByID returns apperror.ErrNotFound if no such user exists.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// GetByEmail matches the email exactly (case-sensitive).
	// Returns apperror.ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Update replaces name, email, and password hash. Returns
	// apperror.ErrConflict if the new email is taken, apperror.ErrNotFound
	// if the user no longer exists.
	UpdateUser(ctx context.Context, user *model.User) error
}

// EventRepository is the event store plus the attendance coordinator.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)

	// List returns every event with its attendees expanded to name/email
	// display fields by a join against the user table.
	ListEvents(ctx context.Context) ([]model.EventWithAttendees, error)

	// Update replaces the mutable event fields. Returns
	// apperror.ErrNotFound if the event doesn't exist.
	UpdateEvent(ctx context.Context, event *model.Event) error

	// Delete removes the event and its attendee rows. Returns
	// apperror.ErrNotFound if the event doesn't exist.
	DeleteEvent(ctx context.Context, id string) error

	// AddAttendee atomically adds userID to the event's attendee set.
	// The membership check and the insert are a single store-level step:
	// two concurrent calls can't lose an update. Returns
	// apperror.ErrConflict if the user is already attending and
	// apperror.ErrNotFound if the event doesn't exist.
	AddAttendee(ctx context.Context, eventID, userID string) error

	// ListAttendees returns the attendee set expanded to display fields,
	// in RSVP order.
	ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error)
}
