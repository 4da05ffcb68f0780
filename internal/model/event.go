package model

import "time"

// Visibility values accepted for an event.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Event represents a shared event users can RSVP to.
//
// AttendeeIDs is a set: a user appears at most once. The set is never written
// as a whole — membership changes go through the repository's atomic
// AddAttendee, so two concurrent RSVPs can't overwrite each other.
//
// CreatedBy records the authenticated creator and is what the ownership check
// on edit/delete compares against.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Visibility  string    `json:"visibility"`
	CreatedBy   string    `json:"createdBy"`
	AttendeeIDs []string  `json:"attendeeIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Attendee is the display projection of a user who RSVP'd — the name/email
// pair the event list expands attendee IDs into.
type Attendee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventWithAttendees is the list/detail representation: the event plus its
// attendee set joined against the user records.
type EventWithAttendees struct {
	Event
	Attendees []Attendee `json:"attendees"`
}
