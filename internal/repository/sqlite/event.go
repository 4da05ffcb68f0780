package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

// compile-time check that *DB implements repository.EventRepository
var _ repository.EventRepository = (*DB)(nil)

// Create inserts a new event. The caller sets the domain fields; ID and
// timestamps are generated here, mirroring user creation.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	event.ID = xid.New().String()

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (id, title, description, date, location, category, visibility, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Title,
		event.Description,
		event.Date,
		event.Location,
		event.Category,
		event.Visibility,
		event.CreatedBy,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	return nil
}

// GetByID retrieves a single event together with its attendee ID set.
// Returns apperror.ErrNotFound if the event doesn't exist.
func (db *DB) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, date, location, category, visibility, created_by, created_at, updated_at
		 FROM events
		 WHERE id = ?`,
		id,
	).Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Location,
		&e.Category,
		&e.Visibility,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM event_attendees WHERE event_id = ? ORDER BY rsvp_at, user_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attendee ids for event %s: %w", id, err)
	}
	defer rows.Close()

	e.AttendeeIDs = []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attendee row: %w", err)
		}
		e.AttendeeIDs = append(e.AttendeeIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attendees: %w", err)
	}

	return &e, nil
}

// List returns every event, newest date first, with attendees expanded to
// name/email display fields by joining the attendee set against the users
// table. Two queries total regardless of event count — the join result is
// grouped by event in memory rather than issuing one query per event.
func (db *DB) ListEvents(ctx context.Context) ([]model.EventWithAttendees, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, description, date, location, category, visibility, created_by, created_at, updated_at
		 FROM events
		 ORDER BY date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.EventWithAttendees{}
	index := map[string]int{} // event ID → position in events

	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Date, &e.Location,
			&e.Category, &e.Visibility, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		e.AttendeeIDs = []string{}
		index[e.ID] = len(events)
		events = append(events, model.EventWithAttendees{Event: e, Attendees: []model.Attendee{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	attendeeRows, err := db.conn.QueryContext(ctx,
		`SELECT ea.event_id, u.id, u.name, u.email
		 FROM event_attendees ea
		 JOIN users u ON u.id = ea.user_id
		 ORDER BY ea.rsvp_at, u.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attendees: %w", err)
	}
	defer attendeeRows.Close()

	for attendeeRows.Next() {
		var eventID string
		var a model.Attendee
		if err := attendeeRows.Scan(&eventID, &a.ID, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attendee row: %w", err)
		}
		if i, ok := index[eventID]; ok {
			events[i].Attendees = append(events[i].Attendees, a)
			events[i].AttendeeIDs = append(events[i].AttendeeIDs, a.ID)
		}
	}
	if err := attendeeRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attendees: %w", err)
	}

	return events, nil
}

// Update replaces the mutable event fields. The service layer has already
// applied "replace if present, else keep" on a fetched copy, so this is a
// full-row write. RowsAffected 0 means the event was deleted concurrently.
func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, date = ?, location = ?, category = ?, visibility = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Description,
		event.Date,
		event.Location,
		event.Category,
		event.Visibility,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("event", event.ID)
	}

	return nil
}

// Delete removes an event. The attendee rows go with it via ON DELETE CASCADE.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM events WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("event", id)
	}

	return nil
}

// AddAttendee adds userID to the event's attendee set, atomically.
//
// This is the one operation in the system with a real concurrency hazard,
// and the entire guarantee lives in this single statement:
//
//	INSERT ... ON CONFLICT DO NOTHING
//
// against the (event_id, user_id) primary key. The membership check and the
// insert are one step inside SQLite — there is no load-the-set-then-save
// sequence for two requests to interleave. Outcomes:
//
//   - rows affected 1 → the user was added (exactly once)
//   - rows affected 0 → the user was already in the set → ErrConflict
//   - foreign key violation → the event doesn't exist → ErrNotFound
//
// Two distinct users racing both hit rows-affected 1; the same user retried
// concurrently gets exactly one 1 and the rest 0.
func (db *DB) AddAttendee(ctx context.Context, eventID, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, user_id, rsvp_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		eventID,
		userID,
		time.Now(),
	)
	if err != nil {
		// SQLite does not say which FK failed. user_id comes from a verified
		// token and users are never deleted, so a violation here means the
		// event row is missing.
		if isForeignKeyViolation(err) {
			return apperror.NotFound("event", eventID)
		}
		return fmt.Errorf("sqlite: adding attendee %s to event %s: %w", userID, eventID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Conflict("attendee", "you have already RSVP'd to this event")
	}

	return nil
}

// ListAttendees returns the event's attendee set expanded to display fields,
// oldest RSVP first.
func (db *DB) ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.name, u.email
		 FROM event_attendees ea
		 JOIN users u ON u.id = ea.user_id
		 WHERE ea.event_id = ?
		 ORDER BY ea.rsvp_at, u.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attendees for event %s: %w", eventID, err)
	}
	defer rows.Close()

	attendees := []model.Attendee{}
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attendee row: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attendees: %w", err)
	}

	return attendees, nil
}
