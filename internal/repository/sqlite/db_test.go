package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/eventhub/internal/model"
)

// newTestDB creates a DB backed by a file in a per-test temp directory.
//
// A file (rather than ":memory:") matters here: database/sql is a connection
// pool, and with an in-memory SQLite each pooled connection would see its own
// empty database. The concurrency tests in event_test.go open several
// connections at once, so they need a shared store.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, name, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$04$fakehashforrepositorytestsonly1234567890123456789012x",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestEvent creates an event owned by creatorID and fails the test if
// it errors.
func createTestEvent(t *testing.T, db *DB, creatorID, title string) *model.Event {
	t.Helper()
	event := &model.Event{
		Title:       title,
		Description: "a test event",
		Date:        time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC),
		Location:    "NYC",
		Category:    "Tech",
		Visibility:  model.VisibilityPublic,
		CreatedBy:   creatorID,
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event
}
