package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Name:         "Ada",
		Email:        "ada@x.com",
		PasswordHash: "$2a$04$somehash",
	}

	err := db.CreateUser(context.Background(), user)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "Ada", "ada@x.com")

	dupe := &model.User{
		Name:         "Other Ada",
		Email:        "ada@x.com",
		PasswordHash: "$2a$04$otherhash",
	}

	err := db.CreateUser(context.Background(), dupe)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() with duplicate email: error = %v, want ErrConflict", err)
	}

	// Only one record persists
	u, err := db.GetUserByEmail(context.Background(), "ada@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if u.Name != "Ada" {
		t.Errorf("persisted user name = %q, want the first registration %q", u.Name, "Ada")
	}
}

func TestCreateUser_DuplicateEmailConcurrent(t *testing.T) {
	// The uniqueness guarantee is the store constraint, not a prior lookup,
	// so it must hold when two registrations race.
	db := newTestDB(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.CreateUser(context.Background(), &model.User{
				Name:         "Racer",
				Email:        "racer@x.com",
				PasswordHash: "$2a$04$hash",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, apperror.ErrConflict) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("concurrent registrations: %d succeeded, want exactly 1", successes)
	}
}

func TestCreateUser_EmailIsCaseSensitive(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "Ada", "ada@x.com")

	// Different casing is a different account in this system.
	other := &model.User{Name: "Ada 2", Email: "Ada@x.com", PasswordHash: "$2a$04$h"}
	if err := db.CreateUser(context.Background(), other); err != nil {
		t.Fatalf("CreateUser() with differently-cased email: error = %v", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)

	created := createTestUser(t, db, "Ada", "ada@x.com")

	got, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != "ada@x.com" {
		t.Errorf("Email = %q, want %q", got.Email, "ada@x.com")
	}
	if got.PasswordHash == "" {
		t.Error("GetUserByID() should load the password hash for verification")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "Ada", "ada@x.com")
	user.Name = "Ada Lovelace"
	user.Email = "lovelace@x.com"

	if err := db.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "Ada Lovelace" || got.Email != "lovelace@x.com" {
		t.Errorf("got (%q, %q), want updated name and email", got.Name, got.Email)
	}
}

func TestUpdateUser_EmailTaken(t *testing.T) {
	db := newTestDB(t)

	createTestUser(t, db, "Ada", "ada@x.com")
	grace := createTestUser(t, db, "Grace", "grace@x.com")

	grace.Email = "ada@x.com"
	err := db.UpdateUser(context.Background(), grace)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateUser() to a taken email: error = %v, want ErrConflict", err)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "no-such-id", Name: "Ghost", Email: "ghost@x.com", PasswordHash: "h"}
	err := db.UpdateUser(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}
