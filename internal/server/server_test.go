package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/eventhub/internal/config"
)

const testSecret = "test-secret-at-least-16-chars!!"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// expiredToken signs a token with the test secret whose expiry is in the past.
func expiredToken(t *testing.T) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "someone",
		Issuer:    "eventhub",
		IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// newTestServer builds a fully wired server on a temp-file database and
// mounts it on an httptest.Server. Requests go through the real router,
// middleware, services, and sqlite store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		Addr:       ":0",
		DBPath:     filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}

	srv, err := New(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { srv.db.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON sends a JSON request and decodes the JSON response into a generic map.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(bytes.TrimSpace(raw)) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func doJSONList(t *testing.T, ts *httptest.Server, path, token string) (int, []map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

// registerAndLogin registers a user and returns their bearer token.
func registerAndLogin(t *testing.T, ts *httptest.Server, name, email, password string) string {
	t.Helper()

	status, _ := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// =========================================================================
// END-TO-END SCENARIO
// =========================================================================

func TestEndToEnd_RegisterLoginCreateRSVP(t *testing.T) {
	ts := newTestServer(t)

	// Register Ada
	status, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Ada", body["name"])
	assert.NotContains(t, body, "passwordHash", "password hash must never be serialized")

	// Login
	status, body = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)
	require.NotEmpty(t, token)

	// Create an event
	status, body = doJSON(t, ts, http.MethodPost, "/api/events/create", token, map[string]string{
		"title":       "Meetup",
		"description": "d",
		"date":        "2025-01-01",
		"location":    "NYC",
		"category":    "Tech",
		"visibility":  "public",
	})
	require.Equal(t, http.StatusCreated, status)
	eventID := body["id"].(string)
	require.NotEmpty(t, eventID)

	// RSVP → 200 with attendees = [Ada]
	status, body = doJSON(t, ts, http.MethodPost, "/api/events/rsvp/"+eventID, token, nil)
	require.Equal(t, http.StatusOK, status)
	attendees := body["attendees"].([]any)
	require.Len(t, attendees, 1)
	first := attendees[0].(map[string]any)
	assert.Equal(t, "Ada", first["name"])
	assert.Equal(t, "ada@x.com", first["email"])

	// Second RSVP → 400 already attending
	status, body = doJSON(t, ts, http.MethodPost, "/api/events/rsvp/"+eventID, token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "conflict", body["error"])
}

// =========================================================================
// AUTH ENDPOINT TESTS
// =========================================================================

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")

	status, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Imposter", "email": "ada@x.com", "password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "conflict", body["error"])
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	status, body := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["error"])
}

func TestLogin_BadCredentialsShareOneShape(t *testing.T) {
	ts := newTestServer(t)
	registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")

	statusWrong, bodyWrong := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@x.com", "password": "wrong",
	})
	statusGhost, bodyGhost := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@x.com", "password": "secret",
	})

	// Wrong password and nonexistent email must be indistinguishable
	assert.Equal(t, http.StatusBadRequest, statusWrong)
	assert.Equal(t, statusWrong, statusGhost)
	assert.Equal(t, bodyWrong["error"], bodyGhost["error"])
	assert.Equal(t, bodyWrong["message"], bodyGhost["message"])
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/events"},
		{http.MethodPost, "/api/events/create"},
		{http.MethodPut, "/api/events/edit/some-id"},
		{http.MethodDelete, "/api/events/delete/some-id"},
		{http.MethodPost, "/api/events/rsvp/some-id"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodGet, "/api/auth/me"},
	}
	for _, c := range cases {
		status, _ := doJSON(t, ts, c.method, c.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s without token", c.method, c.path)
	}
}

func TestExpiredToken_Rejected(t *testing.T) {
	ts := newTestServer(t)

	// Sign an already-expired token with the test secret
	expired := expiredToken(t)

	status, _ := doJSON(t, ts, http.MethodGet, "/api/events", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")

	status, body := doJSON(t, ts, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"name": "Ada Lovelace",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada Lovelace", body["name"])
	assert.Equal(t, "ada@x.com", body["email"])

	// Password change with a wrong current password → 400
	status, _ = doJSON(t, ts, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"password":        "wrong",
		"newPassword":     "changed",
		"confirmPassword": "changed",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

// =========================================================================
// EVENT ENDPOINT TESTS
// =========================================================================

func TestEvents_ListExpandsAttendees(t *testing.T) {
	ts := newTestServer(t)
	adaToken := registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")
	graceToken := registerAndLogin(t, ts, "Grace", "grace@x.com", "secret2")

	status, body := doJSON(t, ts, http.MethodPost, "/api/events/create", adaToken, map[string]string{
		"title": "Meetup", "date": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, status)
	eventID := body["id"].(string)

	for _, token := range []string{adaToken, graceToken} {
		status, _ = doJSON(t, ts, http.MethodPost, "/api/events/rsvp/"+eventID, token, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, events := doJSONList(t, ts, "/api/events", adaToken)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, events, 1)

	attendees := events[0]["attendees"].([]any)
	require.Len(t, attendees, 2)
	emails := []string{}
	for _, a := range attendees {
		emails = append(emails, a.(map[string]any)["email"].(string))
	}
	assert.ElementsMatch(t, []string{"ada@x.com", "grace@x.com"}, emails)
}

func TestEvents_EditByNonCreatorForbidden(t *testing.T) {
	ts := newTestServer(t)
	adaToken := registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")
	graceToken := registerAndLogin(t, ts, "Grace", "grace@x.com", "secret2")

	status, body := doJSON(t, ts, http.MethodPost, "/api/events/create", adaToken, map[string]string{
		"title": "Meetup", "date": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, status)
	eventID := body["id"].(string)

	status, _ = doJSON(t, ts, http.MethodPut, "/api/events/edit/"+eventID, graceToken, map[string]string{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/events/delete/"+eventID, graceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// The creator can do both
	status, body = doJSON(t, ts, http.MethodPut, "/api/events/edit/"+eventID, adaToken, map[string]string{
		"title": "Renamed",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", body["title"])

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/events/delete/"+eventID, adaToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestEvents_PartialEditKeepsOmittedFields(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")

	status, body := doJSON(t, ts, http.MethodPost, "/api/events/create", token, map[string]string{
		"title": "Meetup", "date": "2025-01-01", "location": "NYC", "category": "Tech",
	})
	require.Equal(t, http.StatusCreated, status)
	eventID := body["id"].(string)

	status, body = doJSON(t, ts, http.MethodPut, "/api/events/edit/"+eventID, token, map[string]string{
		"location": "Berlin",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Berlin", body["location"])
	assert.Equal(t, "Meetup", body["title"], "omitted fields keep their values")
	assert.Equal(t, "Tech", body["category"])
}

func TestEvents_RSVPMissingEvent(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "Ada", "ada@x.com", "secret")

	status, body := doJSON(t, ts, http.MethodPost, "/api/events/rsvp/no-such-event", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])
}

func TestEvents_ConcurrentRSVPDistinctUsers(t *testing.T) {
	ts := newTestServer(t)
	creatorToken := registerAndLogin(t, ts, "Creator", "creator@x.com", "secret")

	status, body := doJSON(t, ts, http.MethodPost, "/api/events/create", creatorToken, map[string]string{
		"title": "Meetup", "date": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, status)
	eventID := body["id"].(string)

	const n = 5
	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		tokens[i] = registerAndLogin(t, ts,
			fmt.Sprintf("User %d", i),
			fmt.Sprintf("user%d@x.com", i),
			"secret",
		)
	}

	statuses := make(chan int, n)
	for i := 0; i < n; i++ {
		go func(token string) {
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/events/rsvp/"+eventID, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := ts.Client().Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}(tokens[i])
	}

	for i := 0; i < n; i++ {
		assert.Equal(t, http.StatusOK, <-statuses, "every distinct user's RSVP must succeed")
	}

	// Final cardinality is exactly n — no lost updates
	status, body = doJSON(t, ts, http.MethodPost, "/api/events/rsvp/"+eventID, creatorToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["attendees"], n+1)
}
