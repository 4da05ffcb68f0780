package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/eventhub/internal/apperror"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", apperror.ValidationFailed("title", "title is required"), http.StatusBadRequest, "validation_error"},
		{"invalid credentials", apperror.InvalidCredentials(), http.StatusBadRequest, "invalid_credentials"},
		{"conflict", apperror.Conflict("email", "email is already in use"), http.StatusBadRequest, "conflict"},
		{"unauthenticated", apperror.Unauthenticated("missing token"), http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", apperror.Forbidden("not the creator"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("event", "abc"), http.StatusNotFound, "not_found"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestWriteError_NeverLeaksInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection refused at 10.0.0.3"))

	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestParseEventDate(t *testing.T) {
	got, err := parseEventDate("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseEventDate("2025-01-01T19:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 19, got.Hour())

	_, err = parseEventDate("next tuesday")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
