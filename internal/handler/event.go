package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/service"
)

// EventHandler exposes event CRUD and RSVP endpoints.
type EventHandler struct {
	events   *service.EventService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events *service.EventService, validate *validator.Validate, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:   events,
		validate: validate,
		logger:   logger,
	}
}

type createEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=public private"`
}

// updateEventRequest is a partial update. Pointer fields distinguish "omitted,
// keep current value" (nil) from "set to this" — an explicit empty string
// still counts as a set.
type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=public private"`
}

type attendeesResponse struct {
	Attendees []model.Attendee `json:"attendees"`
}

// parseEventDate accepts either a full RFC 3339 timestamp or a bare
// YYYY-MM-DD date, which is what the mobile client sends.
func parseEventDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("date",
			"date must be an RFC 3339 timestamp or YYYY-MM-DD")
	}
	return t, nil
}

// HandleList returns all events with attendees expanded to name/email.
//
// HTTP: GET /api/events  (bearer)
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// HandleCreate stores a new event owned by the authenticated user.
//
// HTTP: POST /api/events/create  (bearer)
// BODY: {"title": "...", "description": "...", "date": "2025-01-01",
//
//	"location": "...", "category": "...", "visibility": "public"}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req createEventRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	date, err := parseEventDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Create(r.Context(), userID, service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		Category:    req.Category,
		Visibility:  req.Visibility,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// HandleUpdate applies a partial update to an event. Creator only.
//
// HTTP: PUT /api/events/edit/{id}  (bearer)
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	id := r.PathValue("id")

	var req updateEventRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}

	update := service.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Visibility:  req.Visibility,
	}
	if req.Date != nil {
		date, err := parseEventDate(*req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		update.Date = &date
	}

	event, err := h.events.Update(r.Context(), userID, id, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event. Creator only.
//
// HTTP: DELETE /api/events/delete/{id}  (bearer)
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	if err := h.events.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "event deleted"})
}

// HandleRSVP registers the authenticated user's attendance.
//
// HTTP: POST /api/events/rsvp/{id}  (bearer)
//
// 200 with the updated attendee list on success; 400 if the user already
// RSVP'd (non-fatal for the client); 404 if the event doesn't exist.
func (h *EventHandler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	attendees, err := h.events.RSVP(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attendeesResponse{Attendees: attendees})
}
