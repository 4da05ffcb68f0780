package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

// MaxTitleLength bounds event titles; anything longer is a validation error.
const MaxTitleLength = 200

// EventService handles business logic for events and attendance.
type EventService struct {
	events repository.EventRepository
	logger *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{events: events, logger: logger}
}

// EventInput carries the fields of a new event. The handler has already
// parsed the date; the service enforces the business rules.
type EventInput struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
	Category    string
	Visibility  string
}

// Create validates and stores a new event on behalf of creatorID.
// Visibility defaults to public when unset.
func (s *EventService) Create(ctx context.Context, creatorID string, in EventInput) (*model.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "event title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("event title must be %d characters or less", MaxTitleLength))
	}
	if in.Date.IsZero() {
		return nil, apperror.ValidationFailed("date", "event date is required")
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if visibility != model.VisibilityPublic && visibility != model.VisibilityPrivate {
		return nil, apperror.ValidationFailed("visibility", "visibility must be public or private")
	}

	event := &model.Event{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Location:    strings.TrimSpace(in.Location),
		Category:    strings.TrimSpace(in.Category),
		Visibility:  visibility,
		CreatedBy:   creatorID,
		AttendeeIDs: []string{},
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("title", event.Title),
		slog.String("createdBy", creatorID),
	)

	return event, nil
}

// Get returns a single event with its attendee ID set.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "event ID is required")
	}
	return s.events.GetEventByID(ctx, id)
}

// List returns all events with attendees expanded to display fields.
func (s *EventService) List(ctx context.Context) ([]model.EventWithAttendees, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		s.logger.Error("failed to list events", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// EventUpdate carries a partial event change: nil pointers mean "keep the
// current value". This is a field-level replace, never a destructive
// overwrite of omitted fields.
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Category    *string
	Visibility  *string
}

// Update applies a partial update to an event.
//
// Only the event's creator may edit it. The event is fetched first both to
// apply replace-if-present semantics and to run the ownership check before
// any write happens.
func (s *EventService) Update(ctx context.Context, callerID, id string, update EventUpdate) (*model.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.CreatedBy != callerID {
		return nil, apperror.Forbidden("only the event creator can edit this event")
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "event title cannot be empty")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("event title must be %d characters or less", MaxTitleLength))
		}
		event.Title = title
	}
	if update.Description != nil {
		event.Description = strings.TrimSpace(*update.Description)
	}
	if update.Date != nil {
		event.Date = *update.Date
	}
	if update.Location != nil {
		event.Location = strings.TrimSpace(*update.Location)
	}
	if update.Category != nil {
		event.Category = strings.TrimSpace(*update.Category)
	}
	if update.Visibility != nil {
		v := *update.Visibility
		if v != model.VisibilityPublic && v != model.VisibilityPrivate {
			return nil, apperror.ValidationFailed("visibility", "visibility must be public or private")
		}
		event.Visibility = v
	}

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		s.logger.Error("failed to update event",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("event updated", slog.String("id", event.ID))

	return event, nil
}

// Delete removes an event. Only the creator may delete it.
func (s *EventService) Delete(ctx context.Context, callerID, id string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if event.CreatedBy != callerID {
		return apperror.Forbidden("only the event creator can delete this event")
	}

	if err := s.events.DeleteEvent(ctx, event.ID); err != nil {
		return err
	}

	s.logger.Info("event deleted",
		slog.String("id", event.ID),
		slog.String("deletedBy", callerID),
	)
	return nil
}

// RSVP registers userID's attendance for an event and returns the updated
// attendee set.
//
// The add is delegated to the repository's atomic AddAttendee: there is no
// membership check here, because a check in this layer would reintroduce the
// read-modify-write race the store-level primitive exists to close. A repeat
// RSVP surfaces as ErrConflict — a non-fatal "already done" for the caller —
// and leaves the set untouched.
func (s *EventService) RSVP(ctx context.Context, eventID, userID string) ([]model.Attendee, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, apperror.ValidationFailed("id", "event ID is required")
	}

	if err := s.events.AddAttendee(ctx, eventID, userID); err != nil {
		return nil, err
	}

	attendees, err := s.events.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing attendees after rsvp: %w", err)
	}

	s.logger.Info("rsvp recorded",
		slog.String("eventID", eventID),
		slog.String("userID", userID),
		slog.Int("attendees", len(attendees)),
	)

	return attendees, nil
}
