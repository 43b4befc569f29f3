// Package service holds the business logic: event creation, the registration
// transaction engine and the availability read side.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/clock"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/repository"
	"github.com/rs/zerolog"
)

const (
	minTitleLength    = 3
	maxTitleLength    = 255
	maxLocationLength = 255
)

// Store is everything EventService needs from the ledger. *repository.Store
// satisfies it.
type Store interface {
	Transactor
	EventReader
}

// EventService is the surface the HTTP layer talks to. It validates event
// creation itself and delegates the rest.
type EventService struct {
	store  Store
	clock  clock.Clock
	logger zerolog.Logger

	*RegistrationEngine
	*AvailabilityReader
}

func NewEventService(store Store, clk clock.Clock, logger zerolog.Logger) *EventService {
	return &EventService{
		store:              store,
		clock:              clk,
		logger:             logger.With().Str("component", "events").Logger(),
		RegistrationEngine: NewRegistrationEngine(store, clk, logger),
		AvailabilityReader: NewAvailabilityReader(store, clk),
	}
}

// CreateEvent normalises and validates req, then stores a new event.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	event, err := s.newEvent(req)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, ledger repository.Ledger) error {
		return ledger.InsertEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	metrics.EventsCreated.Inc()
	s.logger.Info().
		Str("event_id", event.ID).
		Str("title", event.Title).
		Int("capacity", event.Capacity).
		Time("starts_at", event.StartsAt).
		Msg("event created")
	return event, nil
}

func (s *EventService) newEvent(req model.CreateEventRequest) (*model.Event, error) {
	title := strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
		return nil, model.ValidationError{Field: "title", Message: "title must be between 3 and 255 characters"}
	}

	if req.StartsAt.IsZero() {
		return nil, model.ValidationError{Field: "starts_at", Message: "starts_at is required"}
	}
	startsAt := req.StartsAt.UTC()
	if !startsAt.After(s.clock.Now()) {
		return nil, model.ValidationError{Field: "starts_at", Message: "starts_at must be in the future"}
	}

	var endsAt *time.Time
	if req.EndsAt != nil {
		end := req.EndsAt.UTC()
		if !end.After(startsAt) {
			return nil, model.ValidationError{Field: "ends_at", Message: "ends_at must be after starts_at"}
		}
		endsAt = &end
	}

	var location *string
	if req.Location != nil {
		loc := strings.TrimSpace(*req.Location)
		if utf8.RuneCountInString(loc) > maxLocationLength {
			return nil, model.ValidationError{Field: "location", Message: "location must be at most 255 characters"}
		}
		if loc != "" {
			location = &loc
		}
	}

	if req.Capacity < model.MinCapacity || req.Capacity > model.MaxCapacity {
		return nil, model.ValidationError{Field: "capacity", Message: "capacity must be between 1 and 1000"}
	}

	return &model.Event{
		Title:    title,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Location: location,
		Capacity: req.Capacity,
	}, nil
}
