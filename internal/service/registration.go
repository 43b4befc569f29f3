package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/clock"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/repository"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Shivanand-hulikatti/event-registration-api/internal/service"

// Transactor runs a function inside one ledger transaction. It is satisfied by
// *repository.Store.
type Transactor interface {
	InTx(ctx context.Context, fn repository.TxFunc) error
}

// RegistrationEngine performs Register and Cancel, each as a single
// transaction that starts by locking the event row. That lock is the only
// thing serializing attempts on the same event.
type RegistrationEngine struct {
	tx     Transactor
	clock  clock.Clock
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewRegistrationEngine(tx Transactor, clk clock.Clock, logger zerolog.Logger) *RegistrationEngine {
	return &RegistrationEngine{
		tx:     tx,
		clock:  clk,
		logger: logger.With().Str("component", "registration").Logger(),
		tracer: telemetry.Tracer(tracerName),
	}
}

// Register adds userID to the event's roster if the event has not started,
// the user exists and is not yet registered, and a seat is free.
func (e *RegistrationEngine) Register(ctx context.Context, eventID, userID string) (*model.RegistrationResult, error) {
	ctx, span := e.tracer.Start(ctx, "RegistrationEngine.Register", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()
	start := time.Now()

	var result *model.RegistrationResult
	err := e.tx.InTx(ctx, func(ctx context.Context, ledger repository.Ledger) error {
		event, err := ledger.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.HasStarted(e.clock.Now()) {
			return model.PastEventError{EventID: event.ID, StartsAt: event.StartsAt, Action: "register"}
		}
		if _, err := ledger.GetUser(ctx, userID); err != nil {
			return err
		}

		exists, err := ledger.RegistrationExists(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if exists {
			return model.AlreadyRegisteredError{EventID: eventID, UserID: userID}
		}

		count, err := ledger.CountRegistrations(ctx, eventID)
		if err != nil {
			return err
		}
		if count >= event.Capacity {
			return model.CapacityExceededError{Current: count, Capacity: event.Capacity}
		}

		reg, err := ledger.InsertRegistration(ctx, eventID, userID)
		if err != nil {
			return err
		}

		result = &model.RegistrationResult{
			RegistrationID:    reg.ID,
			EventID:           event.ID,
			UserID:            userID,
			EventTitle:        event.Title,
			RegisteredAt:      reg.RegisteredAt,
			RemainingCapacity: event.Capacity - (count + 1),
			Message:           fmt.Sprintf("Successfully registered for event: %s", event.Title),
		}
		return nil
	})

	e.observe(ctx, span, "register", eventID, userID, start, err)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("event.remaining_capacity", result.RemainingCapacity))
	return result, nil
}

// Cancel removes userID from the event's roster. It takes the same event lock
// as Register, so a cancellation and a registration for the last seat are
// ordered.
func (e *RegistrationEngine) Cancel(ctx context.Context, eventID, userID string) (*model.CancelResult, error) {
	ctx, span := e.tracer.Start(ctx, "RegistrationEngine.Cancel", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()
	start := time.Now()

	var result *model.CancelResult
	err := e.tx.InTx(ctx, func(ctx context.Context, ledger repository.Ledger) error {
		event, err := ledger.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.HasStarted(e.clock.Now()) {
			return model.PastEventError{EventID: event.ID, StartsAt: event.StartsAt, Action: "cancel registration"}
		}

		deleted, err := ledger.DeleteRegistration(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return model.NotFoundError{Resource: "registration"}
		}

		result = &model.CancelResult{
			EventID:    event.ID,
			UserID:     userID,
			EventTitle: event.Title,
			Message:    "Registration cancelled successfully",
		}
		return nil
	})

	e.observe(ctx, span, "cancel", eventID, userID, start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *RegistrationEngine) observe(ctx context.Context, span trace.Span, op, eventID, userID string, start time.Time, err error) {
	elapsed := time.Since(start)
	result := Outcome(err)

	metrics.RegistrationAttempts.WithLabelValues(op, result).Inc()
	metrics.RegistrationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.String("registration.outcome", result))

	base := e.logger
	if reqLogger := zerolog.Ctx(ctx); reqLogger.GetLevel() != zerolog.Disabled {
		base = reqLogger.With().Str("component", "registration").Logger()
	}
	logger := base.With().
		Str("operation", op).
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("outcome", result).
		Dur("duration", elapsed).
		Logger()

	switch result {
	case OutcomeSuccess:
		span.SetStatus(codes.Ok, "")
		logger.Info().Msg("registration operation completed")
	case OutcomeError:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("registration operation failed")
	default:
		logger.Warn().Err(err).Msg("registration operation rejected")
	}
}

// Outcome labels for metrics, spans and logs.
const (
	OutcomeSuccess           = "success"
	OutcomeNotFound          = "not_found"
	OutcomePastEvent         = "past_event"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeCapacityExceeded  = "capacity_exceeded"
	OutcomeValidation        = "validation"
	OutcomeError             = "error"
)

// Outcome classifies err into one of the closed set of outcome labels.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var (
		notFound   model.NotFoundError
		pastEvent  model.PastEventError
		already    model.AlreadyRegisteredError
		capacity   model.CapacityExceededError
		validation model.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return OutcomeNotFound
	case errors.As(err, &pastEvent):
		return OutcomePastEvent
	case errors.As(err, &already):
		return OutcomeAlreadyRegistered
	case errors.As(err, &capacity):
		return OutcomeCapacityExceeded
	case errors.As(err, &validation):
		return OutcomeValidation
	}
	return OutcomeError
}
