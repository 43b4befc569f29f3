package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/clock"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Listing bounds for ListUpcoming.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// EventReader is the lock-free read side of the ledger.
type EventReader interface {
	GetEventWithRoster(ctx context.Context, eventID string) (*model.EventDetail, error)
	ListUpcoming(ctx context.Context, now time.Time, limit, offset int) ([]model.UpcomingEvent, error)
	CountUpcoming(ctx context.Context, now time.Time) (int, error)
	RegistrationTotals(ctx context.Context, eventID string) (capacity, registered int, err error)
}

// AvailabilityReader answers roster, listing and occupancy questions. Results
// reflect committed data at read time and are informational only; the
// registration engine re-checks capacity under the event lock.
type AvailabilityReader struct {
	reader EventReader
	clock  clock.Clock
	tracer trace.Tracer
}

func NewAvailabilityReader(reader EventReader, clk clock.Clock) *AvailabilityReader {
	return &AvailabilityReader{
		reader: reader,
		clock:  clk,
		tracer: telemetry.Tracer(tracerName),
	}
}

// GetEventWithRoster returns the event and its roster ordered by registration
// time. The roster is never nil.
func (a *AvailabilityReader) GetEventWithRoster(ctx context.Context, eventID string) (*model.EventDetail, error) {
	ctx, span := a.tracer.Start(ctx, "AvailabilityReader.GetEventWithRoster",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	detail, err := a.reader.GetEventWithRoster(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if detail.Registrations == nil {
		detail.Registrations = []model.Attendee{}
	}
	return detail, nil
}

// ListUpcoming returns one page of events that start after now. The page and
// the total are read concurrently.
func (a *AvailabilityReader) ListUpcoming(ctx context.Context, limit, offset int) (*model.UpcomingPage, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, model.ValidationError{Field: "limit", Message: "limit must be between 1 and 100"}
	}
	if offset < 0 {
		return nil, model.ValidationError{Field: "offset", Message: "offset must be 0 or greater"}
	}

	ctx, span := a.tracer.Start(ctx, "AvailabilityReader.ListUpcoming", trace.WithAttributes(
		attribute.Int("page.limit", limit),
		attribute.Int("page.offset", offset),
	))
	defer span.End()

	now := a.clock.Now()
	var (
		events []model.UpcomingEvent
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = a.reader.ListUpcoming(gctx, now, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = a.reader.CountUpcoming(gctx, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.UpcomingEvent{}
	}

	return &model.UpcomingPage{
		Events:     events,
		Pagination: model.NewPagination(limit, offset, total),
	}, nil
}

// GetStats reports occupancy of one event. PercentageUsed is rounded to two
// decimal places, half away from zero.
func (a *AvailabilityReader) GetStats(ctx context.Context, eventID string) (*model.EventStats, error) {
	ctx, span := a.tracer.Start(ctx, "AvailabilityReader.GetStats",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	capacity, registered, err := a.reader.RegistrationTotals(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &model.EventStats{
		EventID:            eventID,
		Capacity:           capacity,
		TotalRegistrations: registered,
		RemainingCapacity:  capacity - registered,
		PercentageUsed:     PercentageUsed(registered, capacity),
	}, nil
}

// PercentageUsed returns registered/capacity*100 rounded to two places.
func PercentageUsed(registered, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(registered)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(capacity)), 2)
	return pct.InexactFloat64()
}
