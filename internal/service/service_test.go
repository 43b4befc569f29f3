package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/clock"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventService(t *testing.T) (*EventService, *testutil.MemoryStore) {
	t.Helper()
	store := testutil.NewMemoryStore()
	return NewEventService(store, clock.NewFixed(testNow), zerolog.Nop()), store
}

func TestCreateEvent_Normalises(t *testing.T) {
	svc, _ := newEventService(t)
	starts := testNow.Add(48 * time.Hour).In(time.FixedZone("EST", -5*3600))
	ends := starts.Add(2 * time.Hour)

	event, err := svc.CreateEvent(context.Background(), model.CreateEventRequest{
		Title:    "  Tech Conference 2026  ",
		StartsAt: starts,
		EndsAt:   &ends,
		Location: strPtr("  Convention Center "),
		Capacity: 100,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "Tech Conference 2026", event.Title)
	assert.Equal(t, time.UTC, event.StartsAt.Location())
	assert.True(t, event.StartsAt.Equal(starts))
	require.NotNil(t, event.EndsAt)
	assert.True(t, event.EndsAt.Equal(ends))
	require.NotNil(t, event.Location)
	assert.Equal(t, "Convention Center", *event.Location)
	assert.False(t, event.CreatedAt.IsZero())

	detail, err := svc.GetEventWithRoster(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, detail.Title)
}

func TestCreateEvent_BlankLocationIsAbsent(t *testing.T) {
	svc, _ := newEventService(t)

	event, err := svc.CreateEvent(context.Background(), model.CreateEventRequest{
		Title:    "Workshop",
		StartsAt: testNow.Add(time.Hour),
		Location: strPtr("   "),
		Capacity: 25,
	})
	require.NoError(t, err)
	assert.Nil(t, event.Location)
}

func TestCreateEvent_Validation(t *testing.T) {
	future := testNow.Add(time.Hour)
	before := future.Add(-time.Minute)

	tests := []struct {
		name  string
		req   model.CreateEventRequest
		field string
	}{
		{"title too short after trim", model.CreateEventRequest{Title: "  ab  ", StartsAt: future, Capacity: 10}, "title"},
		{"title too long", model.CreateEventRequest{Title: strings.Repeat("x", 256), StartsAt: future, Capacity: 10}, "title"},
		{"missing start", model.CreateEventRequest{Title: "Valid", Capacity: 10}, "starts_at"},
		{"start in the past", model.CreateEventRequest{Title: "Valid", StartsAt: testNow.Add(-time.Second), Capacity: 10}, "starts_at"},
		{"start exactly now", model.CreateEventRequest{Title: "Valid", StartsAt: testNow, Capacity: 10}, "starts_at"},
		{"end before start", model.CreateEventRequest{Title: "Valid", StartsAt: future, EndsAt: &before, Capacity: 10}, "ends_at"},
		{"end equals start", model.CreateEventRequest{Title: "Valid", StartsAt: future, EndsAt: &future, Capacity: 10}, "ends_at"},
		{"location too long", model.CreateEventRequest{Title: "Valid", StartsAt: future, Location: strPtr(strings.Repeat("l", 256)), Capacity: 10}, "location"},
		{"capacity zero", model.CreateEventRequest{Title: "Valid", StartsAt: future, Capacity: 0}, "capacity"},
		{"capacity too large", model.CreateEventRequest{Title: "Valid", StartsAt: future, Capacity: 1001}, "capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newEventService(t)
			_, err := svc.CreateEvent(context.Background(), tt.req)
			var verr model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateEvent_CapacityBounds(t *testing.T) {
	svc, _ := newEventService(t)
	for _, capacity := range []int{model.MinCapacity, model.MaxCapacity} {
		_, err := svc.CreateEvent(context.Background(), model.CreateEventRequest{
			Title:    "Bounds",
			StartsAt: testNow.Add(time.Hour),
			Capacity: capacity,
		})
		assert.NoError(t, err, "capacity %d", capacity)
	}
}

func TestEventService_EndToEnd(t *testing.T) {
	svc, store := newEventService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, model.CreateEventRequest{
		Title:    "Launch",
		StartsAt: testNow.Add(24 * time.Hour),
		Capacity: 2,
	})
	require.NoError(t, err)

	user := store.AddUser("John Doe", "john@example.com")
	res, err := svc.Register(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemainingCapacity)

	stats, err := svc.GetStats(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.PercentageUsed)

	page, err := svc.ListUpcoming(ctx, DefaultLimit, 0)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, 1, page.Events[0].RegisteredCount)

	_, err = svc.Cancel(ctx, event.ID, user.ID)
	require.NoError(t, err)

	stats, err = svc.GetStats(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalRegistrations)
}
