package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/jackc/pgx/v5"
)

// Read-side queries. None of them lock; they see read-committed data and are
// informational only.

// GetEventWithRoster returns the event and every registered user, ordered by
// registration time. An event with no registrations has an empty roster.
func (s *Store) GetEventWithRoster(ctx context.Context, eventID string) (*model.EventDetail, error) {
	if !validID(eventID) {
		return nil, model.NotFoundError{Resource: "event"}
	}
	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.title, e.starts_at, e.ends_at, e.location, e.capacity, e.created_at,
		        u.id, u.name, u.email
		 FROM events e
		 LEFT JOIN registrations r ON r.event_id = e.id
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE e.id = $1
		 ORDER BY r.registered_at ASC, u.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, storageErr("get event roster", err)
	}
	defer rows.Close()

	var detail *model.EventDetail
	for rows.Next() {
		var (
			e                   model.Event
			userID, name, email *string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Location, &e.Capacity, &e.CreatedAt,
			&userID, &name, &email); err != nil {
			return nil, storageErr("scan event roster", err)
		}
		if detail == nil {
			detail = &model.EventDetail{Event: e, Registrations: []model.Attendee{}}
		}
		if userID != nil {
			detail.Registrations = append(detail.Registrations, model.Attendee{
				UserID: *userID,
				Name:   deref(name),
				Email:  deref(email),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get event roster", err)
	}
	if detail == nil {
		return nil, model.NotFoundError{Resource: "event"}
	}
	return detail, nil
}

// ListUpcoming returns one page of events starting strictly after now,
// ordered by start time, then location with absent locations last.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, limit, offset int) ([]model.UpcomingEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.title, e.starts_at, e.location, e.capacity, COUNT(r.id)
		 FROM events e
		 LEFT JOIN registrations r ON r.event_id = e.id
		 WHERE e.starts_at > $1
		 GROUP BY e.id
		 ORDER BY e.starts_at ASC, e.location ASC NULLS LAST, e.id ASC
		 LIMIT $2 OFFSET $3`,
		now, limit, offset,
	)
	if err != nil {
		return nil, storageErr("list upcoming events", err)
	}
	defer rows.Close()

	events := []model.UpcomingEvent{}
	for rows.Next() {
		var ev model.UpcomingEvent
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.StartsAt, &ev.Location, &ev.Capacity, &ev.RegisteredCount); err != nil {
			return nil, storageErr("scan upcoming event", err)
		}
		ev.Annotate()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list upcoming events", err)
	}
	return events, nil
}

// CountUpcoming counts every event starting strictly after now.
func (s *Store) CountUpcoming(ctx context.Context, now time.Time) (int, error) {
	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE starts_at > $1`,
		now,
	).Scan(&total); err != nil {
		return 0, storageErr("count upcoming events", err)
	}
	return total, nil
}

// RegistrationTotals returns an event's capacity and current registration count.
func (s *Store) RegistrationTotals(ctx context.Context, eventID string) (capacity, registered int, err error) {
	if !validID(eventID) {
		return 0, 0, model.NotFoundError{Resource: "event"}
	}
	err = s.db.QueryRow(ctx,
		`SELECT e.capacity, COUNT(r.id)
		 FROM events e
		 LEFT JOIN registrations r ON r.event_id = e.id
		 WHERE e.id = $1
		 GROUP BY e.id`,
		eventID,
	).Scan(&capacity, &registered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, model.NotFoundError{Resource: "event"}
		}
		return 0, 0, storageErr("registration totals", err)
	}
	return capacity, registered, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
