package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ledger is the set of capacity-ledger operations the registration engine
// composes inside one transaction.
type Ledger interface {
	// LockEvent loads the event and holds an exclusive lock on its row until
	// the enclosing transaction ends.
	LockEvent(ctx context.Context, eventID string) (*model.Event, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	RegistrationExists(ctx context.Context, eventID, userID string) (bool, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)
	InsertRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error)
	DeleteRegistration(ctx context.Context, eventID, userID string) (bool, error)
	InsertEvent(ctx context.Context, event *model.Event) error
}

// TxFunc is the body of a ledger transaction.
type TxFunc func(ctx context.Context, ledger Ledger) error

var _ Ledger = (*Store)(nil)

const eventColumns = `id, title, starts_at, ends_at, location, capacity, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.Location, &e.Capacity, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// LockEvent acquires the event row with SELECT … FOR UPDATE.
//
// Every Register and Cancel for the same event takes this lock first, so the
// registration count read afterwards cannot be changed by a concurrent
// transaction until this one commits or rolls back. Other events are not
// affected.
func (s *Store) LockEvent(ctx context.Context, eventID string) (*model.Event, error) {
	if !validID(eventID) {
		return nil, model.NotFoundError{Resource: "event"}
	}
	event, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFoundError{Resource: "event"}
		}
		if isLockNotAvailable(err) {
			return nil, storageErr("lock event: timed out waiting for lock", err)
		}
		return nil, storageErr("lock event", err)
	}
	return event, nil
}

// RegistrationExists reports whether the (user, event) pair is registered.
func (s *Store) RegistrationExists(ctx context.Context, eventID, userID string) (bool, error) {
	if !validID(eventID, userID) {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, storageErr("check registration", err)
	}
	return exists, nil
}

// CountRegistrations returns the number of registrations held by an event.
func (s *Store) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	if !validID(eventID) {
		return 0, nil
	}
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, storageErr("count registrations", err)
	}
	return count, nil
}

// InsertRegistration creates the registration row. registered_at is assigned
// by the database. The unique and foreign-key constraints are a last line of
// defence behind the engine's own checks and are reported as the matching
// business errors.
func (s *Store) InsertRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	if !validID(eventID) {
		return nil, model.NotFoundError{Resource: "event"}
	}
	if !validID(userID) {
		return nil, model.NotFoundError{Resource: "user"}
	}
	reg := &model.Registration{
		ID:      uuid.New().String(),
		EventID: eventID,
		UserID:  userID,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO registrations (id, user_id, event_id)
		 VALUES ($1, $2, $3)
		 RETURNING registered_at`,
		reg.ID, reg.UserID, reg.EventID,
	).Scan(&reg.RegisteredAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, model.AlreadyRegisteredError{EventID: eventID, UserID: userID}
		case isForeignKeyViolation(err):
			return nil, model.NotFoundError{Resource: fkResource(err)}
		}
		return nil, storageErr("insert registration", err)
	}
	return reg, nil
}

// DeleteRegistration removes the (user, event) registration and reports
// whether a row existed.
func (s *Store) DeleteRegistration(ctx context.Context, eventID, userID string) (bool, error) {
	if !validID(eventID, userID) {
		return false, nil
	}
	tag, err := s.db.Exec(ctx,
		`DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return false, storageErr("delete registration", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertEvent persists a new event. Empty ID and CreatedAt are filled in.
func (s *Store) InsertEvent(ctx context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO events (id, title, starts_at, ends_at, location, capacity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		event.ID, event.Title, event.StartsAt, event.EndsAt, event.Location, event.Capacity,
	).Scan(&event.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return checkViolation(err)
		}
		return storageErr("insert event", err)
	}
	return nil
}

func fkResource(err error) string {
	name := constraintName(err)
	switch {
	case strings.Contains(name, "user"):
		return "user"
	case strings.Contains(name, "event"):
		return "event"
	}
	return "user or event"
}

func checkViolation(err error) error {
	switch constraintName(err) {
	case "events_capacity_check":
		return model.ValidationError{Field: "capacity", Message: "capacity must be between 1 and 1000"}
	case "events_ends_after_starts_check":
		return model.ValidationError{Field: "ends_at", Message: "ends_at must be after starts_at"}
	case "events_title_check":
		return model.ValidationError{Field: "title", Message: "title must not be empty"}
	}
	return model.ValidationError{Message: "event violates a storage constraint"}
}
