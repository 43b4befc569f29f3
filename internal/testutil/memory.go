// Package testutil provides ledger implementations and fixtures for tests.
package testutil

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/repository"
	"github.com/google/uuid"
)

// MemoryStore is an in-process ledger with the same locking contract as the
// Postgres store: LockEvent blocks until no other transaction holds the event,
// and the lock is held until the transaction ends. Writes are buffered and
// become visible only on commit.
type MemoryStore struct {
	mu            sync.Mutex
	events        map[string]model.Event
	users         map[string]model.User
	registrations map[string][]model.Registration
	locks         map[string]chan struct{}

	now     func() time.Time
	pingErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:        make(map[string]model.Event),
		users:         make(map[string]model.User),
		registrations: make(map[string][]model.Registration),
		locks:         make(map[string]chan struct{}),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetPingError makes Ping fail with err. nil restores a healthy store.
func (s *MemoryStore) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pingErr != nil {
		return model.StorageError{Op: "ping", Err: s.pingErr}
	}
	return nil
}

// AddUser stores a user directly and returns it.
func (s *MemoryStore) AddUser(name, email string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: uuid.New().String(), Name: name, Email: email, CreatedAt: s.now()}
	s.users[u.ID] = u
	return u
}

// UpsertUser returns the user with email, creating it when absent.
func (s *MemoryStore) UpsertUser(_ context.Context, name, email string) (*model.User, error) {
	s.mu.Lock()
	for _, u := range s.users {
		if u.Email == email {
			s.mu.Unlock()
			return &u, nil
		}
	}
	s.mu.Unlock()
	u := s.AddUser(name, email)
	return &u, nil
}

// ListUsers returns every user ordered by name.
func (s *MemoryStore) ListUsers(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b model.User) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return users, nil
}

// AddEvent stores an event directly, bypassing validation. It is how tests
// plant events that have already started.
func (s *MemoryStore) AddEvent(e model.Event) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.events[e.ID] = e
	return e
}

// RegistrationCount returns the committed registration count of an event.
func (s *MemoryStore) RegistrationCount(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations[eventID])
}

func (s *MemoryStore) lockFor(eventID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[eventID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[eventID] = l
	}
	return l
}

// InTx runs fn against a transaction view of the store. Buffered writes are
// applied only when fn returns nil; event locks are released either way.
func (s *MemoryStore) InTx(ctx context.Context, fn repository.TxFunc) error {
	tx := &memoryTx{store: s, held: make(map[string]chan struct{})}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return model.StorageError{Op: "commit transaction", Err: err}
	}
	tx.commit()
	return nil
}

type memoryTx struct {
	store   *MemoryStore
	held    map[string]chan struct{}
	pending []func()

	inserted []model.Registration
	deleted  []model.Registration
	events   []model.Event
}

var _ repository.Ledger = (*memoryTx)(nil)

func (tx *memoryTx) release() {
	for _, l := range tx.held {
		<-l
	}
	tx.held = nil
}

func (tx *memoryTx) commit() {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for _, apply := range tx.pending {
		apply()
	}
}

func (tx *memoryTx) LockEvent(ctx context.Context, eventID string) (*model.Event, error) {
	if _, ok := tx.held[eventID]; !ok {
		l := tx.store.lockFor(eventID)
		select {
		case l <- struct{}{}:
			tx.held[eventID] = l
		case <-ctx.Done():
			return nil, model.StorageError{Op: "lock event", Err: ctx.Err()}
		}
	}
	return tx.event(eventID)
}

func (tx *memoryTx) event(eventID string) (*model.Event, error) {
	for _, e := range tx.events {
		if e.ID == eventID {
			return &e, nil
		}
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	e, ok := tx.store.events[eventID]
	if !ok {
		return nil, model.NotFoundError{Resource: "event"}
	}
	return &e, nil
}

func (tx *memoryTx) GetUser(_ context.Context, userID string) (*model.User, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	u, ok := tx.store.users[userID]
	if !ok {
		return nil, model.NotFoundError{Resource: "user"}
	}
	return &u, nil
}

// registered reports whether the pair is registered as seen by this
// transaction. Callers hold store.mu.
func (tx *memoryTx) registered(eventID, userID string) bool {
	for _, r := range tx.deleted {
		if r.EventID == eventID && r.UserID == userID {
			return false
		}
	}
	for _, r := range tx.inserted {
		if r.EventID == eventID && r.UserID == userID {
			return true
		}
	}
	for _, r := range tx.store.registrations[eventID] {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func (tx *memoryTx) RegistrationExists(_ context.Context, eventID, userID string) (bool, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return tx.registered(eventID, userID), nil
}

func (tx *memoryTx) CountRegistrations(_ context.Context, eventID string) (int, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	count := len(tx.store.registrations[eventID])
	for _, r := range tx.inserted {
		if r.EventID == eventID {
			count++
		}
	}
	for _, r := range tx.deleted {
		if r.EventID == eventID {
			count--
		}
	}
	return count, nil
}

func (tx *memoryTx) InsertRegistration(_ context.Context, eventID, userID string) (*model.Registration, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if _, ok := tx.store.users[userID]; !ok {
		return nil, model.NotFoundError{Resource: "user"}
	}
	if _, ok := tx.store.events[eventID]; !ok {
		return nil, model.NotFoundError{Resource: "event"}
	}
	if tx.registered(eventID, userID) {
		return nil, model.AlreadyRegisteredError{EventID: eventID, UserID: userID}
	}

	reg := model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: tx.store.now(),
	}
	tx.inserted = append(tx.inserted, reg)
	store := tx.store
	tx.pending = append(tx.pending, func() {
		store.registrations[eventID] = append(store.registrations[eventID], reg)
	})
	return &reg, nil
}

func (tx *memoryTx) DeleteRegistration(_ context.Context, eventID, userID string) (bool, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if !tx.registered(eventID, userID) {
		return false, nil
	}
	tx.deleted = append(tx.deleted, model.Registration{EventID: eventID, UserID: userID})
	store := tx.store
	tx.pending = append(tx.pending, func() {
		store.registrations[eventID] = slices.DeleteFunc(store.registrations[eventID], func(r model.Registration) bool {
			return r.UserID == userID
		})
	})
	return true, nil
}

func (tx *memoryTx) InsertEvent(_ context.Context, event *model.Event) error {
	if event.Capacity < model.MinCapacity || event.Capacity > model.MaxCapacity {
		return model.ValidationError{Field: "capacity", Message: "capacity must be between 1 and 1000"}
	}
	if event.EndsAt != nil && !event.EndsAt.After(event.StartsAt) {
		return model.ValidationError{Field: "ends_at", Message: "ends_at must be after starts_at"}
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = tx.store.now()

	e := *event
	tx.events = append(tx.events, e)
	store := tx.store
	tx.pending = append(tx.pending, func() {
		store.events[e.ID] = e
	})
	return nil
}

// Read side. These see committed data only and take no event locks.

func (s *MemoryStore) GetEventWithRoster(_ context.Context, eventID string) (*model.EventDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, model.NotFoundError{Resource: "event"}
	}
	regs := slices.Clone(s.registrations[eventID])
	slices.SortStableFunc(regs, func(a, b model.Registration) int {
		return a.RegisteredAt.Compare(b.RegisteredAt)
	})

	detail := &model.EventDetail{Event: e, Registrations: []model.Attendee{}}
	for _, r := range regs {
		u := s.users[r.UserID]
		detail.Registrations = append(detail.Registrations, model.Attendee{UserID: u.ID, Name: u.Name, Email: u.Email})
	}
	return detail, nil
}

func (s *MemoryStore) ListUpcoming(_ context.Context, now time.Time, limit, offset int) ([]model.UpcomingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	upcoming := s.upcoming(now)
	slices.SortFunc(upcoming, compareUpcoming)

	page := []model.UpcomingEvent{}
	for i := offset; i < len(upcoming) && i < offset+limit; i++ {
		e := upcoming[i]
		ev := model.UpcomingEvent{
			ID:              e.ID,
			Title:           e.Title,
			StartsAt:        e.StartsAt,
			Location:        e.Location,
			Capacity:        e.Capacity,
			RegisteredCount: len(s.registrations[e.ID]),
		}
		ev.Annotate()
		page = append(page, ev)
	}
	return page, nil
}

func (s *MemoryStore) CountUpcoming(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upcoming(now)), nil
}

func (s *MemoryStore) RegistrationTotals(_ context.Context, eventID string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return 0, 0, model.NotFoundError{Resource: "event"}
	}
	return e.Capacity, len(s.registrations[eventID]), nil
}

func (s *MemoryStore) upcoming(now time.Time) []model.Event {
	var out []model.Event
	for _, e := range s.events {
		if e.StartsAt.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// compareUpcoming orders by start time, then location with absent locations
// last, then id.
func compareUpcoming(a, b model.Event) int {
	if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
		return c
	}
	switch {
	case a.Location == nil && b.Location != nil:
		return 1
	case a.Location != nil && b.Location == nil:
		return -1
	case a.Location != nil && b.Location != nil:
		if c := cmp.Compare(*a.Location, *b.Location); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}
