// Package model defines the core domain types for the event registration system.
package model

import "time"

// Capacity bounds enforced by both request validation and the events table.
const (
	MinCapacity = 1
	MaxCapacity = 1000
)

// Event represents a registrable event. Events are never mutated after creation.
type Event struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	Location  *string    `json:"location"`
	Capacity  int        `json:"capacity"`
	CreatedAt time.Time  `json:"created_at"`
}

// HasStarted reports whether the event start is not strictly after now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// User is a registrant. Users are owned outside the registration core.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Registration links one user to one event.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Attendee is a roster entry.
type Attendee struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// EventDetail is an event together with its full roster.
type EventDetail struct {
	Event
	Registrations []Attendee `json:"registrations"`
}

// UpcomingEvent is a listing row annotated with occupancy figures.
type UpcomingEvent struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	StartsAt          time.Time `json:"starts_at"`
	Location          *string   `json:"location"`
	Capacity          int       `json:"capacity"`
	RegisteredCount   int       `json:"registered_count"`
	RemainingCapacity int       `json:"remaining_capacity"`
	IsFull            bool      `json:"is_full"`
}

// Annotate fills the derived occupancy fields from Capacity and RegisteredCount.
func (u *UpcomingEvent) Annotate() {
	u.RemainingCapacity = u.Capacity - u.RegisteredCount
	u.IsFull = u.RegisteredCount >= u.Capacity
}

// Pagination describes an offset page of a listing.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Total      int  `json:"total"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset"`
}

// NewPagination computes page metadata for a listing of total rows.
func NewPagination(limit, offset, total int) Pagination {
	p := Pagination{Limit: limit, Offset: offset, Total: total}
	if offset+limit < total {
		next := offset + limit
		p.HasMore = true
		p.NextOffset = &next
	}
	return p
}

// UpcomingPage is one page of upcoming events.
type UpcomingPage struct {
	Events     []UpcomingEvent `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// EventStats summarises occupancy of a single event.
type EventStats struct {
	EventID            string  `json:"event_id"`
	Capacity           int     `json:"capacity"`
	TotalRegistrations int     `json:"total_registrations"`
	RemainingCapacity  int     `json:"remaining_capacity"`
	PercentageUsed     float64 `json:"percentage_used"`
}

// RegistrationResult is returned by a successful registration.
type RegistrationResult struct {
	RegistrationID    string    `json:"registration_id"`
	EventID           string    `json:"event_id"`
	UserID            string    `json:"user_id"`
	EventTitle        string    `json:"event_title"`
	RegisteredAt      time.Time `json:"registered_at"`
	RemainingCapacity int       `json:"remaining_capacity"`
	Message           string    `json:"message"`
}

// CancelResult is returned by a successful cancellation.
type CancelResult struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	EventTitle string `json:"event_title"`
	Message    string `json:"message"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title    string     `json:"title" validate:"required,min=3,max=255"`
	StartsAt time.Time  `json:"starts_at" validate:"required"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Location *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Capacity int        `json:"capacity" validate:"required,min=1,max=1000"`
}

// CreateEventResponse acknowledges a created event.
type CreateEventResponse struct {
	EventID string `json:"event_id"`
	Message string `json:"message"`
}

// RegisterRequest is the payload for registering or cancelling attendance.
type RegisterRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ErrorBody carries a stable machine-readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
