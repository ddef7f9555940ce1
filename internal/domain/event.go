package domain

import (
	"context"
	"time"
)

// DefaultEventDuration is applied when an event has no explicit end.
const DefaultEventDuration = time.Hour

// Event is the catalog record other components query for event facts.
// swagger:model Event
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Location    string     `json:"location"`
	Capacity    int        `json:"capacity"`
	BasePrice   *float64   `json:"base_price,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, location string, startsAt time.Time, capacity int, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:     title,
		Location:  location,
		StartsAt:  startsAt,
		Capacity:  capacity,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// End returns the event end, defaulting to one hour after start.
func (e *Event) End() time.Time {
	if e.EndsAt != nil {
		return *e.EndsAt
	}
	return e.StartsAt.Add(DefaultEventDuration)
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}

// EventCatalog is the read side other components use to resolve event facts.
type EventCatalog interface {
	GetEvent(ctx context.Context, eventID string) (*Event, error)
}

// EventService defines organizer-facing catalog operations.
type EventService interface {
	EventCatalog
	CreateEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}
