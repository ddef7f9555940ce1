package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	clock          clock.Clock
	contextTimeout time.Duration
}

// NewEventService returns the event catalog backed by eventRepo.
func NewEventService(eventRepo domain.EventRepository, clk clock.Clock, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		clock:          clk,
		contextTimeout: timeout,
	}
}

// withTimeout bounds ctx by d. A non-positive d leaves ctx without a deadline of its own.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Title = strings.TrimSpace(event.Title)
	event.Location = strings.TrimSpace(event.Location)
	if msgs := validateEvent(event); len(msgs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}

	now := s.clock.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func validateEvent(e *domain.Event) []string {
	var msgs []string
	if e.Title == "" {
		msgs = append(msgs, "title is required")
	}
	if e.StartsAt.IsZero() {
		msgs = append(msgs, "starts_at is required")
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		msgs = append(msgs, "ends_at must not be before starts_at")
	}
	if e.Capacity < 0 {
		msgs = append(msgs, "capacity must be >= 0")
	}
	if e.BasePrice != nil && *e.BasePrice < 0 {
		msgs = append(msgs, "base_price must be >= 0")
	}
	return msgs
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}
