package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type inventoryService struct {
	catalog        domain.EventCatalog
	typeRepo       domain.TicketTypeRepository
	clock          clock.Clock
	contextTimeout time.Duration
	logger         *slog.Logger
	typeLocks      *keyedMutex
	eventLocks     *keyedMutex
}

// NewInventoryService returns the InventoryService. Counter updates for a ticket
// type are serialized in process; different ticket types proceed concurrently.
func NewInventoryService(
	catalog domain.EventCatalog,
	typeRepo domain.TicketTypeRepository,
	clk clock.Clock,
	timeout time.Duration,
	logger *slog.Logger,
) domain.InventoryService {
	return &inventoryService{
		catalog:        catalog,
		typeRepo:       typeRepo,
		clock:          clk,
		contextTimeout: timeout,
		logger:         logger,
		typeLocks:      newKeyedMutex(),
		eventLocks:     newKeyedMutex(),
	}
}

// GetOrDefaultTicketTypes lists the event's ticket types. An event without any gets a
// single "Standard Admission" type priced at the event's base price (or 0) with the
// event capacity as its allocation. The default is persisted, so it is created once.
func (s *inventoryService) GetOrDefaultTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	unlock := s.eventLocks.Lock(eventID)
	defer unlock()

	types, err := s.typeRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	if len(types) > 0 {
		return types, nil
	}

	price := 0.0
	if event.BasePrice != nil {
		price = *event.BasePrice
	}
	tt := domain.NewTicketType(eventID, domain.DefaultTicketTypeName, price, event.Capacity, s.clock.Now())
	if err := s.typeRepo.Upsert(ctx, tt); err != nil {
		return nil, fmt.Errorf("create default ticket type: %w", err)
	}
	s.logger.InfoContext(ctx, "default ticket type created",
		"event_id", eventID, "ticket_type_id", tt.ID, "available", tt.Available)
	return []*domain.TicketType{tt}, nil
}

func (s *inventoryService) CreateTicketType(ctx context.Context, eventID, name string, price float64, available int) (*domain.TicketType, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	var msgs []string
	if name == "" {
		msgs = append(msgs, "name is required")
	}
	if price < 0 {
		msgs = append(msgs, "price must be >= 0")
	}
	if available < 0 {
		msgs = append(msgs, "available must be >= 0")
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	if _, err := s.catalog.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	unlock := s.eventLocks.Lock(eventID)
	defer unlock()

	tt := domain.NewTicketType(eventID, name, price, available, s.clock.Now())
	if err := s.typeRepo.Upsert(ctx, tt); err != nil {
		return nil, fmt.Errorf("create ticket type: %w", err)
	}
	return tt, nil
}

func (s *inventoryService) Reserve(ctx context.Context, ticketTypeID string, quantity int) (*domain.TicketType, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	unlock := s.typeLocks.Lock(ticketTypeID)
	defer unlock()

	tt, err := s.getTicketType(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	if tt.Remaining() < quantity {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", domain.ErrInsufficientInventory, quantity, tt.Remaining())
	}
	tt.Sold += quantity
	tt.UpdatedAt = s.clock.Now()
	if err := s.typeRepo.Upsert(ctx, tt); err != nil {
		return nil, fmt.Errorf("save ticket type: %w", err)
	}
	s.logger.DebugContext(ctx, "inventory reserved", "ticket_type_id", tt.ID, "quantity", quantity, "sold", tt.Sold)
	return tt, nil
}

// Release returns quantity units to the pool. Sold is clamped at zero.
func (s *inventoryService) Release(ctx context.Context, ticketTypeID string, quantity int) (*domain.TicketType, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	unlock := s.typeLocks.Lock(ticketTypeID)
	defer unlock()

	tt, err := s.getTicketType(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	tt.Sold = max(tt.Sold-quantity, 0)
	tt.UpdatedAt = s.clock.Now()
	if err := s.typeRepo.Upsert(ctx, tt); err != nil {
		return nil, fmt.Errorf("save ticket type: %w", err)
	}
	s.logger.DebugContext(ctx, "inventory released", "ticket_type_id", tt.ID, "quantity", quantity, "sold", tt.Sold)
	return tt, nil
}

func (s *inventoryService) getTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	tt, err := s.typeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownTicketType
		}
		return nil, fmt.Errorf("get ticket type: %w", err)
	}
	return tt, nil
}
