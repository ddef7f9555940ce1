package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

const ticketNumberAttempts = 3

type ledgerService struct {
	catalog   domain.EventCatalog
	inventory domain.InventoryService
	tickets   domain.TicketRepository
	issuer    domain.CredentialIssuer
	payments  domain.PaymentAuthorizer
	calendar  domain.CalendarService
	clock     clock.Clock
	logger    *slog.Logger

	contextTimeout time.Duration

	purchaseLocks *keyedMutex
	ticketLocks   *keyedMutex
}

// LedgerOption configures the ticket ledger.
type LedgerOption func(*ledgerService)

// WithCalendar lets purchases add the event to the buyer's calendar on request.
func WithCalendar(cal domain.CalendarService) LedgerOption {
	return func(s *ledgerService) {
		s.calendar = cal
	}
}

// NewLedgerService returns the TicketLedgerService.
func NewLedgerService(
	catalog domain.EventCatalog,
	inventory domain.InventoryService,
	tickets domain.TicketRepository,
	issuer domain.CredentialIssuer,
	payments domain.PaymentAuthorizer,
	clk clock.Clock,
	timeout time.Duration,
	logger *slog.Logger,
	opts ...LedgerOption,
) domain.TicketLedgerService {
	s := &ledgerService{
		catalog:        catalog,
		inventory:      inventory,
		tickets:        tickets,
		issuer:         issuer,
		payments:       payments,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
		purchaseLocks:  newKeyedMutex(),
		ticketLocks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase authorizes payment, reserves inventory and issues req.Quantity tickets.
// Either every ticket is issued or none is: a failure after the reservation cancels
// anything written, releases the inventory and voids the authorization.
func (s *ledgerService) Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.PurchaseResult, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	event, err := s.catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	// The issuance sequence is per (event, owner).
	unlock := s.purchaseLocks.Lock(pairKey(event.ID, req.OwnerID))
	defer unlock()

	tt, err := s.resolveTicketType(ctx, event.ID, req.TicketTypeID)
	if err != nil {
		return nil, err
	}
	if tt.Remaining() < req.Quantity {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", domain.ErrInsufficientInventory, req.Quantity, tt.Remaining())
	}

	total := tt.Price * float64(req.Quantity)
	authID, err := s.payments.Authorize(ctx, total, req.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentDeclined) {
			return nil, err
		}
		return nil, fmt.Errorf("authorize payment: %w", err)
	}

	if _, err := s.inventory.Reserve(ctx, tt.ID, req.Quantity); err != nil {
		s.voidAuthorization(context.WithoutCancel(ctx), authID)
		return nil, err
	}

	issued, err := s.issue(ctx, event.ID, tt, req)
	if err != nil {
		s.rollbackPurchase(context.WithoutCancel(ctx), tt.ID, req.Quantity, issued, authID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "tickets purchased",
		"event_id", event.ID, "ticket_type_id", tt.ID, "owner_id", req.OwnerID,
		"quantity", req.Quantity, "total", total)

	if req.AddToCalendar && s.calendar != nil {
		if _, err := s.calendar.Add(ctx, req.OwnerID, event.ID); err != nil && !errors.Is(err, domain.ErrAlreadyInCalendar) {
			s.logger.WarnContext(ctx, "add purchased event to calendar", "event_id", event.ID, "owner_id", req.OwnerID, "err", err)
		}
	}

	return &domain.PurchaseResult{
		Tickets:         issued,
		Total:           total,
		AuthorizationID: authID,
	}, nil
}

func (s *ledgerService) resolveTicketType(ctx context.Context, eventID, ticketTypeID string) (*domain.TicketType, error) {
	types, err := s.inventory.GetOrDefaultTicketTypes(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ticketTypeID == "" {
		return types[0], nil
	}
	for _, tt := range types {
		if tt.ID == ticketTypeID {
			return tt, nil
		}
	}
	return nil, domain.ErrUnknownTicketType
}

// issue writes the tickets. On error it returns the tickets already written.
func (s *ledgerService) issue(ctx context.Context, eventID string, tt *domain.TicketType, req domain.PurchaseRequest) ([]*domain.Ticket, error) {
	existing, err := s.tickets.ListByEventAndOwner(ctx, eventID, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list owner tickets: %w", err)
	}
	next := 0
	for _, t := range existing {
		next = max(next, t.Sequence+1)
	}

	// Durable stores keep microseconds; the nonce must survive a reload.
	purchasedAt := s.clock.Now().Truncate(time.Microsecond)
	issued := make([]*domain.Ticket, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		t := &domain.Ticket{
			ID:           uuid.NewString(),
			EventID:      eventID,
			TicketTypeID: tt.ID,
			OwnerID:      req.OwnerID,
			UnitPrice:    tt.Price,
			Status:       domain.TicketStatusConfirmed,
			PurchasedAt:  purchasedAt,
			Sequence:     next + i,
		}
		code, err := s.issuer.Issue(t)
		if err != nil {
			return issued, fmt.Errorf("issue credential: %w", err)
		}
		t.Credential = &code
		if err := s.createWithNumber(ctx, t); err != nil {
			return issued, err
		}
		issued = append(issued, t)
	}
	return issued, nil
}

func (s *ledgerService) createWithNumber(ctx context.Context, t *domain.Ticket) error {
	var err error
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		t.TicketNumber = newTicketNumber()
		err = s.tickets.Create(ctx, t)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func newTicketNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TKT-" + strings.ToUpper(raw[:6]) + "-" + strings.ToUpper(raw[6:12])
}

func (s *ledgerService) rollbackPurchase(ctx context.Context, ticketTypeID string, quantity int, issued []*domain.Ticket, authID string) {
	now := s.clock.Now()
	for _, t := range issued {
		t.Status = domain.TicketStatusCanceled
		t.CanceledAt = &now
		if err := s.tickets.Update(ctx, t); err != nil {
			s.logger.ErrorContext(ctx, "rollback ticket", "ticket_id", t.ID, "err", err)
		}
	}
	if _, err := s.inventory.Release(ctx, ticketTypeID, quantity); err != nil {
		s.logger.ErrorContext(ctx, "rollback inventory", "ticket_type_id", ticketTypeID, "quantity", quantity, "err", err)
	}
	s.voidAuthorization(ctx, authID)
}

func (s *ledgerService) voidAuthorization(ctx context.Context, authID string) {
	if err := s.payments.Void(ctx, authID); err != nil {
		s.logger.ErrorContext(ctx, "void payment authorization", "authorization_id", authID, "err", err)
	}
}

// CheckIn marks a confirmed ticket as used. Checking in twice is an error.
func (s *ledgerService) CheckIn(ctx context.Context, ticketID, checkerID string) (*domain.Ticket, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.ticketLocks.Lock(ticketID)
	defer unlock()

	t, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.checkIn(ctx, t, checkerID)
}

func (s *ledgerService) checkIn(ctx context.Context, t *domain.Ticket, checkerID string) (*domain.Ticket, error) {
	switch t.Status {
	case domain.TicketStatusUsed:
		return nil, domain.ErrAlreadyUsed
	case domain.TicketStatusCanceled:
		return nil, domain.ErrTicketCanceled
	}
	now := s.clock.Now()
	t.Status = domain.TicketStatusUsed
	t.CheckedInAt = &now
	t.CheckedInBy = &checkerID
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	s.logger.InfoContext(ctx, "ticket checked in", "ticket_id", t.ID, "event_id", t.EventID, "checker_id", checkerID)
	return t, nil
}

// Cancel cancels a confirmed ticket and returns its seat to the pool.
func (s *ledgerService) Cancel(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.ticketLocks.Lock(ticketID)
	defer unlock()

	t, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case domain.TicketStatusUsed:
		return nil, domain.ErrCannotCancelUsedTicket
	case domain.TicketStatusCanceled:
		return nil, domain.ErrTicketCanceled
	}

	now := s.clock.Now()
	t.Status = domain.TicketStatusCanceled
	t.CanceledAt = &now
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	if _, err := s.inventory.Release(ctx, t.TicketTypeID, 1); err != nil {
		t.Status = domain.TicketStatusConfirmed
		t.CanceledAt = nil
		if rerr := s.tickets.Update(ctx, t); rerr != nil {
			s.logger.ErrorContext(ctx, "restore ticket after failed release", "ticket_id", t.ID, "err", rerr)
		}
		return nil, fmt.Errorf("release inventory: %w", err)
	}
	s.logger.InfoContext(ctx, "ticket canceled", "ticket_id", t.ID, "event_id", t.EventID)
	return t, nil
}

// VerifyCredential resolves the ticket behind a scanned credential and checks it in.
func (s *ledgerService) VerifyCredential(ctx context.Context, code, checkerID string) (*domain.Ticket, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	claims, err := s.issuer.Parse(code)
	if err != nil {
		return nil, err
	}
	candidates, err := s.tickets.ListByEventAndOwner(ctx, claims.EventID, claims.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list owner tickets: %w", err)
	}
	var ticketID string
	for _, t := range candidates {
		if t.IssuanceNonce() == claims.Nonce {
			ticketID = t.ID
			break
		}
	}
	if ticketID == "" {
		return nil, domain.ErrTicketNotFound
	}
	return s.CheckIn(ctx, ticketID, checkerID)
}

func (s *ledgerService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.getTicket(ctx, ticketID)
}

func (s *ledgerService) ListTicketsByOwner(ctx context.Context, ownerID string) ([]*domain.Ticket, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	tickets, err := s.tickets.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	if tickets == nil {
		tickets = []*domain.Ticket{}
	}
	return tickets, nil
}

// RegenerateCredential re-derives the ticket credential and stores it if it drifted.
func (s *ledgerService) RegenerateCredential(ctx context.Context, ticketID string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.ticketLocks.Lock(ticketID)
	defer unlock()

	t, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	code, err := s.issuer.Issue(t)
	if err != nil {
		return "", fmt.Errorf("issue credential: %w", err)
	}
	if t.Credential == nil || *t.Credential != code {
		t.Credential = &code
		if err := s.tickets.Update(ctx, t); err != nil {
			return "", fmt.Errorf("update ticket: %w", err)
		}
	}
	return code, nil
}

func (s *ledgerService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}
