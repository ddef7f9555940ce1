package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventticketing/internal/clock"
	"eventticketing/internal/credential"
	"eventticketing/internal/domain"
	"eventticketing/internal/ical"
	"eventticketing/internal/repository/memory"
)

var testNow = time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)

const testTimeout = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakePayments struct {
	mu          sync.Mutex
	declineOver float64
	err         error
	authorized  []float64
	voided      []string
	seq         int
}

func (p *fakePayments) Authorize(ctx context.Context, amount float64, payerID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	if p.declineOver > 0 && amount > p.declineOver {
		return "", domain.ErrPaymentDeclined
	}
	p.seq++
	p.authorized = append(p.authorized, amount)
	return fmt.Sprintf("auth-%d", p.seq), nil
}

func (p *fakePayments) Void(ctx context.Context, authorizationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voided = append(p.voided, authorizationID)
	return nil
}

// flakyTicketRepo fails Create once failAfter tickets have been written.
type flakyTicketRepo struct {
	domain.TicketRepository
	failAfter int
	created   int
}

func (r *flakyTicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	if r.created >= r.failAfter {
		return errors.New("disk full")
	}
	r.created++
	return r.TicketRepository.Create(ctx, t)
}

type fixture struct {
	store     *memory.Store
	clock     *clock.Manual
	events    domain.EventService
	inventory domain.InventoryService
	ledger    domain.TicketLedgerService
	calendar  domain.CalendarService
	issuer    domain.CredentialIssuer
	payments  *fakePayments
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	tickets   func(domain.TicketRepository) domain.TicketRepository
	reminders func(domain.ReminderRepository) domain.ReminderRepository
}

func withTicketRepo(wrap func(domain.TicketRepository) domain.TicketRepository) fixtureOption {
	return func(c *fixtureConfig) { c.tickets = wrap }
}

func withReminderRepo(wrap func(domain.ReminderRepository) domain.ReminderRepository) fixtureOption {
	return func(c *fixtureConfig) { c.reminders = wrap }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{
		tickets:   func(r domain.TicketRepository) domain.TicketRepository { return r },
		reminders: func(r domain.ReminderRepository) domain.ReminderRepository { return r },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.NewStore()
	clk := clock.NewManual(testNow)
	logger := discardLogger()
	events := NewEventService(store.Events(), clk, testTimeout)
	inventory := NewInventoryService(events, store.TicketTypes(), clk, testTimeout, logger)
	cal := NewCalendarService(events, store.Calendar(), cfg.reminders(store.Reminders()), ical.NewEncoder("tickets.test", clk), clk, testTimeout, logger)
	issuer := credential.NewIssuer("", "https://tickets.test/scan")
	payments := &fakePayments{}
	ledger := NewLedgerService(events, inventory, cfg.tickets(store.Tickets()), issuer, payments, clk, testTimeout, logger, WithCalendar(cal))

	return &fixture{
		store:     store,
		clock:     clk,
		events:    events,
		inventory: inventory,
		ledger:    ledger,
		calendar:  cal,
		issuer:    issuer,
		payments:  payments,
	}
}

func (f *fixture) createEvent(t *testing.T, title string, startsIn time.Duration, capacity int) *domain.Event {
	t.Helper()
	ev := &domain.Event{
		Title:    title,
		StartsAt: f.clock.Now().Add(startsIn),
		Location: "Main Hall",
		Capacity: capacity,
	}
	require.NoError(t, f.events.CreateEvent(context.Background(), ev))
	return ev
}

func (f *fixture) createTicketType(t *testing.T, eventID string, price float64, available int) *domain.TicketType {
	t.Helper()
	tt, err := f.inventory.CreateTicketType(context.Background(), eventID, "General", price, available)
	require.NoError(t, err)
	return tt
}

func (f *fixture) ticketType(t *testing.T, id string) *domain.TicketType {
	t.Helper()
	tt, err := f.store.TicketTypes().GetByID(context.Background(), id)
	require.NoError(t, err)
	return tt
}
