package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

func TestInventoryService_GetOrDefaultTicketTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	price := 25.0
	ev := &domain.Event{Title: "Gig", StartsAt: testNow.Add(24 * time.Hour), Capacity: 40, BasePrice: &price}
	require.NoError(t, f.events.CreateEvent(ctx, ev))

	first, err := f.inventory.GetOrDefaultTicketTypes(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, domain.DefaultTicketTypeName, first[0].Name)
	assert.Equal(t, 25.0, first[0].Price)
	assert.Equal(t, 40, first[0].Available)
	assert.Equal(t, 0, first[0].Sold)

	second, err := f.inventory.GetOrDefaultTicketTypes(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestInventoryService_GetOrDefaultTicketTypes_KeepsExplicitTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Gig", 24*time.Hour, 100)
	vip := f.createTicketType(t, ev.ID, 80, 5)

	types, err := f.inventory.GetOrDefaultTicketTypes(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, vip.ID, types[0].ID)
}

func TestInventoryService_GetOrDefaultTicketTypes_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.inventory.GetOrDefaultTicketTypes(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestInventoryService_CreateTicketType_Validation(t *testing.T) {
	f := newFixture(t)
	ev := f.createEvent(t, "Gig", 24*time.Hour, 100)

	tests := []struct {
		name      string
		eventID   string
		typeName  string
		price     float64
		available int
		wantErr   error
	}{
		{name: "blank name", eventID: ev.ID, typeName: " ", price: 1, available: 1, wantErr: domain.ErrInvalidInput},
		{name: "negative price", eventID: ev.ID, typeName: "A", price: -1, available: 1, wantErr: domain.ErrInvalidInput},
		{name: "negative available", eventID: ev.ID, typeName: "A", price: 1, available: -1, wantErr: domain.ErrInvalidInput},
		{name: "unknown event", eventID: "nope", typeName: "A", price: 1, available: 1, wantErr: domain.ErrEventNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.inventory.CreateTicketType(context.Background(), tt.eventID, tt.typeName, tt.price, tt.available)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInventoryService_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Gig", 24*time.Hour, 0)
	tt := f.createTicketType(t, ev.ID, 10, 3)

	got, err := f.inventory.Reserve(ctx, tt.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Sold)
	assert.Equal(t, 1, got.Remaining())

	_, err = f.inventory.Reserve(ctx, tt.ID, 2)
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.Equal(t, 2, f.ticketType(t, tt.ID).Sold)

	got, err = f.inventory.Release(ctx, tt.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Sold)

	got, err = f.inventory.Release(ctx, tt.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Sold)
}

func TestInventoryService_Reserve_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Gig", 24*time.Hour, 0)
	tt := f.createTicketType(t, ev.ID, 10, 3)

	_, err := f.inventory.Reserve(ctx, tt.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.inventory.Reserve(ctx, tt.ID, -2)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.inventory.Release(ctx, tt.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.inventory.Reserve(ctx, "missing", 1)
	require.ErrorIs(t, err, domain.ErrUnknownTicketType)
	_, err = f.inventory.Release(ctx, "missing", 1)
	require.ErrorIs(t, err, domain.ErrUnknownTicketType)
}

func TestInventoryService_ConcurrentReserveNeverOversells(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Gig", 24*time.Hour, 0)
	tt := f.createTicketType(t, ev.ID, 10, 25)

	var (
		wg       sync.WaitGroup
		reserved atomic.Int64
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			if _, err := f.inventory.Reserve(ctx, tt.ID, qty); err == nil {
				reserved.Add(int64(qty))
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
			}
		}(i%3 + 1)
	}
	wg.Wait()

	got := f.ticketType(t, tt.ID)
	assert.Equal(t, int(reserved.Load()), got.Sold)
	assert.LessOrEqual(t, got.Sold, got.Available)
}

// deadlineTicketTypes records the deadline seen by GetByID.
type deadlineTicketTypes struct {
	domain.TicketTypeRepository
	deadline    time.Time
	hasDeadline bool
}

func (r *deadlineTicketTypes) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	r.deadline, r.hasDeadline = ctx.Deadline()
	return r.TicketTypeRepository.GetByID(ctx, id)
}

func TestInventoryService_RequestTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{name: "bounded", timeout: 3 * time.Second},
		{name: "unbounded", timeout: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			ev := f.createEvent(t, "Gig", 24*time.Hour, 10)
			created := f.createTicketType(t, ev.ID, 10, 5)

			repo := &deadlineTicketTypes{TicketTypeRepository: f.store.TicketTypes()}
			inventory := NewInventoryService(f.events, repo, f.clock, tt.timeout, discardLogger())
			before := time.Now()
			_, err := inventory.Reserve(ctx, created.ID, 1)
			require.NoError(t, err)

			if tt.timeout == 0 {
				assert.False(t, repo.hasDeadline)
				return
			}
			require.True(t, repo.hasDeadline)
			assert.False(t, repo.deadline.Before(before.Add(tt.timeout)))
			assert.False(t, repo.deadline.After(time.Now().Add(tt.timeout)))
		})
	}
}
