package memory

import (
	"context"
	"sort"

	"eventticketing/internal/domain"
)

type ticketTypeRepository struct{ s *Store }

func (r *ticketTypeRepository) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tt, ok := r.s.ticketTypes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneTicketType(tt), nil
}

// ListByEventID returns the event's ticket types in creation order.
func (r *ticketTypeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.TicketType{}
	for _, id := range r.s.typeOrder {
		if tt := r.s.ticketTypes[id]; tt.EventID == eventID {
			out = append(out, cloneTicketType(tt))
		}
	}
	return out, nil
}

func (r *ticketTypeRepository) Upsert(ctx context.Context, tt *domain.TicketType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tt.ID == "" {
		tt.ID = newID()
	}
	if _, ok := r.s.ticketTypes[tt.ID]; !ok {
		r.s.typeOrder = append(r.s.typeOrder, tt.ID)
	}
	r.s.ticketTypes[tt.ID] = cloneTicketType(tt)
	return nil
}

type ticketRepository struct{ s *Store }

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	if _, ok := r.s.tickets[t.ID]; ok {
		return domain.ErrConflict
	}
	if _, ok := r.s.ticketNums[t.TicketNumber]; ok {
		return domain.ErrConflict
	}
	r.s.tickets[t.ID] = cloneTicket(t)
	r.s.ticketNums[t.TicketNumber] = t.ID
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneTicket(t), nil
}

func (r *ticketRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool { return t.OwnerID == ownerID }), nil
}

func (r *ticketRepository) ListByEventAndOwner(ctx context.Context, eventID, ownerID string) ([]*domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool { return t.EventID == eventID && t.OwnerID == ownerID }), nil
}

func (r *ticketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.tickets[t.ID] = cloneTicket(t)
	return nil
}

func (r *ticketRepository) list(match func(*domain.Ticket) bool) []*domain.Ticket {
	r.s.mu.RLock()
	out := []*domain.Ticket{}
	for _, t := range r.s.tickets {
		if match(t) {
			out = append(out, cloneTicket(t))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			if out[i].Sequence == out[j].Sequence {
				return out[i].ID < out[j].ID
			}
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].PurchasedAt.Before(out[j].PurchasedAt)
	})
	return out
}
