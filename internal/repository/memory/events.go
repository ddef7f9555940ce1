package memory

import (
	"context"
	"sort"

	"eventticketing/internal/domain"
)

type eventRepository struct{ s *Store }

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	if _, ok := r.s.events[e.ID]; ok {
		return domain.ErrConflict
	}
	r.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	r.s.mu.RLock()
	all := make([]*domain.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		all = append(all, cloneEvent(e))
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].StartsAt.Equal(all[j].StartsAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].StartsAt.Before(all[j].StartsAt)
	})
	total := len(all)
	offset := params.Offset()
	if offset >= total {
		return []*domain.Event{}, total, nil
	}
	end := total
	if params.PageSize > 0 && offset+params.PageSize < total {
		end = offset + params.PageSize
	}
	return all[offset:end], total, nil
}
