package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"eventticketing/internal/domain"
)

type calendarRepository struct{ s *Store }

func entryKey(ownerID, eventID string) string {
	return ownerID + "\x00" + eventID
}

func (r *calendarRepository) CreateEntry(ctx context.Context, e *domain.CalendarEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := entryKey(e.OwnerID, e.EventID)
	if _, ok := r.s.entryKeys[key]; ok {
		return domain.ErrConflict
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.ReminderIDs == nil {
		e.ReminderIDs = []string{}
	}
	r.s.entries[e.ID] = cloneEntry(e)
	r.s.entryKeys[key] = e.ID
	return nil
}

func (r *calendarRepository) GetEntry(ctx context.Context, ownerID, eventID string) (*domain.CalendarEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.entryKeys[entryKey(ownerID, eventID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEntry(r.s.entries[id]), nil
}

func (r *calendarRepository) ListEntries(ctx context.Context, ownerID string) ([]*domain.CalendarEntry, error) {
	r.s.mu.RLock()
	out := []*domain.CalendarEntry{}
	for _, e := range r.s.entries {
		if e.OwnerID == ownerID {
			out = append(out, cloneEntry(e))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (r *calendarRepository) DeleteEntry(ctx context.Context, entryID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[entryID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, rem := range r.s.reminders {
		if rem.EntryID == entryID {
			delete(r.s.reminders, id)
		}
	}
	delete(r.s.entryKeys, entryKey(e.OwnerID, e.EventID))
	delete(r.s.entries, entryID)
	return nil
}

type reminderRepository struct{ s *Store }

func (r *reminderRepository) Create(ctx context.Context, rem *domain.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry, ok := r.s.entries[rem.EntryID]
	if !ok {
		return domain.ErrNotFound
	}
	if rem.ID == "" {
		rem.ID = newID()
	}
	if _, ok := r.s.reminders[rem.ID]; ok {
		return domain.ErrConflict
	}
	r.s.reminders[rem.ID] = cloneReminder(rem)
	entry.ReminderIDs = append(entry.ReminderIDs, rem.ID)
	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rem, ok := r.s.reminders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneReminder(rem), nil
}

func (r *reminderRepository) ListByEntryID(ctx context.Context, entryID string) ([]*domain.Reminder, error) {
	return r.list(func(rem *domain.Reminder) bool { return rem.EntryID == entryID }), nil
}

func (r *reminderRepository) ListPendingByOwner(ctx context.Context, ownerID string) ([]*domain.Reminder, error) {
	return r.list(func(rem *domain.Reminder) bool {
		return rem.OwnerID == ownerID && rem.Status == domain.ReminderStatusPending
	}), nil
}

func (r *reminderRepository) ListPendingDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	return r.list(func(rem *domain.Reminder) bool {
		return rem.Status == domain.ReminderStatusPending && !rem.FireAt.After(now)
	}), nil
}

func (r *reminderRepository) Update(ctx context.Context, rem *domain.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reminders[rem.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.reminders[rem.ID] = cloneReminder(rem)
	return nil
}

func (r *reminderRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.reminders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if entry, ok := r.s.entries[rem.EntryID]; ok {
		entry.ReminderIDs = slices.DeleteFunc(entry.ReminderIDs, func(rid string) bool { return rid == id })
	}
	delete(r.s.reminders, id)
	return nil
}

// list returns matching reminders ordered by fire time.
func (r *reminderRepository) list(match func(*domain.Reminder) bool) []*domain.Reminder {
	r.s.mu.RLock()
	out := []*domain.Reminder{}
	for _, rem := range r.s.reminders {
		if match(rem) {
			out = append(out, cloneReminder(rem))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}
