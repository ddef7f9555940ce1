package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type calendarService struct {
	catalog   domain.EventCatalog
	entries   domain.CalendarRepository
	reminders domain.ReminderRepository
	encoder   domain.CalendarEncoder
	clock     clock.Clock
	logger    *slog.Logger

	contextTimeout time.Duration

	entryLocks    *keyedMutex
	reminderLocks *keyedMutex
}

// NewCalendarService returns the CalendarService.
func NewCalendarService(
	catalog domain.EventCatalog,
	entries domain.CalendarRepository,
	reminders domain.ReminderRepository,
	encoder domain.CalendarEncoder,
	clk clock.Clock,
	timeout time.Duration,
	logger *slog.Logger,
) domain.CalendarService {
	return &calendarService{
		catalog:        catalog,
		entries:        entries,
		reminders:      reminders,
		encoder:        encoder,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
		entryLocks:     newKeyedMutex(),
		reminderLocks:  newKeyedMutex(),
	}
}

// Add snapshots the event into the owner's calendar with the default reminders
// that can still fire.
func (s *calendarService) Add(ctx context.Context, ownerID, eventID string) (*domain.CalendarEntry, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	unlock := s.entryLocks.Lock(pairKey(ownerID, eventID))
	defer unlock()

	if _, err := s.entries.GetEntry(ctx, ownerID, eventID); err == nil {
		return nil, domain.ErrAlreadyInCalendar
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get calendar entry: %w", err)
	}

	now := s.clock.Now()
	entry, err := s.createEntry(ctx, ownerID, event, now)
	if err != nil {
		return nil, err
	}
	for _, offset := range domain.DefaultReminderOffsets {
		fireAt := entry.StartsAt.Add(-time.Duration(offset) * time.Minute)
		if !fireAt.After(now) {
			continue
		}
		rem, err := s.createReminder(ctx, entry, offset, "", now)
		if err != nil {
			s.discardEntry(ctx, entry)
			return nil, err
		}
		entry.ReminderIDs = append(entry.ReminderIDs, rem.ID)
		entry.Reminders = append(entry.Reminders, rem)
	}
	s.logger.InfoContext(ctx, "event added to calendar",
		"owner_id", ownerID, "event_id", eventID, "reminders", len(entry.Reminders))
	return entry, nil
}

func (s *calendarService) createEntry(ctx context.Context, ownerID string, event *domain.Event, now time.Time) (*domain.CalendarEntry, error) {
	entry := domain.NewCalendarEntry(ownerID, event, now)
	if err := s.entries.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrAlreadyInCalendar
		}
		return nil, fmt.Errorf("create calendar entry: %w", err)
	}
	entry.ReminderIDs = []string{}
	return entry, nil
}

// discardEntry deletes an entry whose setup failed half way. Its reminders go with it.
func (s *calendarService) discardEntry(ctx context.Context, entry *domain.CalendarEntry) {
	if err := s.entries.DeleteEntry(context.WithoutCancel(ctx), entry.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.ErrorContext(ctx, "discard calendar entry", "entry_id", entry.ID, "owner_id", entry.OwnerID, "err", err)
	}
}

func (s *calendarService) createReminder(ctx context.Context, entry *domain.CalendarEntry, minutesBefore int, message string, now time.Time) (*domain.Reminder, error) {
	if message == "" {
		message = defaultReminderMessage(entry.Title, minutesBefore)
	}
	rem := &domain.Reminder{
		EntryID:       entry.ID,
		OwnerID:       entry.OwnerID,
		EventID:       entry.EventID,
		MinutesBefore: minutesBefore,
		FireAt:        entry.StartsAt.Add(-time.Duration(minutesBefore) * time.Minute),
		Message:       message,
		Status:        domain.ReminderStatusPending,
		CreatedAt:     now,
	}
	if err := s.reminders.Create(ctx, rem); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return rem, nil
}

func defaultReminderMessage(title string, minutesBefore int) string {
	return fmt.Sprintf("%s starts in %s", title, humanizeMinutes(minutesBefore))
}

func humanizeMinutes(m int) string {
	unit, n := "minute", m
	switch {
	case m%1440 == 0:
		unit, n = "day", m/1440
	case m%60 == 0:
		unit, n = "hour", m/60
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// Remove deletes the owner's entry for the event together with its reminders.
func (s *calendarService) Remove(ctx context.Context, ownerID, eventID string) error {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.entryLocks.Lock(pairKey(ownerID, eventID))
	defer unlock()

	entry, err := s.entries.GetEntry(ctx, ownerID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotInCalendar
		}
		return fmt.Errorf("get calendar entry: %w", err)
	}
	if err := s.entries.DeleteEntry(ctx, entry.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotInCalendar
		}
		return fmt.Errorf("delete calendar entry: %w", err)
	}
	s.logger.InfoContext(ctx, "event removed from calendar", "owner_id", ownerID, "event_id", eventID)
	return nil
}

// AddReminder schedules a reminder minutesBefore the event start. When the event is
// not in the owner's calendar yet, an entry is created holding only this reminder.
func (s *calendarService) AddReminder(ctx context.Context, ownerID, eventID string, minutesBefore int, message string) (*domain.Reminder, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	if minutesBefore <= 0 {
		return nil, domain.ErrInvalidReminderOffset
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}

	unlock := s.entryLocks.Lock(pairKey(ownerID, eventID))
	defer unlock()

	entry, err := s.entries.GetEntry(ctx, ownerID, eventID)
	var (
		event *domain.Event
		start time.Time
	)
	switch {
	case err == nil:
		start = entry.StartsAt
	case errors.Is(err, domain.ErrNotFound):
		event, err = s.catalog.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		start = event.StartsAt
	default:
		return nil, fmt.Errorf("get calendar entry: %w", err)
	}

	now := s.clock.Now()
	fireAt := start.Add(-time.Duration(minutesBefore) * time.Minute)
	if !fireAt.Before(start) {
		return nil, domain.ErrInvalidReminderOffset
	}
	if !fireAt.After(now) {
		return nil, domain.ErrReminderInPast
	}

	created := entry == nil
	if created {
		entry, err = s.createEntry(ctx, ownerID, event, now)
		if err != nil {
			return nil, err
		}
	}
	rem, err := s.createReminder(ctx, entry, minutesBefore, strings.TrimSpace(message), now)
	if err != nil {
		if created {
			s.discardEntry(ctx, entry)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "reminder added",
		"owner_id", ownerID, "event_id", eventID, "reminder_id", rem.ID, "fire_at", rem.FireAt)
	return rem, nil
}

func (s *calendarService) RemoveReminder(ctx context.Context, ownerID, reminderID string) error {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.reminderLocks.Lock(reminderID)
	defer unlock()

	rem, err := s.getReminder(ctx, reminderID)
	if err != nil {
		return err
	}
	if rem.OwnerID != ownerID {
		return domain.ErrReminderNotFound
	}
	if err := s.reminders.Delete(ctx, reminderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrReminderNotFound
		}
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// ListUpcoming takes a snapshot of the owner's pending reminders firing after now
// and returns a sequence over it, earliest first.
func (s *calendarService) ListUpcoming(ctx context.Context, ownerID string, now time.Time) (iter.Seq[*domain.Reminder], error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	pending, err := s.reminders.ListPendingByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	upcoming := slices.DeleteFunc(pending, func(r *domain.Reminder) bool {
		return r.Status != domain.ReminderStatusPending || !r.FireAt.After(now)
	})
	slices.SortStableFunc(upcoming, func(a, b *domain.Reminder) int {
		return a.FireAt.Compare(b.FireAt)
	})
	return func(yield func(*domain.Reminder) bool) {
		for _, r := range upcoming {
			if !yield(r) {
				return
			}
		}
	}, nil
}

// ListDue returns pending reminders of every owner whose fire time has been reached.
func (s *calendarService) ListDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	due, err := s.reminders.ListPendingDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	if due == nil {
		due = []*domain.Reminder{}
	}
	return due, nil
}

// MarkSent records delivery. Marking an already sent reminder is a no-op.
func (s *calendarService) MarkSent(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.reminderLocks.Lock(reminderID)
	defer unlock()

	rem, err := s.getReminder(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if rem.Status == domain.ReminderStatusSent {
		return rem, nil
	}
	now := s.clock.Now()
	rem.Status = domain.ReminderStatusSent
	rem.SentAt = &now
	if err := s.reminders.Update(ctx, rem); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return rem, nil
}

func (s *calendarService) GetReminder(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.getReminder(ctx, reminderID)
}

func (s *calendarService) ListEntries(ctx context.Context, ownerID string) ([]*domain.CalendarEntry, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list calendar entries: %w", err)
	}
	for _, e := range entries {
		rems, err := s.reminders.ListByEntryID(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("list reminders: %w", err)
		}
		e.Reminders = rems
	}
	if entries == nil {
		entries = []*domain.CalendarEntry{}
	}
	return entries, nil
}

func (s *calendarService) ExportCalendar(ctx context.Context, ownerID string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("list calendar entries: %w", err)
	}
	return s.encoder.ExportAll(entries), nil
}

func (s *calendarService) ExportEvent(ctx context.Context, eventID string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	return s.encoder.ExportOne(event), nil
}

func (s *calendarService) getReminder(ctx context.Context, id string) (*domain.Reminder, error) {
	rem, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}
