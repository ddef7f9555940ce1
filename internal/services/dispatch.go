package services

import (
	"context"
	"errors"
	"log/slog"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

type reminderDispatcher struct {
	calendar domain.CalendarService
	entries  domain.CalendarRepository
	notifier domain.ReminderNotifier
	clock    clock.Clock
	logger   *slog.Logger
}

// NewReminderDispatcher returns a dispatcher that hands due reminders to notifier.
// It keeps no timers of its own; callers decide how often DispatchDue runs.
func NewReminderDispatcher(
	calendar domain.CalendarService,
	entries domain.CalendarRepository,
	notifier domain.ReminderNotifier,
	clk clock.Clock,
	logger *slog.Logger,
) domain.ReminderDispatcher {
	return &reminderDispatcher{
		calendar: calendar,
		entries:  entries,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// DispatchDue notifies every due reminder and marks it sent. A reminder whose
// delivery fails stays pending and is retried on the next call.
func (d *reminderDispatcher) DispatchDue(ctx context.Context) (int, error) {
	due, err := d.calendar.ListDue(ctx, d.clock.Now())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rem := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		entry, err := d.entries.GetEntry(ctx, rem.OwnerID, rem.EventID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				d.logger.ErrorContext(ctx, "load calendar entry for reminder", "reminder_id", rem.ID, "owner_id", rem.OwnerID, "err", err)
			}
			continue
		}
		if err := d.notifier.Notify(ctx, rem, entry); err != nil {
			d.logger.ErrorContext(ctx, "reminder delivery failed", "reminder_id", rem.ID, "owner_id", rem.OwnerID, "err", err)
			continue
		}
		if _, err := d.calendar.MarkSent(ctx, rem.ID); err != nil {
			d.logger.ErrorContext(ctx, "mark reminder sent", "reminder_id", rem.ID, "err", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		d.logger.InfoContext(ctx, "reminders dispatched", "sent", sent, "due", len(due))
	}
	return sent, nil
}
