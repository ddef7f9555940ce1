package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventticketing/internal/domain"
)

const reminderTemplate = "reminder"

// StartsAtLayout formats event start times in reminder emails.
const StartsAtLayout = "Mon, 02 Jan 2006 15:04 MST"

type reminderNotifier struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	contacts domain.ContactDirectory
	logger   *slog.Logger
}

// NewReminderNotifier returns a ReminderNotifier that emails the reminder owner.
func NewReminderNotifier(
	mailer domain.Mailer,
	renderer domain.EmailTemplateRenderer,
	contacts domain.ContactDirectory,
	logger *slog.Logger,
) domain.ReminderNotifier {
	return &reminderNotifier{
		mailer:   mailer,
		renderer: renderer,
		contacts: contacts,
		logger:   logger,
	}
}

// Notify renders and sends the reminder email. An owner without a known address is
// logged and treated as delivered so the reminder does not retry forever.
func (n *reminderNotifier) Notify(ctx context.Context, rem *domain.Reminder, entry *domain.CalendarEntry) error {
	to, err := n.contacts.EmailFor(ctx, rem.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			n.logger.WarnContext(ctx, "no email address for reminder owner", "owner_id", rem.OwnerID, "reminder_id", rem.ID)
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}

	data := domain.ReminderEmailData{
		Email:         to,
		Title:         entry.Title,
		Location:      entry.Location,
		StartsAt:      entry.StartsAt.UTC().Format(StartsAtLayout),
		MinutesBefore: rem.MinutesBefore,
		Message:       rem.Message,
	}
	subject, html, text, err := n.renderer.Render(reminderTemplate, data)
	if err != nil {
		return fmt.Errorf("render reminder email: %w", err)
	}
	if err := n.mailer.Send(ctx, to, subject, html, text); err != nil {
		return err
	}
	return nil
}
