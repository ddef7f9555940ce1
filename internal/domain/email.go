package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ReminderEmailData holds data for the event reminder email.
type ReminderEmailData struct {
	Email         string
	Title         string
	Location      string
	StartsAt      string
	MinutesBefore int
	Message       string
}

// ContactDirectory resolves a user's delivery address. Returns ErrNotFound when the user has none.
type ContactDirectory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// ReminderNotifier delivers a due reminder for the given calendar entry.
type ReminderNotifier interface {
	Notify(ctx context.Context, reminder *Reminder, entry *CalendarEntry) error
}

// ReminderDispatcher delivers reminders that are due and marks them sent.
type ReminderDispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}
