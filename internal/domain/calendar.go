package domain

import (
	"context"
	"iter"
	"time"
)

// Default reminder offsets synthesized when an event is added to a calendar.
var DefaultReminderOffsets = []int{1440, 120}

// CalendarEntry is a user's personal record of an event they attend.
// Event fields are a snapshot taken when the entry was created.
// swagger:model CalendarEntry
type CalendarEntry struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	EventID     string      `json:"event_id"`
	Title       string      `json:"title"`
	Location    string      `json:"location"`
	Description *string     `json:"description,omitempty"`
	StartsAt    time.Time   `json:"starts_at"`
	EndsAt      time.Time   `json:"ends_at"`
	ReminderIDs []string    `json:"reminder_ids"`
	Reminders   []*Reminder `json:"reminders,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewCalendarEntry snapshots the event's display fields for the owner.
func NewCalendarEntry(ownerID string, event *Event, createdAt time.Time) *CalendarEntry {
	return &CalendarEntry{
		OwnerID:     ownerID,
		EventID:     event.ID,
		Title:       event.Title,
		Location:    event.Location,
		Description: event.Description,
		StartsAt:    event.StartsAt,
		EndsAt:      event.End(),
		ReminderIDs: []string{},
		CreatedAt:   createdAt,
	}
}

// ReminderStatus is the delivery state of a reminder.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
)

// Reminder fires MinutesBefore the referenced event start. FireAt is always before the start.
// swagger:model Reminder
type Reminder struct {
	ID            string         `json:"id"`
	EntryID       string         `json:"entry_id"`
	OwnerID       string         `json:"owner_id"`
	EventID       string         `json:"event_id"`
	MinutesBefore int            `json:"minutes_before"`
	FireAt        time.Time      `json:"fire_at"`
	Message       string         `json:"message"`
	Status        ReminderStatus `json:"status"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CalendarRepository defines storage for calendar entries.
type CalendarRepository interface {
	CreateEntry(ctx context.Context, entry *CalendarEntry) error
	GetEntry(ctx context.Context, ownerID, eventID string) (*CalendarEntry, error)
	ListEntries(ctx context.Context, ownerID string) ([]*CalendarEntry, error)
	// DeleteEntry removes the entry and every reminder attached to it.
	DeleteEntry(ctx context.Context, entryID string) error
}

// ReminderRepository defines storage for reminders.
type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id string) (*Reminder, error)
	ListByEntryID(ctx context.Context, entryID string) ([]*Reminder, error)
	ListPendingByOwner(ctx context.Context, ownerID string) ([]*Reminder, error)
	ListPendingDue(ctx context.Context, now time.Time) ([]*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id string) error
}

// CalendarService maintains users' calendar entries and reminders.
type CalendarService interface {
	Add(ctx context.Context, ownerID, eventID string) (*CalendarEntry, error)
	Remove(ctx context.Context, ownerID, eventID string) error
	AddReminder(ctx context.Context, ownerID, eventID string, minutesBefore int, message string) (*Reminder, error)
	RemoveReminder(ctx context.Context, ownerID, reminderID string) error
	// ListUpcoming yields pending reminders firing after now, earliest first. The sequence can be ranged more than once.
	ListUpcoming(ctx context.Context, ownerID string, now time.Time) (iter.Seq[*Reminder], error)
	ListDue(ctx context.Context, now time.Time) ([]*Reminder, error)
	MarkSent(ctx context.Context, reminderID string) (*Reminder, error)
	GetReminder(ctx context.Context, reminderID string) (*Reminder, error)
	ListEntries(ctx context.Context, ownerID string) ([]*CalendarEntry, error)
	ExportCalendar(ctx context.Context, ownerID string) (string, error)
	ExportEvent(ctx context.Context, eventID string) (string, error)
}

// CalendarEncoder renders calendar interchange documents.
type CalendarEncoder interface {
	ExportOne(event *Event) string
	ExportAll(entries []*CalendarEntry) string
}
