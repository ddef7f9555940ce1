// Package memory implements the domain repositories over process memory.
// It is used by tests and by STORE=memory deployments. Records are copied on the
// way in and out so callers never share state with the store.
package memory

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

// Store holds every in-memory table behind one lock.
type Store struct {
	mu sync.RWMutex

	events      map[string]*domain.Event
	ticketTypes map[string]*domain.TicketType
	typeOrder   []string
	tickets     map[string]*domain.Ticket
	ticketNums  map[string]string
	entries     map[string]*domain.CalendarEntry
	entryKeys   map[string]string
	reminders   map[string]*domain.Reminder
	contacts    map[string]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		events:      make(map[string]*domain.Event),
		ticketTypes: make(map[string]*domain.TicketType),
		tickets:     make(map[string]*domain.Ticket),
		ticketNums:  make(map[string]string),
		entries:     make(map[string]*domain.CalendarEntry),
		entryKeys:   make(map[string]string),
		reminders:   make(map[string]*domain.Reminder),
		contacts:    make(map[string]string),
	}
}

// Events returns the event repository view of the store.
func (s *Store) Events() domain.EventRepository { return &eventRepository{s} }

// TicketTypes returns the ticket type repository view of the store.
func (s *Store) TicketTypes() domain.TicketTypeRepository { return &ticketTypeRepository{s} }

// Tickets returns the ticket repository view of the store.
func (s *Store) Tickets() domain.TicketRepository { return &ticketRepository{s} }

// Calendar returns the calendar entry repository view of the store.
func (s *Store) Calendar() domain.CalendarRepository { return &calendarRepository{s} }

// Reminders returns the reminder repository view of the store.
func (s *Store) Reminders() domain.ReminderRepository { return &reminderRepository{s} }

// Contacts returns the contact directory view of the store.
func (s *Store) Contacts() *ContactDirectory { return &ContactDirectory{s} }

func newID() string {
	return uuid.NewString()
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func cloneTicketType(t *domain.TicketType) *domain.TicketType {
	c := *t
	return &c
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	return &c
}

func cloneEntry(e *domain.CalendarEntry) *domain.CalendarEntry {
	c := *e
	c.ReminderIDs = slices.Clone(e.ReminderIDs)
	if c.ReminderIDs == nil {
		c.ReminderIDs = []string{}
	}
	c.Reminders = nil
	return &c
}

func cloneReminder(r *domain.Reminder) *domain.Reminder {
	c := *r
	return &c
}
