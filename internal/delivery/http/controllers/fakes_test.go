package controllers

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testNow = time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)

// newRequest builds a request with optional path values and an authenticated user.
func newRequest(method, target, body, userID string, pathValues map[string]string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

// decodeEnvelope decodes the response envelope and, when data is non-nil, its data field.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return envelope
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event     *domain.Event
	events    []*domain.Event
	total     int
	err       error
	created   *domain.Event
	lastParam domain.PaginationParams
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	event.ID = "ev-created"
	event.CreatedAt = testNow
	event.UpdatedAt = testNow
	f.created = event
	return nil
}

func (f *fakeEventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastParam = params
	return f.events, f.total, f.err
}

// fakeInventoryService implements domain.InventoryService for handler tests.
type fakeInventoryService struct {
	types       []*domain.TicketType
	err         error
	lastEventID string
	lastName    string
}

func (f *fakeInventoryService) GetOrDefaultTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	f.lastEventID = eventID
	return f.types, f.err
}

func (f *fakeInventoryService) CreateTicketType(ctx context.Context, eventID, name string, price float64, available int) (*domain.TicketType, error) {
	f.lastEventID, f.lastName = eventID, name
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TicketType{ID: "tt-1", EventID: eventID, Name: name, Price: price, Available: available}, nil
}

func (f *fakeInventoryService) Reserve(ctx context.Context, ticketTypeID string, quantity int) (*domain.TicketType, error) {
	return nil, f.err
}

func (f *fakeInventoryService) Release(ctx context.Context, ticketTypeID string, quantity int) (*domain.TicketType, error) {
	return nil, f.err
}

// fakeLedgerService implements domain.TicketLedgerService for handler tests.
type fakeLedgerService struct {
	tickets      map[string]*domain.Ticket
	purchase     *domain.PurchaseResult
	err          error
	code         string
	lastPurchase domain.PurchaseRequest
	lastChecker  string
	lastCode     string
	canceled     []string
}

func (f *fakeLedgerService) Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.PurchaseResult, error) {
	f.lastPurchase = req
	if f.err != nil {
		return nil, f.err
	}
	return f.purchase, nil
}

func (f *fakeLedgerService) CheckIn(ctx context.Context, ticketID, checkerID string) (*domain.Ticket, error) {
	f.lastChecker = checkerID
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	t.Status = domain.TicketStatusUsed
	return t, nil
}

func (f *fakeLedgerService) Cancel(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.canceled = append(f.canceled, ticketID)
	t := f.tickets[ticketID]
	t.Status = domain.TicketStatusCanceled
	return t, nil
}

func (f *fakeLedgerService) VerifyCredential(ctx context.Context, code, checkerID string) (*domain.Ticket, error) {
	f.lastCode, f.lastChecker = code, checkerID
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.tickets {
		return t, nil
	}
	return nil, domain.ErrTicketNotFound
}

func (f *fakeLedgerService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return t, nil
}

func (f *fakeLedgerService) ListTicketsByOwner(ctx context.Context, ownerID string) ([]*domain.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*domain.Ticket{}
	for _, t := range f.tickets {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedgerService) RegenerateCredential(ctx context.Context, ticketID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.code, nil
}

// fakeIssuer implements domain.CredentialIssuer for handler tests.
type fakeIssuer struct{}

func (fakeIssuer) Issue(t *domain.Ticket) (string, error) { return "code-" + t.ID, nil }

func (fakeIssuer) Parse(code string) (domain.CredentialClaims, error) {
	return domain.CredentialClaims{}, nil
}

func (fakeIssuer) RenderAsScannable(code string) string { return "https://tickets.test/scan?c=" + code }

// fakeCalendarService implements domain.CalendarService for handler tests.
type fakeCalendarService struct {
	entries   []*domain.CalendarEntry
	reminders map[string]*domain.Reminder
	upcoming  []*domain.Reminder
	doc       string
	err       error

	lastOwner     string
	lastEvent     string
	lastMinutes   int
	lastMessage   string
	lastNow       time.Time
	removed       []string
	markedSent    []string
	removedEvents []string
}

func (f *fakeCalendarService) Add(ctx context.Context, ownerID, eventID string) (*domain.CalendarEntry, error) {
	f.lastOwner, f.lastEvent = ownerID, eventID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CalendarEntry{ID: "entry-1", OwnerID: ownerID, EventID: eventID, ReminderIDs: []string{}}, nil
}

func (f *fakeCalendarService) Remove(ctx context.Context, ownerID, eventID string) error {
	f.lastOwner = ownerID
	if f.err != nil {
		return f.err
	}
	f.removedEvents = append(f.removedEvents, eventID)
	return nil
}

func (f *fakeCalendarService) AddReminder(ctx context.Context, ownerID, eventID string, minutesBefore int, message string) (*domain.Reminder, error) {
	f.lastOwner, f.lastEvent, f.lastMinutes, f.lastMessage = ownerID, eventID, minutesBefore, message
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Reminder{ID: "rem-1", OwnerID: ownerID, EventID: eventID, MinutesBefore: minutesBefore, Message: message, Status: domain.ReminderStatusPending}, nil
}

func (f *fakeCalendarService) RemoveReminder(ctx context.Context, ownerID, reminderID string) error {
	f.lastOwner = ownerID
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, reminderID)
	return nil
}

func (f *fakeCalendarService) ListUpcoming(ctx context.Context, ownerID string, now time.Time) (iter.Seq[*domain.Reminder], error) {
	f.lastOwner, f.lastNow = ownerID, now
	if f.err != nil {
		return nil, f.err
	}
	return slices.Values(f.upcoming), nil
}

func (f *fakeCalendarService) ListDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	return nil, f.err
}

func (f *fakeCalendarService) MarkSent(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.markedSent = append(f.markedSent, reminderID)
	rem := f.reminders[reminderID]
	rem.Status = domain.ReminderStatusSent
	return rem, nil
}

func (f *fakeCalendarService) GetReminder(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	rem, ok := f.reminders[reminderID]
	if !ok {
		return nil, domain.ErrReminderNotFound
	}
	return rem, nil
}

func (f *fakeCalendarService) ListEntries(ctx context.Context, ownerID string) ([]*domain.CalendarEntry, error) {
	f.lastOwner = ownerID
	return f.entries, f.err
}

func (f *fakeCalendarService) ExportCalendar(ctx context.Context, ownerID string) (string, error) {
	f.lastOwner = ownerID
	return f.doc, f.err
}

func (f *fakeCalendarService) ExportEvent(ctx context.Context, eventID string) (string, error) {
	f.lastEvent = eventID
	return f.doc, f.err
}
