package domain

import (
	"context"
	"fmt"
	"time"
)

// DefaultTicketTypeName is the name of the ticket type synthesized for events that never published ticketing.
const DefaultTicketTypeName = "Standard Admission"

// TicketType is a sellable allocation for an event. Sold never exceeds Available.
// swagger:model TicketType
type TicketType struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Available int       `json:"available"`
	Sold      int       `json:"sold"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTicketType returns a new TicketType with nothing sold.
func NewTicketType(eventID, name string, price float64, available int, createdAt time.Time) *TicketType {
	return &TicketType{
		EventID:   eventID,
		Name:      name,
		Price:     price,
		Available: available,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Remaining returns how many tickets can still be reserved.
func (t *TicketType) Remaining() int {
	return t.Available - t.Sold
}

// TicketStatus is the lifecycle state of an issued ticket.
type TicketStatus string

const (
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCanceled  TicketStatus = "canceled"
)

// Ticket is an issued admission. UnitPrice and TicketTypeID never change after issuance.
// swagger:model Ticket
type Ticket struct {
	ID           string       `json:"id"`
	EventID      string       `json:"event_id"`
	TicketTypeID string       `json:"ticket_type_id"`
	OwnerID      string       `json:"owner_id"`
	UnitPrice    float64      `json:"unit_price"`
	Status       TicketStatus `json:"status"`
	PurchasedAt  time.Time    `json:"purchased_at"`
	TicketNumber string       `json:"ticket_number"`
	// Sequence is the issuance index of this ticket among the owner's tickets for the event.
	Sequence    int        `json:"sequence"`
	Credential  *string    `json:"credential,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy *string    `json:"checked_in_by,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
}

// IssuanceNonce identifies the ticket among the owner's tickets for the same event.
func (t *Ticket) IssuanceNonce() string {
	return FormatIssuanceNonce(t.PurchasedAt, t.Sequence)
}

// FormatIssuanceNonce renders the purchase instant and sequence index as a nonce.
func FormatIssuanceNonce(purchasedAt time.Time, sequence int) string {
	return fmt.Sprintf("%d-%d", purchasedAt.UnixNano(), sequence)
}

// TicketTypeRepository defines storage for ticket types. Capacity checks live in the service layer.
type TicketTypeRepository interface {
	GetByID(ctx context.Context, id string) (*TicketType, error)
	ListByEventID(ctx context.Context, eventID string) ([]*TicketType, error)
	Upsert(ctx context.Context, tt *TicketType) error
}

// TicketRepository defines storage for issued tickets. Tickets are never deleted.
type TicketRepository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Ticket, error)
	ListByEventAndOwner(ctx context.Context, eventID, ownerID string) ([]*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
}

// InventoryService owns ticket type counters.
type InventoryService interface {
	// GetOrDefaultTicketTypes returns the event's ticket types, persisting a single default type when none exist.
	GetOrDefaultTicketTypes(ctx context.Context, eventID string) ([]*TicketType, error)
	CreateTicketType(ctx context.Context, eventID, name string, price float64, available int) (*TicketType, error)
	Reserve(ctx context.Context, ticketTypeID string, quantity int) (*TicketType, error)
	Release(ctx context.Context, ticketTypeID string, quantity int) (*TicketType, error)
}

// PurchaseRequest describes a ticket purchase. An empty TicketTypeID selects the event's first ticket type.
type PurchaseRequest struct {
	EventID       string
	TicketTypeID  string
	OwnerID       string
	Quantity      int
	AddToCalendar bool
}

// PurchaseResult is returned by a successful purchase.
type PurchaseResult struct {
	Tickets         []*Ticket `json:"tickets"`
	Total           float64   `json:"total"`
	AuthorizationID string    `json:"authorization_id"`
}

// TicketLedgerService owns issued tickets and their lifecycle.
type TicketLedgerService interface {
	Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)
	CheckIn(ctx context.Context, ticketID, checkerID string) (*Ticket, error)
	Cancel(ctx context.Context, ticketID string) (*Ticket, error)
	VerifyCredential(ctx context.Context, code, checkerID string) (*Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*Ticket, error)
	ListTicketsByOwner(ctx context.Context, ownerID string) ([]*Ticket, error)
	RegenerateCredential(ctx context.Context, ticketID string) (string, error)
}

// CredentialClaims are the fields recovered from a ticket credential.
type CredentialClaims struct {
	EventID string
	OwnerID string
	Nonce   string
}

// CredentialIssuer derives scannable credentials for tickets.
type CredentialIssuer interface {
	Issue(t *Ticket) (string, error)
	Parse(code string) (CredentialClaims, error)
	RenderAsScannable(code string) string
}

// PaymentAuthorizer is the payment boundary. Authorize returns an authorization id
// or ErrPaymentDeclined; Void releases an authorization that was not used.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, amount float64, payerID string) (string, error)
	Void(ctx context.Context, authorizationID string) error
}
