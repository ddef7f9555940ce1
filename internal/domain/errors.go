package domain

import "errors"

// Sentinel errors returned by the ticketing and calendar services.
// Callers match them with errors.Is; services may wrap them with context.
var (
	ErrEventNotFound         = errors.New("event not found")
	ErrUnknownTicketType     = errors.New("unknown ticket type")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidQuantity       = errors.New("quantity must be positive")

	ErrTicketNotFound         = errors.New("ticket not found")
	ErrAlreadyUsed            = errors.New("ticket already used")
	ErrTicketCanceled         = errors.New("ticket canceled")
	ErrCannotCancelUsedTicket = errors.New("cannot cancel a used ticket")
	ErrMalformedCredential    = errors.New("malformed credential")
	ErrPaymentDeclined        = errors.New("payment declined")

	ErrAlreadyInCalendar     = errors.New("event already in calendar")
	ErrNotInCalendar         = errors.New("event not in calendar")
	ErrInvalidReminderOffset = errors.New("reminder must fire before event start")
	ErrReminderInPast        = errors.New("reminder fire time already elapsed")
	ErrReminderNotFound      = errors.New("reminder not found")

	// ErrNotFound is returned by repositories when no record matches the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by repositories on a unique key violation.
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
