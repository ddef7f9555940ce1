package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

// Authorizer approves charges up to a per-purchase limit. It holds no funds; it stands
// in for a gateway at the authorize/void boundary.
type Authorizer struct {
	limit  float64
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]float64
}

// NewAuthorizer returns an authorizer declining any amount above limit. A limit of
// zero or less approves every amount.
func NewAuthorizer(limit float64, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		limit:  limit,
		logger: logger,
		active: make(map[string]float64),
	}
}

var _ domain.PaymentAuthorizer = (*Authorizer)(nil)

func (a *Authorizer) Authorize(ctx context.Context, amount float64, payerID string) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("%w: amount must be >= 0", domain.ErrInvalidInput)
	}
	if a.limit > 0 && amount > a.limit {
		a.logger.InfoContext(ctx, "payment declined", "payer_id", payerID, "amount", amount, "limit", a.limit)
		return "", domain.ErrPaymentDeclined
	}
	id := "auth_" + uuid.NewString()
	a.mu.Lock()
	a.active[id] = amount
	a.mu.Unlock()
	a.logger.DebugContext(ctx, "payment authorized", "payer_id", payerID, "amount", amount, "authorization_id", id)
	return id, nil
}

// Void releases an authorization. Unknown or already voided ids return ErrNotFound.
func (a *Authorizer) Void(ctx context.Context, authorizationID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.active[authorizationID]; !ok {
		return domain.ErrNotFound
	}
	delete(a.active, authorizationID)
	a.logger.DebugContext(ctx, "payment authorization voided", "authorization_id", authorizationID)
	return nil
}

// Outstanding returns the number of authorizations not voided.
func (a *Authorizer) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.active)
}
