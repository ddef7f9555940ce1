package memory

import (
	"context"
	"strings"

	"eventticketing/internal/domain"
)

// ContactDirectory maps user ids to email addresses.
type ContactDirectory struct{ s *Store }

var _ domain.ContactDirectory = (*ContactDirectory)(nil)

// SetEmail records the delivery address for a user.
func (d *ContactDirectory) SetEmail(userID, email string) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.contacts[userID] = strings.TrimSpace(strings.ToLower(email))
}

func (d *ContactDirectory) EmailFor(ctx context.Context, userID string) (string, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	email, ok := d.s.contacts[userID]
	if !ok || email == "" {
		return "", domain.ErrNotFound
	}
	return email, nil
}
