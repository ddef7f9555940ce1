package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

type contactDirectory struct {
	DB *sql.DB
}

// NewContactDirectory resolves reminder recipients from the users table.
func NewContactDirectory(db *sql.DB) domain.ContactDirectory {
	return &contactDirectory{DB: db}
}

func (r *contactDirectory) EmailFor(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.DB.QueryRowContext(ctx, `SELECT email FROM users WHERE id::text = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return email, nil
}
