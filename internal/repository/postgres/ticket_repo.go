package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

type ticketRepository struct {
	DB *sql.DB
}

func NewTicketRepository(db *sql.DB) domain.TicketRepository {
	return &ticketRepository{DB: db}
}

const ticketColumns = `id, event_id, ticket_type_id, owner_id, unit_price, status, purchased_at, ticket_number,
	sequence, credential, checked_in_at, checked_in_by, canceled_at`

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	query := `
		INSERT INTO tickets (id, event_id, ticket_type_id, owner_id, unit_price, status, purchased_at,
			ticket_number, sequence, credential, checked_in_at, checked_in_by, canceled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.DB.ExecContext(ctx, query,
		t.ID, t.EventID, t.TicketTypeID, t.OwnerID, t.UnitPrice, string(t.Status), t.PurchasedAt,
		t.TicketNumber, t.Sequence, t.Credential, t.CheckedInAt, t.CheckedInBy, t.CanceledAt,
	)
	switch {
	case hasCode(err, uniqueViolation):
		return domain.ErrConflict
	case hasCode(err, foreignKeyViolation), isMalformedKey(err):
		return domain.ErrNotFound
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	t, err := scanTicket(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedKey(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *ticketRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE owner_id = $1
		ORDER BY purchased_at, sequence, id
	`
	return r.list(ctx, query, ownerID)
}

func (r *ticketRepository) ListByEventAndOwner(ctx context.Context, eventID, ownerID string) ([]*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1 AND owner_id = $2
		ORDER BY purchased_at, sequence, id
	`
	return r.list(ctx, query, eventID, ownerID)
}

func (r *ticketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $2, credential = $3, checked_in_at = $4, checked_in_by = $5, canceled_at = $6
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query,
		t.ID, string(t.Status), t.Credential, t.CheckedInAt, t.CheckedInBy, t.CanceledAt)
	if isMalformedKey(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if isMalformedKey(err) {
		return []*domain.Ticket{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var (
		status      string
		credential  sql.NullString
		checkedInAt sql.NullTime
		checkedInBy sql.NullString
		canceledAt  sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.EventID, &t.TicketTypeID, &t.OwnerID, &t.UnitPrice, &status, &t.PurchasedAt, &t.TicketNumber,
		&t.Sequence, &credential, &checkedInAt, &checkedInBy, &canceledAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	if credential.Valid {
		t.Credential = &credential.String
	}
	if checkedInAt.Valid {
		t.CheckedInAt = &checkedInAt.Time
	}
	if checkedInBy.Valid {
		t.CheckedInBy = &checkedInBy.String
	}
	if canceledAt.Valid {
		t.CanceledAt = &canceledAt.Time
	}
	return t, nil
}
