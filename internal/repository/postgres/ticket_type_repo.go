package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

type ticketTypeRepository struct {
	DB *sql.DB
}

func NewTicketTypeRepository(db *sql.DB) domain.TicketTypeRepository {
	return &ticketTypeRepository{DB: db}
}

const ticketTypeColumns = `id, event_id, name, price, available, sold, created_at, updated_at`

func (r *ticketTypeRepository) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	query := `SELECT ` + ticketTypeColumns + ` FROM ticket_types WHERE id = $1`
	tt, err := scanTicketType(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedKey(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return tt, nil
}

func (r *ticketTypeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if isMalformedKey(err) {
		return []*domain.TicketType{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := make([]*domain.TicketType, 0)
	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

// Upsert inserts the ticket type, or overwrites its counters when the id exists.
// The sold <= available check constraint rejects an oversold row.
func (r *ticketTypeRepository) Upsert(ctx context.Context, tt *domain.TicketType) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	query := `
		INSERT INTO ticket_types (id, event_id, name, price, available, sold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, available = EXCLUDED.available,
			sold = EXCLUDED.sold, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query,
		tt.ID, tt.EventID, tt.Name, tt.Price, tt.Available, tt.Sold, tt.CreatedAt, tt.UpdatedAt)
	if hasCode(err, foreignKeyViolation) || isMalformedKey(err) {
		return domain.ErrNotFound
	}
	return err
}

func scanTicketType(row rowScanner) (*domain.TicketType, error) {
	tt := &domain.TicketType{}
	err := row.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.Available, &tt.Sold, &tt.CreatedAt, &tt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return tt, nil
}
