package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

type calendarRepository struct {
	DB *sql.DB
}

func NewCalendarRepository(db *sql.DB) domain.CalendarRepository {
	return &calendarRepository{DB: db}
}

const entryColumns = `e.id, e.owner_id, e.event_id, e.title, e.location, e.description, e.starts_at, e.ends_at, e.created_at,
	COALESCE(ARRAY(SELECT r.id FROM reminders r WHERE r.entry_id = e.id ORDER BY r.created_at, r.id), '{}')`

func (r *calendarRepository) CreateEntry(ctx context.Context, e *domain.CalendarEntry) error {
	query := `
		INSERT INTO calendar_entries (owner_id, event_id, title, location, description, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.OwnerID, e.EventID, e.Title, e.Location, e.Description, e.StartsAt, e.EndsAt, e.CreatedAt,
	).Scan(&e.ID)
	switch {
	case hasCode(err, uniqueViolation):
		return domain.ErrConflict
	case hasCode(err, foreignKeyViolation), isMalformedKey(err):
		return domain.ErrNotFound
	case err != nil:
		return err
	}
	if e.ReminderIDs == nil {
		e.ReminderIDs = []string{}
	}
	return nil
}

func (r *calendarRepository) GetEntry(ctx context.Context, ownerID, eventID string) (*domain.CalendarEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM calendar_entries e WHERE e.owner_id = $1 AND e.event_id = $2`
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, ownerID, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedKey(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *calendarRepository) ListEntries(ctx context.Context, ownerID string) ([]*domain.CalendarEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM calendar_entries e
		WHERE e.owner_id = $1
		ORDER BY e.starts_at, e.id
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]*domain.CalendarEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes the entry; reminders go with it through ON DELETE CASCADE.
func (r *calendarRepository) DeleteEntry(ctx context.Context, entryID string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM calendar_entries WHERE id = $1`, entryID)
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

func scanEntry(row rowScanner) (*domain.CalendarEntry, error) {
	e := &domain.CalendarEntry{}
	var descNull sql.NullString
	var reminderIDs []string
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.EventID, &e.Title, &e.Location, &descNull, &e.StartsAt, &e.EndsAt, &e.CreatedAt,
		pq.Array(&reminderIDs),
	)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if reminderIDs == nil {
		reminderIDs = []string{}
	}
	e.ReminderIDs = reminderIDs
	return e, nil
}
