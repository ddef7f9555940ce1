package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventticketing/internal/domain"
)

type reminderRepository struct {
	DB *sql.DB
}

func NewReminderRepository(db *sql.DB) domain.ReminderRepository {
	return &reminderRepository{DB: db}
}

const reminderColumns = `id, entry_id, owner_id, event_id, minutes_before, fire_at, message, status, sent_at, created_at`

func (r *reminderRepository) Create(ctx context.Context, rem *domain.Reminder) error {
	query := `
		INSERT INTO reminders (entry_id, owner_id, event_id, minutes_before, fire_at, message, status, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		rem.EntryID, rem.OwnerID, rem.EventID, rem.MinutesBefore, rem.FireAt, rem.Message, string(rem.Status),
		rem.SentAt, rem.CreatedAt,
	).Scan(&rem.ID)
	if hasCode(err, foreignKeyViolation) || isMalformedKey(err) {
		return domain.ErrNotFound
	}
	return err
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	rem, err := scanReminder(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedKey(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rem, nil
}

func (r *reminderRepository) ListByEntryID(ctx context.Context, entryID string) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE entry_id = $1 ORDER BY fire_at, id`
	return r.list(ctx, query, entryID)
}

func (r *reminderRepository) ListPendingByOwner(ctx context.Context, ownerID string) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE owner_id = $1 AND status = $2 ORDER BY fire_at, id`
	return r.list(ctx, query, ownerID, string(domain.ReminderStatusPending))
}

func (r *reminderRepository) ListPendingDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE status = $1 AND fire_at <= $2 ORDER BY fire_at, id`
	return r.list(ctx, query, string(domain.ReminderStatusPending), now)
}

func (r *reminderRepository) Update(ctx context.Context, rem *domain.Reminder) error {
	query := `UPDATE reminders SET message = $2, status = $3, sent_at = $4 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, rem.ID, rem.Message, string(rem.Status), rem.SentAt)
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

func (r *reminderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
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

func (r *reminderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Reminder, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if isMalformedKey(err) {
		return []*domain.Reminder{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reminders := make([]*domain.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	rem := &domain.Reminder{}
	var status string
	var sentAt sql.NullTime
	err := row.Scan(
		&rem.ID, &rem.EntryID, &rem.OwnerID, &rem.EventID, &rem.MinutesBefore, &rem.FireAt, &rem.Message,
		&status, &sentAt, &rem.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rem.Status = domain.ReminderStatus(status)
	if sentAt.Valid {
		rem.SentAt = &sentAt.Time
	}
	return rem, nil
}
