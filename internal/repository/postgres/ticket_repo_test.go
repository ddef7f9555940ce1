package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

var ticketCols = []string{
	"id", "event_id", "ticket_type_id", "owner_id", "unit_price", "status", "purchased_at", "ticket_number",
	"sequence", "credential", "checked_in_at", "checked_in_by", "canceled_at",
}

func TestTicketTypeRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and inserts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO ticket_types (.+) ON CONFLICT \(id\) DO UPDATE`).
			WithArgs(sqlmock.AnyArg(), "ev-1", "VIP", 80.0, 10, 0, t0, t0).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tt := &domain.TicketType{EventID: "ev-1", Name: "VIP", Price: 80, Available: 10, CreatedAt: t0, UpdatedAt: t0}
		require.NoError(t, NewTicketTypeRepository(db).Upsert(ctx, tt))
		assert.NotEmpty(t, tt.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO ticket_types`).WillReturnError(&pq.Error{Code: "23503"})

		err = NewTicketTypeRepository(db).Upsert(ctx, &domain.TicketType{ID: "tt-1", EventID: "nope"})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestTicketTypeRepository_Get(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "event_id", "name", "price", "available", "sold", "created_at", "updated_at"}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM ticket_types WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT (.+) FROM ticket_types\s+WHERE event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("tt-1", "ev-1", "Standard Admission", 0.0, 50, 7, t0, t0).
			AddRow("tt-2", "ev-1", "VIP", 90.0, 5, 5, t0, t0))

	repo := NewTicketTypeRepository(db)
	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	types, err := repo.ListByEventID(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, 43, types[0].Remaining())
	assert.Equal(t, 0, types[1].Remaining())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_Create(t *testing.T) {
	ctx := context.Background()
	code := "v1.ZXY.VTE.1-0"
	ticket := &domain.Ticket{
		ID: "tk-1", EventID: "ev-1", TicketTypeID: "tt-1", OwnerID: "U1", UnitPrice: 30,
		Status: domain.TicketStatusConfirmed, PurchasedAt: t0, TicketNumber: "TKT-AAAAAA-BBBBBB", Credential: &code,
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tickets`).
					WithArgs("tk-1", "ev-1", "tt-1", "U1", 30.0, "confirmed", t0, "TKT-AAAAAA-BBBBBB", 0, code, nil, nil, nil).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "duplicate ticket number",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tickets`).WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrConflict,
		},
		{
			name: "unknown ticket type",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tickets`).WillReturnError(&pq.Error{Code: "23503"})
			},
			wantErr: domain.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewTicketRepository(db).Create(ctx, ticket)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTicketRepository_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM tickets\s+WHERE event_id = \$1 AND owner_id = \$2`).
		WithArgs("ev-1", "U1").
		WillReturnRows(sqlmock.NewRows(ticketCols).
			AddRow("tk-1", "ev-1", "tt-1", "U1", 30.0, "used", t0, "TKT-1", 0, "code-1", t1, "gate-a", nil).
			AddRow("tk-2", "ev-1", "tt-1", "U1", 30.0, "confirmed", t0, "TKT-2", 1, nil, nil, nil, nil))
	mock.ExpectExec(`UPDATE tickets\s+SET status = \$2`).
		WithArgs("tk-9", "canceled", nil, nil, nil, t1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTicketRepository(db)
	tickets, err := repo.ListByEventAndOwner(ctx, "ev-1", "U1")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, domain.TicketStatusUsed, tickets[0].Status)
	require.NotNil(t, tickets[0].CheckedInBy)
	assert.Equal(t, "gate-a", *tickets[0].CheckedInBy)
	assert.Nil(t, tickets[1].Credential)
	assert.Equal(t, 1, tickets[1].Sequence)

	canceledAt := t1
	err = repo.Update(ctx, &domain.Ticket{ID: "tk-9", Status: domain.TicketStatusCanceled, CanceledAt: &canceledAt})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositories_MalformedKeys(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	malformed := &pq.Error{Code: "22P02"}
	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id = \$1`).WithArgs("nope").WillReturnError(malformed)
	mock.ExpectQuery(`SELECT (.+) FROM tickets\s+WHERE event_id = \$1 AND owner_id = \$2`).
		WithArgs("nope", "U1").
		WillReturnError(malformed)
	mock.ExpectExec(`UPDATE tickets`).WillReturnError(malformed)
	mock.ExpectQuery(`SELECT (.+) FROM ticket_types WHERE id = \$1`).WithArgs("nope").WillReturnError(malformed)
	mock.ExpectQuery(`SELECT (.+) FROM ticket_types\s+WHERE event_id = \$1`).WithArgs("nope").WillReturnError(malformed)
	mock.ExpectExec(`INSERT INTO ticket_types`).WillReturnError(malformed)

	tickets := NewTicketRepository(db)
	_, err = tickets.GetByID(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)

	owned, err := tickets.ListByEventAndOwner(ctx, "nope", "U1")
	require.NoError(t, err)
	assert.Empty(t, owned)

	err = tickets.Update(ctx, &domain.Ticket{ID: "nope", Status: domain.TicketStatusCanceled})
	require.ErrorIs(t, err, domain.ErrNotFound)

	types := NewTicketTypeRepository(db)
	_, err = types.GetByID(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)

	listed, err := types.ListByEventID(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, listed)

	err = types.Upsert(ctx, &domain.TicketType{ID: "tt-1", EventID: "nope"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
