package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"gedenkseiten/internal/domain"
)

func TestOrderRepositoryGetByCheckoutSessionID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{
			"id", "user_id", "memorial_id", "tier_id", "amount_cents", "currency", "status",
			"checkout_session_id", "created_at", "paid_at",
		}).AddRow("order-1", "user-1", "mem-1", "premium_1y", 2900, "EUR", "pending", "cs_123", created, nil)
		mock.ExpectQuery(`FROM orders`).
			WithArgs("cs_123").
			WillReturnRows(rows)

		repo := NewOrderRepository(db)
		o, err := repo.GetByCheckoutSessionID(ctx, "cs_123")
		require.NoError(t, err)
		require.Equal(t, "order-1", o.ID)
		require.Equal(t, "cs_123", o.CheckoutSessionID)
		require.Nil(t, o.PaidAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown session", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM orders`).
			WithArgs("cs_ghost").
			WillReturnError(sql.ErrNoRows)

		repo := NewOrderRepository(db)
		_, err = repo.GetByCheckoutSessionID(ctx, "cs_ghost")
		require.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderRepositoryMarkPaid(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE orders SET status = 'paid'`).
			WithArgs(at, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewOrderRepository(db)
		require.NoError(t, repo.MarkPaid(ctx, "order-1", at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already paid order does not match", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE orders SET status = 'paid'`).
			WithArgs(at, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewOrderRepository(db)
		require.ErrorIs(t, repo.MarkPaid(ctx, "order-1", at), domain.ErrOrderNotFound)
	})
}
