package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"gedenkseiten/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository returns a domain.NotificationRepository implemented with Postgres.
func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

// CreateWithEmail inserts the notification and its queued email atomically.
func (r *notificationRepository) CreateWithEmail(ctx context.Context, n *domain.Notification, e *domain.QueuedEmail) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var data any
	if n.Data != nil {
		data = []byte(n.Data)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	e.NotificationID = n.ID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO email_queue (id, notification_id, user_id, to_address, subject, html_body, text_body, status, scheduled_for, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.NotificationID, e.UserID, e.ToAddress, e.Subject, e.HTMLBody, e.TextBody, e.Status, e.ScheduledFor, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert queued email: %w", err)
	}

	return tx.Commit()
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, user_id, type, title, message, data, is_read, is_email_sent, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.IsEmailSent, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if data != nil {
			n.Data = data
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkEmailSent(ctx context.Context, id string) error {
	query := `UPDATE notifications SET is_email_sent = TRUE WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id)
	return err
}
