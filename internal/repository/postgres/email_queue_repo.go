package postgres

import (
	"context"
	"database/sql"
	"time"

	"gedenkseiten/internal/domain"
)

type emailQueueRepository struct {
	DB *sql.DB
}

// NewEmailQueueRepository returns a domain.EmailQueueRepository implemented with Postgres.
func NewEmailQueueRepository(db *sql.DB) domain.EmailQueueRepository {
	return &emailQueueRepository{DB: db}
}

func (r *emailQueueRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.QueuedEmail, error) {
	query := `
		SELECT id, notification_id, user_id, to_address, subject, html_body, text_body, status,
		       attempts, last_attempt_at, last_error, scheduled_for, created_at
		FROM email_queue
		WHERE status = 'pending' AND scheduled_for <= $1 AND attempts < $2
		ORDER BY created_at ASC
		LIMIT $3
	`
	rows, err := r.DB.QueryContext(ctx, query, now, domain.MaxEmailAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := make([]*domain.QueuedEmail, 0)
	for rows.Next() {
		e := &domain.QueuedEmail{}
		var lastAttempt sql.NullTime
		var notifNull sql.NullString
		if err := rows.Scan(&e.ID, &notifNull, &e.UserID, &e.ToAddress, &e.Subject, &e.HTMLBody, &e.TextBody,
			&e.Status, &e.Attempts, &lastAttempt, &e.LastError, &e.ScheduledFor, &e.CreatedAt); err != nil {
			return nil, err
		}
		if notifNull.Valid {
			e.NotificationID = notifNull.String
		}
		if lastAttempt.Valid {
			e.LastAttemptAt = &lastAttempt.Time
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (r *emailQueueRepository) RecordAttempt(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE email_queue SET attempts = attempts + 1, last_attempt_at = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *emailQueueRepository) MarkSent(ctx context.Context, id string) error {
	query := `UPDATE email_queue SET status = 'sent', last_error = '' WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkFailure records the send error; the status flips to failed only when
// the attempt budget is spent, otherwise the email stays pending for retry.
func (r *emailQueueRepository) MarkFailure(ctx context.Context, id string, attempts int, sendErr string) error {
	status := domain.EmailPending
	if attempts >= domain.MaxEmailAttempts {
		status = domain.EmailFailed
	}
	query := `UPDATE email_queue SET status = $1, last_error = $2 WHERE id = $3`
	result, err := r.DB.ExecContext(ctx, query, status, sendErr, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
