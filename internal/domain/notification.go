package domain

import (
	"context"
	"encoding/json"
	"time"
)

// NotificationType names the events a user can be notified about. Each type
// has a matching email template of the same name.
type NotificationType string

const (
	NotificationApprovalRequired NotificationType = "approval_required"
	NotificationApproved         NotificationType = "approved"
	NotificationRejected         NotificationType = "rejected"
	NotificationExpiringSoon     NotificationType = "expiring_soon"
	NotificationExpired          NotificationType = "expired"
	NotificationPaymentRequired  NotificationType = "payment_required"
)

// Notification is an in-app notification record. Marked read by the owning
// user, never deleted.
// swagger:model Notification
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        json.RawMessage  `json:"data,omitempty"`
	IsRead      bool             `json:"is_read"`
	IsEmailSent bool             `json:"is_email_sent"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationRepository defines storage operations for notifications.
// CreateWithEmail writes the notification and its queued email in a single
// transaction so a crash can never strand one without the other.
type NotificationRepository interface {
	CreateWithEmail(ctx context.Context, n *Notification, e *QueuedEmail) error
	ListByUserID(ctx context.Context, userID string, params PaginationParams) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkEmailSent(ctx context.Context, id string) error
}

// DispatchResult reports what the dispatcher created.
type DispatchResult struct {
	NotificationID string `json:"notification_id"`
	EmailQueueID   string `json:"email_queue_id"`
}

// NotificationDispatcher turns (user, type, template data) into one
// notification row plus one queued email rendered from the matching template.
// The two writes are a single transaction. The call fails whole: no email
// without its notification and vice versa.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, userID string, typ NotificationType, data map[string]any, scheduleFor *time.Time) (*DispatchResult, error)
}

// NotificationService is the user-facing notification API.
type NotificationService interface {
	ListOwn(ctx context.Context, userID string, params PaginationParams) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}
