package domain

import (
	"context"
	"time"
)

// EmailStatus is the delivery state of a queued email.
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// MaxEmailAttempts is the retry budget of the queue processor. An email that
// fails its third attempt is terminal at EmailFailed.
const MaxEmailAttempts = 3

// QueuedEmail is a rendered email waiting for delivery by the queue
// processor.
// swagger:model QueuedEmail
type QueuedEmail struct {
	ID string `json:"id"`
	// NotificationID links back to the notification this email renders;
	// delivery flips the notification's is_email_sent flag.
	NotificationID string      `json:"notification_id"`
	UserID         string      `json:"user_id"`
	ToAddress     string      `json:"to_address"`
	Subject       string      `json:"subject"`
	HTMLBody      string      `json:"html_body"`
	TextBody      string      `json:"text_body"`
	Status        EmailStatus `json:"status"`
	Attempts      int         `json:"attempts"`
	LastAttemptAt *time.Time  `json:"last_attempt_at,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
	ScheduledFor  time.Time   `json:"scheduled_for"`
	CreatedAt     time.Time   `json:"created_at"`
}

// EmailQueueRepository defines storage operations for the email queue.
type EmailQueueRepository interface {
	// ListDue returns up to limit pending emails that are due
	// (scheduled_for <= now) and under the attempt budget, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*QueuedEmail, error)
	// RecordAttempt bumps the attempt counter and timestamp. It runs
	// before the provider call so a crash mid-send still counts.
	RecordAttempt(ctx context.Context, id string, at time.Time) error
	MarkSent(ctx context.Context, id string) error
	// MarkFailure stores the provider error; status flips to failed only
	// once the attempt budget is exhausted.
	MarkFailure(ctx context.Context, id string, attempts int, sendErr string) error
}

// EmailTemplate holds subject/html/text templates with {{placeholder}}
// tokens, keyed by notification type name. Read-only for the dispatcher.
type EmailTemplate struct {
	ID       string
	Name     string
	Subject  string
	HTMLBody string
	TextBody string
	IsActive bool
}

// EmailTemplateRepository reads templates by name.
type EmailTemplateRepository interface {
	GetActiveByName(ctx context.Context, name string) (*EmailTemplate, error)
}

// TemplateRenderer substitutes {{placeholder}} tokens in a template with the
// given data, returning rendered subject, html, and text bodies.
type TemplateRenderer interface {
	Render(tpl *EmailTemplate, data map[string]any) (subject, htmlBody, textBody string, err error)
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// QueueRunResult summarizes one email queue processor run.
type QueueRunResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}

// EmailQueueProcessor drains the email queue in batches.
type EmailQueueProcessor interface {
	ProcessQueue(ctx context.Context) (*QueueRunResult, error)
}
