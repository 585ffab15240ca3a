package domain

import (
	"context"
	"encoding/json"
	"time"
)

// MemorialKind distinguishes a short obituary notice from a full memorial page.
type MemorialKind string

const (
	KindObituary MemorialKind = "obituary"
	KindMemorial MemorialKind = "memorial"
)

// ModerationStatus is the admin review state of a memorial.
type ModerationStatus string

const (
	ModerationDraft    ModerationStatus = "draft"
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// PaymentStatus tracks whether publication of a memorial required payment.
type PaymentStatus string

const (
	PaymentNone    PaymentStatus = "none"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Notice stages for the expiry sweeper. A memorial is notified once per
// threshold crossing: stage 1 after the "expiring soon" notice, stage 2 after
// the "expired" notice. Re-publishing resets the stage to 0.
const (
	NoticeStageNone         = 0
	NoticeStageExpiringSoon = 1
	NoticeStageExpired      = 2
)

// Memorial is an obituary or memorial page record.
//
// Visibility is governed by IsPublished alone; ModerationStatus drives the
// admin queue. Both are kept consistent by the moderation service, but when a
// row disagrees (e.g. manual edits), IsPublished wins for readers.
// swagger:model Memorial
type Memorial struct {
	ID      string       `json:"id"`
	OwnerID string       `json:"owner_id"`
	Kind    MemorialKind `json:"kind"`
	Slug    string       `json:"slug"`

	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	DeathDate    *time.Time `json:"death_date,omitempty"`
	BirthPlace   string     `json:"birth_place,omitempty"`
	DeathPlace   string     `json:"death_place,omitempty"`
	CauseOfDeath string     `json:"cause_of_death,omitempty"`
	Gender       string     `json:"gender,omitempty"`

	// Blocks is the page content as an opaque block list maintained by the
	// visual editor. The backend never interprets it.
	Blocks json.RawMessage `json:"blocks,omitempty"`

	IsPublished      bool             `json:"is_published"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	PublishedAt      *time.Time       `json:"published_at,omitempty"`
	// PublishedUntil is the end of the paid/free publication window.
	// Nil means the memorial stays published indefinitely.
	PublishedUntil *time.Time    `json:"published_until,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status"`

	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	NoticeStage int        `json:"-"`
	// Version increments on every moderation-relevant write and guards
	// approve/reject against concurrent admin actions.
	Version   int       `json:"version"`
	ViewCount int64     `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Archived reports whether the memorial has been soft-deleted.
func (m *Memorial) Archived() bool { return m.ArchivedAt != nil }

// DeceasedName returns the subject's display name.
func (m *Memorial) DeceasedName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	return m.FirstName + " " + m.LastName
}

// MemorialUpdate carries the owner-editable fields of a memorial.
// Nil fields are left unchanged.
type MemorialUpdate struct {
	FirstName    *string
	LastName     *string
	BirthDate    *time.Time
	DeathDate    *time.Time
	BirthPlace   *string
	DeathPlace   *string
	CauseOfDeath *string
	Gender       *string
	Blocks       json.RawMessage
}

// ExpiryBatch is the sweeper's partition of memorials whose publication
// window ends inside the lookahead window.
type ExpiryBatch struct {
	Expired      []*Memorial
	ExpiringSoon []*Memorial
}

// MemorialRepository defines the interface for memorial storage.
type MemorialRepository interface {
	Create(ctx context.Context, m *Memorial) error
	GetByID(ctx context.Context, id string) (*Memorial, error)
	GetBySlug(ctx context.Context, slug string) (*Memorial, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Memorial, error)
	ListByModerationStatus(ctx context.Context, status ModerationStatus, params PaginationParams) ([]*Memorial, int, error)
	Update(ctx context.Context, id string, upd MemorialUpdate) (*Memorial, error)

	// SetModerationStatus updates the review state if the stored version
	// still matches. Approving also publishes and stamps publishedAt.
	// Returns ErrConflict when the version is stale.
	SetModerationStatus(ctx context.Context, id string, version int, status ModerationStatus, publishedAt *time.Time) (*Memorial, error)
	SetPublished(ctx context.Context, id string, published bool) (*Memorial, error)
	// Publish flips the memorial to published with the given window and
	// payment status and resets the expiry notice stage.
	Publish(ctx context.Context, id string, publishedAt time.Time, publishedUntil *time.Time, payment PaymentStatus) (*Memorial, error)
	Archive(ctx context.Context, id string, at time.Time) error

	// ListExpiringBefore returns published, non-archived memorials whose
	// bounded publication window ends at or before the given instant.
	// Unbounded memorials (nil published_until) are never returned. Rows
	// already past expiry stay selected until the sweeper unpublishes them.
	ListExpiringBefore(ctx context.Context, to time.Time) ([]*Memorial, error)
	Unpublish(ctx context.Context, id string, noticeStage int) error
	SetNoticeStage(ctx context.Context, id string, stage int) error

	AddViews(ctx context.Context, id string, delta int64) error
}

// MemorialService is the owner-facing lifecycle of a memorial.
type MemorialService interface {
	Create(ctx context.Context, m *Memorial) error
	GetByID(ctx context.Context, id, callerID string) (*Memorial, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*Memorial, error)
	ListOwn(ctx context.Context, ownerID string) ([]*Memorial, error)
	Update(ctx context.Context, id, callerID string, upd MemorialUpdate) (*Memorial, error)
	SubmitForReview(ctx context.Context, id, callerID string) (*Memorial, error)
	Archive(ctx context.Context, id, callerID string) error
}

// ModerationService is the admin-facing side of the lifecycle.
type ModerationService interface {
	ListQueue(ctx context.Context, status ModerationStatus, params PaginationParams) ([]*Memorial, int, error)
	Approve(ctx context.Context, id string, version int) (*Memorial, error)
	Reject(ctx context.Context, id string, version int) (*Memorial, error)
	TogglePublished(ctx context.Context, id string) (*Memorial, error)
	Archive(ctx context.Context, id string) error
}
