package domain

import (
	"context"
	"time"
)

// OrderStatus is the payment state of an order.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

// PublishingTier is a priced duration option for how long a memorial stays
// publicly visible. Forever tiers have no end date.
type PublishingTier struct {
	ID         string `json:"id"`
	Days       int    `json:"days,omitempty"`
	Forever    bool   `json:"forever,omitempty"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// Free reports whether the tier publishes without payment.
func (t PublishingTier) Free() bool { return t.PriceCents == 0 }

// Until returns the end of the publication window starting at from, or nil
// for a forever tier.
func (t PublishingTier) Until(from time.Time) *time.Time {
	if t.Forever {
		return nil
	}
	u := from.AddDate(0, 0, t.Days)
	return &u
}

// PublishingTiers is the fixed tier table. Prices are in euro cents.
var PublishingTiers = []PublishingTier{
	{ID: "basic-30", Days: 30, PriceCents: 0, Currency: "EUR"},
	{ID: "half-year", Days: 180, PriceCents: 1900, Currency: "EUR"},
	{ID: "year", Days: 365, PriceCents: 2900, Currency: "EUR"},
	{ID: "forever", Forever: true, PriceCents: 7900, Currency: "EUR"},
}

// TierByID looks up a tier in the fixed table.
func TierByID(id string) (PublishingTier, bool) {
	for _, t := range PublishingTiers {
		if t.ID == id {
			return t, true
		}
	}
	return PublishingTier{}, false
}

// Order captures a paid publishing tier selection awaiting checkout.
// swagger:model Order
type Order struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	MemorialID        string      `json:"memorial_id"`
	TierID            string      `json:"tier_id"`
	AmountCents       int64       `json:"amount_cents"`
	Currency          string      `json:"currency"`
	Status            OrderStatus `json:"status"`
	CheckoutSessionID string      `json:"-"`
	CreatedAt         time.Time   `json:"created_at"`
	PaidAt            *time.Time  `json:"paid_at,omitempty"`
}

// OrderRepository defines storage operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*Order, error)
	SetCheckoutSessionID(ctx context.Context, id, sessionID string) error
	MarkPaid(ctx context.Context, id string, at time.Time) error
}

// CheckoutSession is the external payment provider's view of a checkout.
type CheckoutSession struct {
	ID          string
	RedirectURL string
	Paid        bool
}

// CreateCheckoutRequest describes the checkout session to open.
type CreateCheckoutRequest struct {
	Reference   string // order id, echoed back by the provider
	Description string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// CheckoutProvider is the payment collaborator port. Consumed strictly
// request/response; webhooks land on the payment success handler.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req CreateCheckoutRequest) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// PublishRequestResult is the outcome of a publish request: either the
// memorial was published directly (free tier) or the caller must redirect the
// user to checkout.
type PublishRequestResult struct {
	Memorial    *Memorial `json:"memorial,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"`
}

// PaymentConfirmation is the outcome of a confirmed checkout session.
type PaymentConfirmation struct {
	OrderID       string      `json:"order_id"`
	PaymentStatus OrderStatus `json:"payment_status"`
}

// PublishingService maps tier selections to publication windows and orders.
type PublishingService interface {
	Tiers() []PublishingTier
	RequestPublish(ctx context.Context, memorialID, callerID, tierID string) (*PublishRequestResult, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*PaymentConfirmation, error)
}
