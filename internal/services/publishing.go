package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gedenkseiten/internal/domain"
)

type publishingService struct {
	memorialRepo   domain.MemorialRepository
	orderRepo      domain.OrderRepository
	checkout       domain.CheckoutProvider
	dispatcher     domain.NotificationDispatcher
	logger         *slog.Logger
	baseURL        string
	contextTimeout time.Duration
	now            func() time.Time
}

// NewPublishingService maps publishing tier selections to publication
// windows, creating checkout sessions for paid tiers.
func NewPublishingService(
	memorialRepo domain.MemorialRepository,
	orderRepo domain.OrderRepository,
	checkout domain.CheckoutProvider,
	dispatcher domain.NotificationDispatcher,
	logger *slog.Logger,
	baseURL string,
	timeout time.Duration,
) domain.PublishingService {
	return &publishingService{
		memorialRepo:   memorialRepo,
		orderRepo:      orderRepo,
		checkout:       checkout,
		dispatcher:     dispatcher,
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *publishingService) Tiers() []domain.PublishingTier {
	return domain.PublishingTiers
}

// RequestPublish publishes directly for a free tier. For a paid tier it
// creates a pending order plus a checkout session and returns the redirect
// URL; the memorial stays unpublished until ConfirmPayment.
func (s *publishingService) RequestPublish(ctx context.Context, memorialID, callerID, tierID string) (*domain.PublishRequestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tier, ok := domain.TierByID(tierID)
	if !ok {
		return nil, fmt.Errorf("tier %q: %w", tierID, domain.ErrUnknownTier)
	}
	m, err := s.memorialRepo.GetByID(ctx, memorialID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get memorial: %w", err)
	}
	if m.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	if m.Archived() {
		return nil, domain.ErrNotFound
	}

	if tier.Free() {
		publishedAt := s.now()
		updated, err := s.memorialRepo.Publish(ctx, memorialID, publishedAt, tier.Until(publishedAt), domain.PaymentNone)
		if err != nil {
			return nil, fmt.Errorf("publish memorial: %w", err)
		}
		return &domain.PublishRequestResult{Memorial: updated}, nil
	}

	order := &domain.Order{
		UserID:      callerID,
		MemorialID:  memorialID,
		TierID:      tier.ID,
		AmountCents: tier.PriceCents,
		Currency:    tier.Currency,
		Status:      domain.OrderPending,
		CreatedAt:   s.now(),
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := s.checkout.CreateSession(ctx, domain.CreateCheckoutRequest{
		Reference:   order.ID,
		Description: fmt.Sprintf("Gedenkseite für %s (%s)", m.DeceasedName(), tier.ID),
		AmountCents: tier.PriceCents,
		Currency:    tier.Currency,
		SuccessURL:  s.baseURL + "/publish/success",
		CancelURL:   s.baseURL + "/publish/cancel",
	})
	if err != nil {
		// The order stays pending and the memorial untouched.
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if err := s.orderRepo.SetCheckoutSessionID(ctx, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("store checkout session: %w", err)
	}

	data := map[string]any{
		"deceased_name": m.DeceasedName(),
		"checkout_url":  session.RedirectURL,
	}
	if _, err := s.dispatcher.Dispatch(ctx, callerID, domain.NotificationPaymentRequired, data, nil); err != nil {
		s.logger.Error("payment-required notification failed", "order_id", order.ID, "err", err)
	}

	return &domain.PublishRequestResult{OrderID: order.ID, RedirectURL: session.RedirectURL}, nil
}

// ConfirmPayment handles the provider's success callback. The publish
// transition happens here and only here for paid tiers.
func (s *publishingService) ConfirmPayment(ctx context.Context, sessionID string) (*domain.PaymentConfirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if sessionID == "" {
		return nil, fmt.Errorf("missing session id: %w", domain.ErrInvalidInput)
	}
	session, err := s.checkout.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	if !session.Paid {
		return nil, domain.ErrSessionNotPaid
	}
	order, err := s.orderRepo.GetByCheckoutSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	tier, ok := domain.TierByID(order.TierID)
	if !ok {
		return nil, fmt.Errorf("order %s tier %q: %w", order.ID, order.TierID, domain.ErrUnknownTier)
	}

	now := s.now()
	if order.Status != domain.OrderPaid {
		if err := s.orderRepo.MarkPaid(ctx, order.ID, now); err != nil {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
	}
	if _, err := s.memorialRepo.Publish(ctx, order.MemorialID, now, tier.Until(now), domain.PaymentPaid); err != nil {
		return nil, fmt.Errorf("publish after payment: %w", err)
	}

	return &domain.PaymentConfirmation{OrderID: order.ID, PaymentStatus: domain.OrderPaid}, nil
}
