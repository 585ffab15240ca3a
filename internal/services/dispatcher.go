package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gedenkseiten/internal/domain"
)

type notificationDispatcher struct {
	userRepo         domain.UserRepository
	notificationRepo domain.NotificationRepository
	templateRepo     domain.EmailTemplateRepository
	renderer         domain.TemplateRenderer
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewNotificationDispatcher returns the dispatcher that creates one in-app
// notification plus one queued email per call, atomically.
func NewNotificationDispatcher(
	userRepo domain.UserRepository,
	notificationRepo domain.NotificationRepository,
	templateRepo domain.EmailTemplateRepository,
	renderer domain.TemplateRenderer,
	timeout time.Duration,
) domain.NotificationDispatcher {
	return &notificationDispatcher{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		templateRepo:     templateRepo,
		renderer:         renderer,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

// Dispatch fails whole: an unresolvable user email, a missing template, a
// render error, or a store error all abort without partial writes.
func (d *notificationDispatcher) Dispatch(ctx context.Context, userID string, typ domain.NotificationType, data map[string]any, scheduleFor *time.Time) (*domain.DispatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.contextTimeout)
	defer cancel()

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("user %s has no email address: %w", userID, domain.ErrInvalidInput)
	}

	tpl, err := d.templateRepo.GetActiveByName(ctx, string(typ))
	if err != nil {
		return nil, err
	}
	subject, htmlBody, textBody, err := d.renderer.Render(tpl, data)
	if err != nil {
		return nil, fmt.Errorf("render template %q: %w", tpl.Name, err)
	}

	var rawData json.RawMessage
	if len(data) > 0 {
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal notification data: %w", err)
		}
	}

	now := d.now()
	scheduledFor := now
	if scheduleFor != nil {
		scheduledFor = *scheduleFor
	}
	notification := &domain.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     subject,
		Message:   textBody,
		Data:      rawData,
		CreatedAt: now,
	}
	queued := &domain.QueuedEmail{
		UserID:       userID,
		ToAddress:    user.Email,
		Subject:      subject,
		HTMLBody:     htmlBody,
		TextBody:     textBody,
		Status:       domain.EmailPending,
		ScheduledFor: scheduledFor,
		CreatedAt:    now,
	}
	if err := d.notificationRepo.CreateWithEmail(ctx, notification, queued); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	return &domain.DispatchResult{
		NotificationID: notification.ID,
		EmailQueueID:   queued.ID,
	}, nil
}
