package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gedenkseiten/internal/domain"
)

type notificationService struct {
	notificationRepo domain.NotificationRepository
	contextTimeout   time.Duration
}

// NewNotificationService returns the user-facing notification listing.
func NewNotificationService(notificationRepo domain.NotificationRepository, timeout time.Duration) domain.NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		contextTimeout:   timeout,
	}
}

func (s *notificationService) ListOwn(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	notifications, total, err := s.notificationRepo.ListByUserID(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
