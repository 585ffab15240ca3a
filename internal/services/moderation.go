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

type moderationService struct {
	memorialRepo   domain.MemorialRepository
	dispatcher     domain.NotificationDispatcher
	logger         *slog.Logger
	baseURL        string
	contextTimeout time.Duration
	now            func() time.Time
}

// NewModerationService returns the admin-facing moderation service.
//
// Approve and Reject write the store first and notify second; a notification
// failure is logged and swallowed, never rolled back into the primary action.
func NewModerationService(
	memorialRepo domain.MemorialRepository,
	dispatcher domain.NotificationDispatcher,
	logger *slog.Logger,
	baseURL string,
	timeout time.Duration,
) domain.ModerationService {
	return &moderationService{
		memorialRepo:   memorialRepo,
		dispatcher:     dispatcher,
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *moderationService) ListQueue(ctx context.Context, status domain.ModerationStatus, params domain.PaginationParams) ([]*domain.Memorial, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	memorials, total, err := s.memorialRepo.ListByModerationStatus(ctx, status, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list moderation queue: %w", err)
	}
	if memorials == nil {
		memorials = []*domain.Memorial{}
	}
	return memorials, total, nil
}

func (s *moderationService) Approve(ctx context.Context, id string, version int) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	publishedAt := s.now()
	m, err := s.memorialRepo.SetModerationStatus(ctx, id, version, domain.ModerationApproved, &publishedAt)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("approve memorial: %w", err)
	}

	data := map[string]any{
		"deceased_name": m.DeceasedName(),
		"page_url":      s.baseURL + "/m/" + m.Slug,
	}
	if _, err := s.dispatcher.Dispatch(ctx, m.OwnerID, domain.NotificationApproved, data, nil); err != nil {
		s.logger.Error("approved notification failed", "memorial_id", id, "err", err)
	}
	return m, nil
}

func (s *moderationService) Reject(ctx context.Context, id string, version int) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.memorialRepo.SetModerationStatus(ctx, id, version, domain.ModerationRejected, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("reject memorial: %w", err)
	}

	data := map[string]any{"deceased_name": m.DeceasedName()}
	if _, err := s.dispatcher.Dispatch(ctx, m.OwnerID, domain.NotificationRejected, data, nil); err != nil {
		s.logger.Error("rejected notification failed", "memorial_id", id, "err", err)
	}
	return m, nil
}

// TogglePublished flips public visibility without touching the moderation
// status. Used by admins to temporarily hide approved content; sends no
// notification.
func (s *moderationService) TogglePublished(ctx context.Context, id string) (*domain.Memorial, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.memorialRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get memorial: %w", err)
	}
	updated, err := s.memorialRepo.SetPublished(ctx, id, !m.IsPublished)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("toggle published: %w", err)
	}
	return updated, nil
}

func (s *moderationService) Archive(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.memorialRepo.Archive(ctx, id, s.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("archive memorial: %w", err)
	}
	return nil
}
