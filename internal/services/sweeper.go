package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gedenkseiten/internal/domain"
)

const (
	// expiryLookahead is how far ahead the sweeper scans for ending
	// publication windows.
	expiryLookahead = 72 * time.Hour
	// expiringSoonWindow is the threshold for the "expiring soon" notice.
	expiringSoonWindow = 24 * time.Hour
)

type sweeperService struct {
	memorialRepo   domain.MemorialRepository
	dispatcher     domain.NotificationDispatcher
	logger         *slog.Logger
	baseURL        string
	contextTimeout time.Duration
	now            func() time.Time
}

// NewSweeperService returns the expiry sweeper. It is invoked on an external
// schedule and expects at most one concurrent run.
func NewSweeperService(
	memorialRepo domain.MemorialRepository,
	dispatcher domain.NotificationDispatcher,
	logger *slog.Logger,
	baseURL string,
	timeout time.Duration,
) domain.ExpirySweeper {
	return &sweeperService{
		memorialRepo:   memorialRepo,
		dispatcher:     dispatcher,
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// CheckExpirations unpublishes memorials past their window and warns owners
// whose window ends within the next 24 hours. The notice stage on the
// memorial guarantees each threshold is announced once: reruns inside the
// same window do not re-notify.
func (s *sweeperService) CheckExpirations(ctx context.Context) (*domain.ExpiryRunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	candidates, err := s.memorialRepo.ListExpiringBefore(ctx, now.Add(expiryLookahead))
	if err != nil {
		return nil, fmt.Errorf("list expiring memorials: %w", err)
	}

	result := &domain.ExpiryRunResult{TotalItemsChecked: len(candidates)}
	for _, m := range candidates {
		until := *m.PublishedUntil
		switch {
		case !until.After(now):
			// Past expiry: hide first, notify second.
			if err := s.memorialRepo.Unpublish(ctx, m.ID, domain.NoticeStageExpired); err != nil {
				s.logger.Error("unpublish expired memorial failed", "memorial_id", m.ID, "err", err)
				continue
			}
			result.ExpiredItemsHidden++
			if m.NoticeStage >= domain.NoticeStageExpired {
				continue
			}
			data := map[string]any{
				"deceased_name": m.DeceasedName(),
				"extend_url":    s.baseURL + "/memorials/" + m.ID + "/publish",
			}
			if _, err := s.dispatcher.Dispatch(ctx, m.OwnerID, domain.NotificationExpired, data, nil); err != nil {
				s.logger.Error("expired notification failed", "memorial_id", m.ID, "err", err)
				continue
			}
			result.NotificationsSent++

		case until.Sub(now) <= expiringSoonWindow:
			if m.NoticeStage >= domain.NoticeStageExpiringSoon {
				continue
			}
			data := map[string]any{
				"deceased_name":   m.DeceasedName(),
				"published_until": until.Format("02.01.2006"),
				"extend_url":      s.baseURL + "/memorials/" + m.ID + "/publish",
			}
			if _, err := s.dispatcher.Dispatch(ctx, m.OwnerID, domain.NotificationExpiringSoon, data, nil); err != nil {
				s.logger.Error("expiring-soon notification failed", "memorial_id", m.ID, "err", err)
				continue
			}
			if err := s.memorialRepo.SetNoticeStage(ctx, m.ID, domain.NoticeStageExpiringSoon); err != nil {
				s.logger.Error("set notice stage failed", "memorial_id", m.ID, "err", err)
			}
			result.NotificationsSent++
		}
	}

	result.Summary = fmt.Sprintf("checked %d, hid %d expired, sent %d notifications",
		result.TotalItemsChecked, result.ExpiredItemsHidden, result.NotificationsSent)
	return result, nil
}
