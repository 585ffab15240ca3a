package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gedenkseiten/internal/domain"
)

// queueBatchSize is the number of emails one processor run drains.
const queueBatchSize = 10

type emailQueueService struct {
	queueRepo        domain.EmailQueueRepository
	notificationRepo domain.NotificationRepository
	mailer           domain.Mailer
	logger           *slog.Logger
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewEmailQueueService returns the queue processor that delivers pending
// emails via the configured mail provider.
func NewEmailQueueService(
	queueRepo domain.EmailQueueRepository,
	notificationRepo domain.NotificationRepository,
	mailer domain.Mailer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EmailQueueProcessor {
	return &emailQueueService{
		queueRepo:        queueRepo,
		notificationRepo: notificationRepo,
		mailer:           mailer,
		logger:           logger,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

// ProcessQueue drains up to one batch of due emails, oldest first. The
// attempt is recorded before the provider call; an email that fails its
// third attempt flips to failed.
func (s *emailQueueService) ProcessQueue(ctx context.Context) (*domain.QueueRunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	due, err := s.queueRepo.ListDue(ctx, now, queueBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list due emails: %w", err)
	}

	result := &domain.QueueRunResult{Total: len(due)}
	for _, e := range due {
		if err := s.queueRepo.RecordAttempt(ctx, e.ID, s.now()); err != nil {
			s.logger.Error("record email attempt failed", "email_id", e.ID, "err", err)
			result.Errors++
			continue
		}
		attempts := e.Attempts + 1

		if sendErr := s.mailer.Send(e.ToAddress, e.Subject, e.HTMLBody, e.TextBody); sendErr != nil {
			s.logger.Warn("email send failed",
				"email_id", e.ID, "attempts", attempts, "err", sendErr)
			if err := s.queueRepo.MarkFailure(ctx, e.ID, attempts, sendErr.Error()); err != nil {
				s.logger.Error("mark email failure failed", "email_id", e.ID, "err", err)
			}
			result.Errors++
			continue
		}

		if err := s.queueRepo.MarkSent(ctx, e.ID); err != nil {
			s.logger.Error("mark email sent failed", "email_id", e.ID, "err", err)
			result.Errors++
			continue
		}
		if e.NotificationID != "" {
			if err := s.notificationRepo.MarkEmailSent(ctx, e.NotificationID); err != nil {
				s.logger.Error("mark notification email-sent failed", "notification_id", e.NotificationID, "err", err)
			}
		}
		result.Processed++
	}
	return result, nil
}
