package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gedenkseiten/internal/domain"
)

type viewFlushService struct {
	counter        domain.ViewCounter
	memorialRepo   domain.MemorialRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewViewFlushService moves accumulated Redis view counts into the
// memorials table.
func NewViewFlushService(
	counter domain.ViewCounter,
	memorialRepo domain.MemorialRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ViewFlusher {
	return &viewFlushService{
		counter:        counter,
		memorialRepo:   memorialRepo,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *viewFlushService) FlushViews(ctx context.Context) (*domain.ViewFlushResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	counts, err := s.counter.Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("drain view counters: %w", err)
	}
	result := &domain.ViewFlushResult{}
	for memorialID, n := range counts {
		if err := s.memorialRepo.AddViews(ctx, memorialID, n); err != nil {
			s.logger.Error("flush views failed", "memorial_id", memorialID, "views", n, "err", err)
			continue
		}
		result.Memorials++
		result.Views += n
	}
	return result, nil
}
