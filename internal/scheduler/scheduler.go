package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"gedenkseiten/internal/domain"
)

// Scheduler runs the background jobs in-process for deployments without an
// external cron: email queue every minute, expiry sweep hourly, view flush
// every five minutes. The /jobs endpoints stay available either way.
type Scheduler struct {
	cron    *cron.Cron
	queue   domain.EmailQueueProcessor
	sweeper domain.ExpirySweeper
	views   domain.ViewFlusher
	logger  *slog.Logger
}

// New creates a new scheduler instance.
func New(queue domain.EmailQueueProcessor, sweeper domain.ExpirySweeper, views domain.ViewFlusher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		queue:   queue,
		sweeper: sweeper,
		views:   views,
		logger:  logger,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.runEmailQueue); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 * * * *", s.runExpiryCheck); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/5 * * * *", s.runViewFlush); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runEmailQueue() {
	res, err := s.queue.ProcessQueue(context.Background())
	if err != nil {
		s.logger.Error("email queue run failed", "err", err)
		return
	}
	if res.Total > 0 {
		s.logger.Info("email queue run", "processed", res.Processed, "errors", res.Errors, "total", res.Total)
	}
}

func (s *Scheduler) runExpiryCheck() {
	res, err := s.sweeper.CheckExpirations(context.Background())
	if err != nil {
		s.logger.Error("expiry check failed", "err", err)
		return
	}
	s.logger.Info("expiry check", "summary", res.Summary)
}

func (s *Scheduler) runViewFlush() {
	res, err := s.views.FlushViews(context.Background())
	if err != nil {
		s.logger.Error("view flush failed", "err", err)
		return
	}
	if res.Memorials > 0 {
		s.logger.Info("view flush", "memorials", res.Memorials, "views", res.Views)
	}
}
