package controllers

import (
	"log/slog"
	"net/http"

	h "gedenkseiten/internal/delivery/http/helpers"
	"gedenkseiten/internal/domain"
)

// QueueRunResponse is the response body for POST /jobs/process-email-queue
type QueueRunResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Errors    int  `json:"errors"`
	Total     int  `json:"total"`
}

// ExpiryRunResponse is the response body for POST /jobs/check-expirations
type ExpiryRunResponse struct {
	Success            bool   `json:"success"`
	TotalItemsChecked  int    `json:"totalItemsChecked"`
	NotificationsSent  int    `json:"notificationsSent"`
	ExpiredItemsHidden int    `json:"expiredItemsHidden"`
	Summary            string `json:"summary"`
}

type JobsController struct {
	Logger  *slog.Logger
	Queue   domain.EmailQueueProcessor
	Sweeper domain.ExpirySweeper
	Views   domain.ViewFlusher
}

func NewJobsController(logger *slog.Logger, queue domain.EmailQueueProcessor, sweeper domain.ExpirySweeper, views domain.ViewFlusher) *JobsController {
	return &JobsController{
		Logger:  logger,
		Queue:   queue,
		Sweeper: sweeper,
		Views:   views,
	}
}

// ProcessEmailQueue godoc
// @Summary Process the email queue
// @Description Deliver one batch of pending emails. Triggered by external cron or the internal scheduler.
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains success, processed, errors, total"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /jobs/process-email-queue [post]
func (c *JobsController) ProcessEmailQueue(w http.ResponseWriter, r *http.Request) {
	res, err := c.Queue.ProcessQueue(r.Context())
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, QueueRunResponse{
		Success:   true,
		Processed: res.Processed,
		Errors:    res.Errors,
		Total:     res.Total,
	})
}

// CheckExpirations godoc
// @Summary Run the expiry sweeper
// @Description Unpublish memorials past their publication window and warn owners whose window ends within 24 hours.
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains success, totalItemsChecked, notificationsSent, expiredItemsHidden, summary"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /jobs/check-expirations [post]
func (c *JobsController) CheckExpirations(w http.ResponseWriter, r *http.Request) {
	res, err := c.Sweeper.CheckExpirations(r.Context())
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, ExpiryRunResponse{
		Success:            true,
		TotalItemsChecked:  res.TotalItemsChecked,
		NotificationsSent:  res.NotificationsSent,
		ExpiredItemsHidden: res.ExpiredItemsHidden,
		Summary:            res.Summary,
	})
}

// FlushViews godoc
// @Summary Flush view counters
// @Description Move accumulated page view counters from Redis into the memorials table.
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains memorials and views"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /jobs/flush-views [post]
func (c *JobsController) FlushViews(w http.ResponseWriter, r *http.Request) {
	res, err := c.Views.FlushViews(r.Context())
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, res)
}
