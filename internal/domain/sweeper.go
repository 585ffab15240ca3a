package domain

import "context"

// ExpiryRunResult summarizes one expiry sweeper run.
type ExpiryRunResult struct {
	TotalItemsChecked  int    `json:"total_items_checked"`
	NotificationsSent  int    `json:"notifications_sent"`
	ExpiredItemsHidden int    `json:"expired_items_hidden"`
	Summary            string `json:"summary"`
}

// ExpirySweeper unpublishes memorials past their publication window and
// notifies owners about upcoming expiry. It runs on an external schedule; a
// single run is expected at a time.
type ExpirySweeper interface {
	CheckExpirations(ctx context.Context) (*ExpiryRunResult, error)
}
