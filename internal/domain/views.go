package domain

import "context"

// ViewCounter accumulates page views out of band (e.g. in Redis) so public
// reads never write to the primary store. Drain hands back and clears all
// pending counts for flushing into the memorials table.
type ViewCounter interface {
	Record(ctx context.Context, memorialID string) error
	Drain(ctx context.Context) (map[string]int64, error)
}

// ViewFlushResult summarizes one view-counter flush run.
type ViewFlushResult struct {
	Memorials int   `json:"memorials"`
	Views     int64 `json:"views"`
}

// ViewFlusher moves accumulated view counts into the primary store.
type ViewFlusher interface {
	FlushViews(ctx context.Context) (*ViewFlushResult, error)
}
