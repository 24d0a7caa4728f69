package ports

import (
	"context"
	"time"
)

// RefreshCompleted describes one finished refresh cycle.
type RefreshCompleted struct {
	RunID        string    `json:"run_id"`
	PartID       uint64    `json:"part_id"`
	ScrapedCount int       `json:"scraped_count"`
	Sources      []string  `json:"sources"`
	CompletedAt  time.Time `json:"completed_at"`
}

// RefreshPublisher announces refresh completions to interested consumers.
// Publishing is best-effort; a no-op adapter stands in when no broker is
// configured.
type RefreshPublisher interface {
	PublishRefreshCompleted(ctx context.Context, event RefreshCompleted) error
}
