package repository

import (
	"context"
	"time"

	"drawroom/internal/domain"
)

// StateRepository holds hot, non-authoritative state: the recent chat history
// replayed to late joiners and the per-key rate budgets. Backed by Redis; a
// cache miss or failure here never blocks the durable path.
type StateRepository interface {
	// PushMessageToHistory appends a message to the room's recent-history
	// list, trimming it to the configured window.
	PushMessageToHistory(ctx context.Context, roomID uint, msg domain.Message) error

	// GetRecentMessages returns cached recent messages, oldest first. An
	// empty slice with nil error means the cache is cold.
	GetRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error)

	// ClearHistory drops the cached history for a room (room deletion).
	ClearHistory(ctx context.Context, roomID uint) error

	// CheckRateLimit increments the counter for key and reports whether the
	// budget for the window is exceeded.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
