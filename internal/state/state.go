// Package state holds the engine's only mutable state: the per-session
// pending-confirmation file set and the rolling sent-file counter. Both live
// in a shared keyed store so multiple worker instances see the same view.
package state

import (
	"context"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// PendingStore keeps the files awaiting a contact's accept/reject reply.
// Entries expire on their own after the confirmation TTL, which doubles as
// the confirmation-timeout policy: a reply after expiry finds nothing.
type PendingStore interface {
	// GetPending returns nil with no error when the session has no entry.
	GetPending(ctx context.Context, sessionID string) ([]models.FileItem, error)
	PutPending(ctx context.Context, sessionID string, files []models.FileItem) error
	DeletePending(ctx context.Context, sessionID string) error
}

// FileCounter tracks how many files a session received inside the rolling
// window that backs the max-files-per-session policy check.
type FileCounter interface {
	FilesSent(ctx context.Context, sessionID string) (int, error)
	AddFilesSent(ctx context.Context, sessionID string, n int) error
}

// Store combines both concerns; the Redis implementation backs production,
// the memory implementation backs tests and single-instance deployments.
type Store interface {
	PendingStore
	FileCounter
}
