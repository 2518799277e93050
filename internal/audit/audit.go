// Package audit records what the engine did to a session. Recording is
// best-effort everywhere: callers log a failed Record and move on.
package audit

import (
	"context"
	"time"
)

const (
	KindConfirmationRequested = "confirmation_requested"
	KindFilesDelivered        = "files_delivered"
	KindFilesRejected         = "files_rejected"
)

// ActorEngine identifies autonomous actions, as opposed to an operator id.
const ActorEngine = "engine"

type Entry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actor_id"`
	QueueID   string    `json:"queue_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Log interface {
	Record(ctx context.Context, entry Entry) error
}
