package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS engine_audit_log (
    id         UUID PRIMARY KEY,
    session_id UUID NOT NULL,
    kind       TEXT NOT NULL,
    actor_id   TEXT NOT NULL,
    queue_id   UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_engine_audit_session ON engine_audit_log(session_id);`

type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(db *sql.DB) (*PostgresLog, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("error initializing audit schema: %w", err)
	}
	return &PostgresLog{db: db}, nil
}

func (l *PostgresLog) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO engine_audit_log (id, session_id, kind, actor_id, queue_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := l.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.Kind, entry.ActorID, entry.QueueID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording audit entry: %w", err)
	}
	return nil
}
