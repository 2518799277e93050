package dispatch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// PostgresResolver reads the externally-owned sessions table.
type PostgresResolver struct {
	db *sql.DB
}

func NewPostgresResolver(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

func (r *PostgresResolver) ResolveByChat(ctx context.Context, chatID int64) (*models.ConversationSession, models.RoutingQueue, error) {
	query := `
		SELECT s.id, s.tenant_id, s.contact_id, s.queue_id, s.chat_id, s.closed,
		       rq.id, rq.tenant_id, rq.auto_send_strategy,
		       COALESCE(rq.confirmation_template, ''), rq.max_files_per_session,
		       COALESCE(rq.collection_id::text, '')
		FROM sessions s
		JOIN routing_queues rq ON rq.id = s.queue_id
		WHERE s.chat_id = $1 AND s.closed = false
		ORDER BY s.opened_at DESC
		LIMIT 1`

	session := &models.ConversationSession{}
	queue := models.RoutingQueue{}
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&session.ID, &session.TenantID, &session.ContactID, &session.QueueID,
		&session.ChatID, &session.Closed,
		&queue.ID, &queue.TenantID, &queue.AutoSendStrategy,
		&queue.ConfirmationTemplate, &queue.MaxFilesPerSession,
		&queue.CollectionID,
	)
	if err == sql.ErrNoRows {
		return nil, models.RoutingQueue{}, ErrNoSession
	}
	if err != nil {
		return nil, models.RoutingQueue{}, fmt.Errorf("error resolving session: %w", err)
	}
	return session, queue, nil
}
