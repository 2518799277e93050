package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_send_events (
    id         BIGSERIAL PRIMARY KEY,
    file_id    UUID NOT NULL,
    session_id UUID NOT NULL,
    queue_id   UUID NOT NULL,
    success    BOOLEAN NOT NULL,
    duration_ms BIGINT NOT NULL,
    sent_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_send_events_queue ON file_send_events(queue_id, sent_at);`

// PostgresHistory reads tickets/messages written by the surrounding system
// and owns the file_send_events instrumentation table.
type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(db *sql.DB) (*PostgresHistory, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("error initializing history schema: %w", err)
	}
	return &PostgresHistory{db: db}, nil
}

func (h *PostgresHistory) QueryTickets(ctx context.Context, queueID string, period models.MetricsPeriod) ([]models.TicketHistory, error) {
	query := `
		SELECT id, queue_id, opened_at
		FROM tickets
		WHERE queue_id = $1 AND opened_at BETWEEN $2 AND $3
		ORDER BY opened_at`

	rows, err := h.db.QueryContext(ctx, query, queueID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("error querying tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.TicketHistory
	for rows.Next() {
		t := models.TicketHistory{}
		if err := rows.Scan(&t.ID, &t.QueueID, &t.OpenedAt); err != nil {
			return nil, fmt.Errorf("error scanning ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tickets {
		messages, err := h.ticketMessages(ctx, tickets[i].ID)
		if err != nil {
			return nil, err
		}
		tickets[i].Messages = messages
	}
	return tickets, nil
}

func (h *PostgresHistory) ticketMessages(ctx context.Context, ticketID string) ([]models.HistoryMessage, error) {
	query := `
		SELECT body, from_contact, sent_at
		FROM messages
		WHERE ticket_id = $1
		ORDER BY sent_at`

	rows, err := h.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []models.HistoryMessage
	for rows.Next() {
		m := models.HistoryMessage{}
		if err := rows.Scan(&m.Body, &m.FromContact, &m.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (h *PostgresHistory) QueueIDs(ctx context.Context, tenantID string) ([]string, error) {
	query := `SELECT id FROM routing_queues WHERE tenant_id = $1 ORDER BY id`

	rows, err := h.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error querying queues: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning queue id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (h *PostgresHistory) RecordSend(ctx context.Context, event models.SendEvent) error {
	query := `
		INSERT INTO file_send_events (file_id, session_id, queue_id, success, duration_ms, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := h.db.ExecContext(ctx, query,
		event.FileID, event.SessionID, event.QueueID, event.Success,
		event.Duration.Milliseconds(), event.SentAt)
	if err != nil {
		return fmt.Errorf("error recording send event: %w", err)
	}
	return nil
}

func (h *PostgresHistory) QuerySendEvents(ctx context.Context, queueID string, period models.MetricsPeriod) ([]models.SendEvent, error) {
	query := `
		SELECT file_id, session_id, queue_id, success, duration_ms, sent_at
		FROM file_send_events
		WHERE queue_id = $1 AND sent_at BETWEEN $2 AND $3
		ORDER BY sent_at`

	rows, err := h.db.QueryContext(ctx, query, queueID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("error querying send events: %w", err)
	}
	defer rows.Close()

	var events []models.SendEvent
	for rows.Next() {
		e := models.SendEvent{}
		var durationMS int64
		if err := rows.Scan(&e.FileID, &e.SessionID, &e.QueueID, &e.Success, &durationMS, &e.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning send event: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, e)
	}
	return events, rows.Err()
}
