// Package history is the read side for the metrics aggregator plus the
// write side for per-file send-event instrumentation.
package history

import (
	"context"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// MessageHistory exposes historical conversations for reporting. Read-only.
type MessageHistory interface {
	QueryTickets(ctx context.Context, queueID string, period models.MetricsPeriod) ([]models.TicketHistory, error)
	QueueIDs(ctx context.Context, tenantID string) ([]string, error)
}

// SendEvents persists and reads per-file dispatch outcomes. These are real
// counters written by the delivery executor, the only source for per-file
// metrics.
type SendEvents interface {
	RecordSend(ctx context.Context, event models.SendEvent) error
	QuerySendEvents(ctx context.Context, queueID string, period models.MetricsPeriod) ([]models.SendEvent, error)
}
