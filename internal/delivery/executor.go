// Package delivery validates and dispatches file batches. A bad file never
// aborts the batch: it is logged, recorded as a failed send event, and the
// loop moves on.
package delivery

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/audit"
	"github.com/zanon-alive/taktchat-sub003/internal/models"
	"github.com/zanon-alive/taktchat-sub003/internal/state"
)

var (
	ErrNilSession    = errors.New("nil conversation session")
	ErrClosedSession = errors.New("session is closed")
)

// ConfirmationRequester turns a not-yet-confirmed delivery into a pending
// confirmation. Implemented by the confirmation coordinator.
type ConfirmationRequester interface {
	RequestConfirmation(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, files []models.FileItem) error
}

// EventRecorder persists per-file send events for the metrics aggregator.
// Best-effort: a failed record is logged and ignored.
type EventRecorder interface {
	RecordSend(ctx context.Context, event models.SendEvent) error
}

type Executor struct {
	transport Transport
	auditLog  audit.Log
	counter   state.FileCounter
	events    EventRecorder
	confirmer ConfirmationRequester
	delay     time.Duration
	logger    *zap.Logger
}

func NewExecutor(transport Transport, auditLog audit.Log, counter state.FileCounter, events EventRecorder, delay time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		transport: transport,
		auditLog:  auditLog,
		counter:   counter,
		events:    events,
		delay:     delay,
		logger:    logger,
	}
}

// SetConfirmer breaks the construction cycle between the executor and the
// confirmation coordinator; wired once at startup.
func (e *Executor) SetConfirmer(c ConfirmationRequester) {
	e.confirmer = c
}

// Deliver dispatches the batch as the engine itself. When the queue demands
// confirmation and the caller did not skip it, the call turns into a
// confirmation request and no media leaves.
func (e *Executor) Deliver(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, files []models.FileItem, skipConfirmation bool) error {
	return e.DeliverBy(ctx, session, queue, files, skipConfirmation, audit.ActorEngine)
}

// DeliverBy is Deliver with an explicit actor for operator-initiated sends.
func (e *Executor) DeliverBy(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, files []models.FileItem, skipConfirmation bool, actorID string) error {
	if session == nil || session.ID == "" {
		return ErrNilSession
	}
	if session.Closed {
		return ErrClosedSession
	}

	if queue.ConfirmationTemplate != "" && !skipConfirmation && e.confirmer != nil {
		return e.confirmer.RequestConfirmation(ctx, session, queue, files)
	}

	sent := 0
	for i, file := range files {
		if i > 0 {
			e.pause(ctx)
		}
		if e.sendOne(ctx, session, queue, file) {
			sent++
		}
	}

	// One audit entry covers the whole batch.
	entry := audit.Entry{
		SessionID: session.ID,
		Kind:      audit.KindFilesDelivered,
		ActorID:   actorID,
		QueueID:   queue.ID,
	}
	if err := e.auditLog.Record(ctx, entry); err != nil {
		e.logger.Warn("failed to record delivery audit entry",
			zap.Error(err),
			zap.String("session_id", session.ID))
	}

	if sent > 0 {
		if err := e.counter.AddFilesSent(ctx, session.ID, sent); err != nil {
			e.logger.Warn("failed to update session file counter",
				zap.Error(err),
				zap.String("session_id", session.ID))
		}
	}
	return nil
}

func (e *Executor) sendOne(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, file models.FileItem) bool {
	start := time.Now()

	media, err := resolveMedia(file)
	if err != nil {
		e.logger.Warn("skipping undeliverable file",
			zap.Error(err),
			zap.String("file_id", file.ID),
			zap.String("file_name", file.Name))
		e.recordEvent(ctx, session, queue, file, false, time.Since(start))
		return false
	}

	if err := e.transport.SendMedia(ctx, session, media); err != nil {
		e.logger.Warn("transport failed for file",
			zap.Error(err),
			zap.String("file_id", file.ID),
			zap.String("file_name", file.Name))
		e.recordEvent(ctx, session, queue, file, false, time.Since(start))
		return false
	}

	e.recordEvent(ctx, session, queue, file, true, time.Since(start))
	return true
}

func (e *Executor) recordEvent(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, file models.FileItem, success bool, duration time.Duration) {
	if e.events == nil {
		return
	}
	event := models.SendEvent{
		FileID:    file.ID,
		SessionID: session.ID,
		QueueID:   queue.ID,
		Success:   success,
		Duration:  duration,
		SentAt:    time.Now(),
	}
	if err := e.events.RecordSend(ctx, event); err != nil {
		e.logger.Warn("failed to record send event",
			zap.Error(err),
			zap.String("file_id", file.ID))
	}
}

// pause is the inter-file rate-limit gap. It yields to context cancellation
// so a shutting-down engine is not held hostage by the delay.
func (e *Executor) pause(ctx context.Context) {
	if e.delay <= 0 {
		return
	}
	timer := time.NewTimer(e.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
