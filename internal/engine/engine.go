// Package engine wires the decision pipeline: classify the inbound message,
// rank catalog files, evaluate the auto-send policy and hand the outcome to
// the confirmation coordinator or the delivery executor.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/catalog"
	"github.com/zanon-alive/taktchat-sub003/internal/classifier"
	"github.com/zanon-alive/taktchat-sub003/internal/confirm"
	"github.com/zanon-alive/taktchat-sub003/internal/delivery"
	"github.com/zanon-alive/taktchat-sub003/internal/models"
	"github.com/zanon-alive/taktchat-sub003/internal/policy"
	"github.com/zanon-alive/taktchat-sub003/internal/scorer"
	"github.com/zanon-alive/taktchat-sub003/internal/state"
)

var ErrInvalidSession = errors.New("invalid session reference")
var ErrInvalidQueue = errors.New("invalid queue reference")

type Options struct {
	TopK     int
	MinScore float64
}

type Engine struct {
	classifier  classifier.Classifier
	catalog     catalog.Catalog
	store       state.Store
	coordinator *confirm.Coordinator
	executor    *delivery.Executor
	transport   delivery.Transport
	locks       *sessionLocks
	opts        Options
	logger      *zap.Logger
}

func New(clf classifier.Classifier, cat catalog.Catalog, store state.Store, coordinator *confirm.Coordinator, executor *delivery.Executor, transport delivery.Transport, opts Options, logger *zap.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = scorer.DefaultTopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = scorer.MinScore
	}
	return &Engine{
		classifier:  clf,
		catalog:     cat,
		store:       store,
		coordinator: coordinator,
		executor:    executor,
		transport:   transport,
		locks:       newSessionLocks(),
		opts:        opts,
		logger:      logger,
	}
}

// HandleInbound processes one contact message: first as a possible reply to
// a pending confirmation, otherwise as a fresh on_request evaluation.
func (e *Engine) HandleInbound(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, body string) error {
	if err := validateRefs(session, queue); err != nil {
		return err
	}

	e.locks.lock(session.ID)
	defer e.locks.unlock(session.ID)

	consumed, err := e.coordinator.HandleReply(ctx, session, queue, body)
	if err != nil {
		return fmt.Errorf("confirmation handling failed: %w", err)
	}
	if consumed {
		return nil
	}

	analysis := e.classifier.Classify(ctx, body)

	_, items, err := e.catalog.GetActiveCollection(ctx, queue.ID, queue.TenantID)
	if errors.Is(err, catalog.ErrCollectionNotFound) {
		e.logger.Debug("no active collection for queue",
			zap.String("queue_id", queue.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalog lookup failed: %w", err)
	}

	ranked := scorer.TopK(scorer.Rank(items, body, analysis, e.opts.MinScore), e.opts.TopK)

	decision, err := e.evaluate(ctx, session, queue, models.TriggerOnRequest, body, len(items), ranked)
	if err != nil {
		return err
	}
	return e.act(ctx, session, queue, decision, analysis)
}

// HandleQueueEnter runs the on_enter evaluation when a session lands on a
// queue. Every active file is a candidate; nothing is classified or ranked.
func (e *Engine) HandleQueueEnter(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue) error {
	if err := validateRefs(session, queue); err != nil {
		return err
	}

	e.locks.lock(session.ID)
	defer e.locks.unlock(session.ID)

	_, items, err := e.catalog.GetActiveCollection(ctx, queue.ID, queue.TenantID)
	if errors.Is(err, catalog.ErrCollectionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalog lookup failed: %w", err)
	}

	decision, err := e.evaluate(ctx, session, queue, models.TriggerOnEnter, "", len(items), items)
	if err != nil {
		return err
	}
	return e.act(ctx, session, queue, decision, nil)
}

// HandleManualSend is the operator-initiated path. An empty file list means
// "send everything active". Confirmation is never requested.
func (e *Engine) HandleManualSend(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, actorID string, files []models.FileItem) error {
	if err := validateRefs(session, queue); err != nil {
		return err
	}

	e.locks.lock(session.ID)
	defer e.locks.unlock(session.ID)

	_, items, err := e.catalog.GetActiveCollection(ctx, queue.ID, queue.TenantID)
	if errors.Is(err, catalog.ErrCollectionNotFound) {
		return catalog.ErrCollectionNotFound
	}
	if err != nil {
		return fmt.Errorf("catalog lookup failed: %w", err)
	}

	candidates := files
	if len(candidates) == 0 {
		candidates = items
	}

	decision, err := e.evaluate(ctx, session, queue, models.TriggerManual, "", len(items), candidates)
	if err != nil {
		return err
	}
	if !decision.ShouldSend {
		e.logger.Info("manual send refused by policy",
			zap.String("session_id", session.ID),
			zap.String("reason", decision.Reason))
		return nil
	}
	return e.executor.DeliverBy(ctx, session, queue, decision.Files, true, actorID)
}

// SessionClosed discards confirmation state so a stray reply arriving after
// the conversation ended cannot trigger delivery.
func (e *Engine) SessionClosed(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	e.locks.lock(sessionID)
	defer e.locks.unlock(sessionID)

	return e.coordinator.DiscardPending(ctx, sessionID)
}

func (e *Engine) evaluate(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, trigger models.Trigger, body string, activeFiles int, candidates []models.FileItem) (models.Decision, error) {
	sent, err := e.store.FilesSent(ctx, session.ID)
	if err != nil {
		return models.Decision{}, fmt.Errorf("failed to read session file counter: %w", err)
	}

	decision := policy.Evaluate(policy.Input{
		Queue:             queue,
		Trigger:           trigger,
		Session:           *session,
		MessageBody:       body,
		ActiveFiles:       activeFiles,
		Candidates:        candidates,
		FilesSentInWindow: sent,
	})

	e.logger.Debug("auto-send decision",
		zap.String("session_id", session.ID),
		zap.String("queue_id", queue.ID),
		zap.String("trigger", string(trigger)),
		zap.Bool("should_send", decision.ShouldSend),
		zap.Bool("confirmation_needed", decision.ConfirmationNeeded),
		zap.Int("files", len(decision.Files)),
		zap.String("reason", decision.Reason))

	return decision, nil
}

func (e *Engine) act(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, decision models.Decision, analysis *models.Analysis) error {
	if !decision.ShouldSend && !decision.ConfirmationNeeded {
		return nil
	}

	if analysis != nil && analysis.ContextualResponse != "" {
		if err := e.transport.SendText(ctx, session, analysis.ContextualResponse); err != nil {
			e.logger.Warn("failed to send contextual reply",
				zap.Error(err),
				zap.String("session_id", session.ID))
		}
	}

	if decision.ConfirmationNeeded {
		return e.coordinator.Supersede(ctx, session, queue, decision.Files)
	}
	return e.executor.Deliver(ctx, session, queue, decision.Files, true)
}

func validateRefs(session *models.ConversationSession, queue models.RoutingQueue) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}
	if queue.ID == "" {
		return ErrInvalidQueue
	}
	if session.Closed {
		return delivery.ErrClosedSession
	}
	return nil
}
