// Package confirm implements the per-session confirmation state machine.
// A session is Idle when it has no pending files and AwaitingConfirmation
// while a pending entry exists in the shared store; the entry's TTL is the
// confirmation timeout.
package confirm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/audit"
	"github.com/zanon-alive/taktchat-sub003/internal/models"
	"github.com/zanon-alive/taktchat-sub003/internal/state"
)

// acceptWords mark a reply as consent. Checked case-insensitively as
// whole-message tokens or exact short replies.
var acceptWords = []string{"sim", "yes", "1", "ok", "enviar", "quero", "aceito"}

// rejectWords are used by the metrics aggregator to classify declines; the
// coordinator itself treats any non-accept reply as "leave pending".
var rejectWords = []string{"não", "no", "2", "nao", "depois", "agora não"}

// Deliverer is the executor surface the coordinator needs on accept.
type Deliverer interface {
	Deliver(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, files []models.FileItem, skipConfirmation bool) error
}

type Coordinator struct {
	store     state.PendingStore
	transport Transport
	deliverer Deliverer
	auditLog  audit.Log
	logger    *zap.Logger
}

// Transport is the minimal send surface for the confirmation prompt.
type Transport interface {
	SendText(ctx context.Context, session *models.ConversationSession, body string) error
}

func NewCoordinator(store state.PendingStore, transport Transport, deliverer Deliverer, auditLog audit.Log, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		transport: transport,
		deliverer: deliverer,
		auditLog:  auditLog,
		logger:    logger,
	}
}

// RequestConfirmation moves the session from Idle to AwaitingConfirmation:
// prompt out, pending files stored, one audit entry.
func (c *Coordinator) RequestConfirmation(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, files []models.FileItem) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("invalid session for confirmation")
	}

	prompt := renderTemplate(queue.ConfirmationTemplate, session, files)
	if err := c.transport.SendText(ctx, session, prompt); err != nil {
		return fmt.Errorf("failed to send confirmation prompt: %w", err)
	}

	if err := c.store.PutPending(ctx, session.ID, files); err != nil {
		return fmt.Errorf("failed to store pending files: %w", err)
	}

	entry := audit.Entry{
		SessionID: session.ID,
		Kind:      audit.KindConfirmationRequested,
		ActorID:   audit.ActorEngine,
		QueueID:   queue.ID,
	}
	if err := c.auditLog.Record(ctx, entry); err != nil {
		c.logger.Warn("failed to record confirmation audit entry",
			zap.Error(err),
			zap.String("session_id", session.ID))
	}
	return nil
}

// HandleReply interprets the next inbound message of a session that may be
// awaiting confirmation. It reports whether the reply was consumed by the
// state machine; an unconsumed reply should flow through the normal pipeline.
func (c *Coordinator) HandleReply(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, body string) (bool, error) {
	pending, err := c.store.GetPending(ctx, session.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read pending files: %w", err)
	}
	if len(pending) == 0 {
		return false, nil
	}

	if !IsAccept(body) {
		// No decline acknowledgment is sent; the files stay pending until
		// the TTL expires or a new decision supersedes them.
		c.logger.Debug("reply did not accept pending files",
			zap.String("session_id", session.ID))
		return false, nil
	}

	if err := c.deliverer.Deliver(ctx, session, queue, pending, true); err != nil {
		return true, fmt.Errorf("failed to deliver confirmed files: %w", err)
	}

	if err := c.store.DeletePending(ctx, session.ID); err != nil {
		c.logger.Warn("failed to clear pending files after delivery",
			zap.Error(err),
			zap.String("session_id", session.ID))
	}
	return true, nil
}

// Supersede replaces any pending files with a fresh decision's set. The new
// entry overwrites the old one only after the new prompt went out, so a
// failed send leaves the previous offer intact.
func (c *Coordinator) Supersede(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, files []models.FileItem) error {
	return c.RequestConfirmation(ctx, session, queue, files)
}

// DiscardPending drops the pending set for a closed session so a stray later
// reply cannot trigger delivery.
func (c *Coordinator) DiscardPending(ctx context.Context, sessionID string) error {
	return c.store.DeletePending(ctx, sessionID)
}

// IsAccept reports whether a reply consents to delivery.
func IsAccept(body string) bool {
	return containsWord(body, acceptWords)
}

// IsReject reports whether a reply declines delivery.
func IsReject(body string) bool {
	return containsWord(body, rejectWords)
}

func containsWord(body string, words []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(body))
	if lowered == "" {
		return false
	}
	for _, w := range words {
		if lowered == w {
			return true
		}
	}
	for _, token := range strings.Fields(lowered) {
		token = strings.Trim(token, ".,!?;:")
		for _, w := range words {
			if token == w {
				return true
			}
		}
	}
	return false
}

// renderTemplate fills the operator-authored confirmation template. Supported
// placeholders: {contact} and {files}.
func renderTemplate(template string, session *models.ConversationSession, files []models.FileItem) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}

	out := strings.ReplaceAll(template, "{contact}", session.ContactID)
	out = strings.ReplaceAll(out, "{files}", strings.Join(names, ", "))
	return out
}
