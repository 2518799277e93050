// Package dispatch consumes inbound chat events and feeds them to the
// decision engine, one goroutine per update. Ordering within a session is
// the engine's responsibility.
package dispatch

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// ErrNoSession means no open conversation exists for the chat; the message
// belongs to whatever external workflow opens sessions, not to this engine.
var ErrNoSession = errors.New("no open session for chat")

// SessionResolver maps a transport-level chat to the open session and its
// queue, both owned by the surrounding system.
type SessionResolver interface {
	ResolveByChat(ctx context.Context, chatID int64) (*models.ConversationSession, models.RoutingQueue, error)
}

// InboundHandler is the engine surface the dispatcher drives.
type InboundHandler interface {
	HandleInbound(ctx context.Context, session *models.ConversationSession, queue models.RoutingQueue, body string) error
}

type Dispatcher struct {
	api      *tgbotapi.BotAPI
	engine   InboundHandler
	resolver SessionResolver
	logger   *zap.Logger
}

func New(api *tgbotapi.BotAPI, eng InboundHandler, resolver SessionResolver, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		api:      api,
		engine:   eng,
		resolver: resolver,
		logger:   logger,
	}
}

// Run blocks consuming updates until the context is cancelled, then waits
// for every in-flight handler before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	d.consume(ctx, d.api.GetUpdatesChan(u))
	d.api.StopReceivingUpdates()
}

// consume drains the update stream. Cancellation stops intake only; handlers
// already spawned keep a non-cancelled context so a batch mid-send finishes
// its files before shutdown completes.
func (d *Dispatcher) consume(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var handlers sync.WaitGroup
	defer handlers.Wait()

	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			handlers.Add(1)
			go func(message *tgbotapi.Message) {
				defer handlers.Done()
				d.handleMessage(handlerCtx, message)
			}(update.Message)
		}
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	session, queue, err := d.resolver.ResolveByChat(ctx, message.Chat.ID)
	if errors.Is(err, ErrNoSession) {
		d.logger.Debug("ignoring message without open session",
			zap.Int64("chat_id", message.Chat.ID))
		return
	}
	if err != nil {
		d.logger.Error("failed to resolve session",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		return
	}

	body := message.Text
	if message.Caption != "" {
		body = message.Caption
	}

	if err := d.engine.HandleInbound(ctx, session, queue, body); err != nil {
		// The contact never sees internal errors; failures stay in the log.
		d.logger.Error("inbound handling failed",
			zap.Error(err),
			zap.String("session_id", session.ID))
	}
}
