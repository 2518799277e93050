package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

type fakeResolver struct{}

func (fakeResolver) ResolveByChat(_ context.Context, chatID int64) (*models.ConversationSession, models.RoutingQueue, error) {
	session := &models.ConversationSession{ID: "sess-1", QueueID: "queue-1", ChatID: chatID}
	return session, models.RoutingQueue{ID: "queue-1"}, nil
}

type blockingHandler struct {
	started  chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func (h *blockingHandler) HandleInbound(context.Context, *models.ConversationSession, models.RoutingQueue, string) error {
	close(h.started)
	<-h.release
	h.finished.Store(true)
	return nil
}

type countingHandler struct {
	calls atomic.Int32
}

func (h *countingHandler) HandleInbound(context.Context, *models.ConversationSession, models.RoutingQueue, string) error {
	h.calls.Add(1)
	return nil
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
	}}
}

func TestConsumeDrainsInFlightHandlersOnCancel(t *testing.T) {
	handler := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	d := New(nil, handler, fakeResolver{}, zap.NewNop())

	updates := make(chan tgbotapi.Update, 1)
	updates <- textUpdate(7, "preciso do manual")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.consume(ctx, updates)
		close(done)
	}()

	<-handler.started
	cancel()

	// Cancellation alone must not end the drain while a handler runs.
	select {
	case <-done:
		t.Fatal("consume returned with a handler still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(handler.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume did not return after handlers finished")
	}
	assert.True(t, handler.finished.Load())
}

func TestConsumeStopsWhenStreamCloses(t *testing.T) {
	handler := &countingHandler{}
	d := New(nil, handler, fakeResolver{}, zap.NewNop())

	updates := make(chan tgbotapi.Update, 2)
	updates <- textUpdate(7, "oi")
	updates <- tgbotapi.Update{} // no message, skipped
	close(updates)

	d.consume(context.Background(), updates)
	assert.Equal(t, int32(1), handler.calls.Load())
}
