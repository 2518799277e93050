package delivery

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// TelegramTransport sends through the Telegram Bot API using the session's
// chat id as the contact address. The API client is shared with the inbound
// dispatcher.
type TelegramTransport struct {
	api *tgbotapi.BotAPI
}

func NewTelegramTransport(api *tgbotapi.BotAPI) *TelegramTransport {
	return &TelegramTransport{api: api}
}

func (t *TelegramTransport) SendText(_ context.Context, session *models.ConversationSession, body string) error {
	msg := tgbotapi.NewMessage(session.ChatID, body)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

func (t *TelegramTransport) SendMedia(_ context.Context, session *models.ConversationSession, media Media) error {
	asset := tgbotapi.FilePath(media.Path)

	var msg tgbotapi.Chattable
	switch media.Kind {
	case KindImage:
		m := tgbotapi.NewPhoto(session.ChatID, asset)
		m.Caption = media.Caption
		msg = m
	case KindVideo:
		m := tgbotapi.NewVideo(session.ChatID, asset)
		m.Caption = media.Caption
		msg = m
	case KindAudio:
		m := tgbotapi.NewAudio(session.ChatID, asset)
		m.Caption = media.Caption
		msg = m
	case KindVoice:
		msg = tgbotapi.NewVoice(session.ChatID, asset)
	case KindSticker:
		msg = tgbotapi.NewSticker(session.ChatID, asset)
	case KindDocument:
		m := tgbotapi.NewDocument(session.ChatID, asset)
		m.Caption = media.Caption
		msg = m
	default:
		return fmt.Errorf("unknown media kind %q", media.Kind)
	}

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send media: %w", err)
	}
	return nil
}
