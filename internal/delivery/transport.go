package delivery

import (
	"context"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// MediaKind selects the transport-level message type for a file.
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindVideo    MediaKind = "video"
	KindAudio    MediaKind = "audio"
	KindVoice    MediaKind = "voice"
	KindDocument MediaKind = "document"
	KindSticker  MediaKind = "sticker"
)

// Media is a validated, ready-to-send asset.
type Media struct {
	Path    string
	Kind    MediaKind
	MIME    string
	Caption string
}

// Transport delivers text and media to the end user. Both calls are fallible;
// the executor retries nothing and only continues with the rest of the batch.
type Transport interface {
	SendText(ctx context.Context, session *models.ConversationSession, body string) error
	SendMedia(ctx context.Context, session *models.ConversationSession, media Media) error
}
