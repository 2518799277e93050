package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

type mediaType struct {
	kind      MediaKind
	mime      string
	maxSizeMB int64
}

// Size ceilings follow the transport's media limits.
var extensionTable = map[string]mediaType{
	".jpg":  {KindImage, "image/jpeg", 5},
	".jpeg": {KindImage, "image/jpeg", 5},
	".png":  {KindImage, "image/png", 5},
	".gif":  {KindImage, "image/gif", 5},
	".mp4":  {KindVideo, "video/mp4", 16},
	".mov":  {KindVideo, "video/quicktime", 16},
	".avi":  {KindVideo, "video/x-msvideo", 16},
	".mp3":  {KindAudio, "audio/mpeg", 16},
	".wav":  {KindAudio, "audio/wav", 16},
	".m4a":  {KindAudio, "audio/mp4", 16},
	".ogg":  {KindVoice, "audio/ogg", 16},
	".pdf":  {KindDocument, "application/pdf", 100},
	".doc":  {KindDocument, "application/msword", 100},
	".docx": {KindDocument, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 100},
	".xls":  {KindDocument, "application/vnd.ms-excel", 100},
	".xlsx": {KindDocument, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", 100},
	".ppt":  {KindDocument, "application/vnd.ms-powerpoint", 100},
	".pptx": {KindDocument, "application/vnd.openxmlformats-officedocument.presentationml.presentation", 100},
	".txt":  {KindDocument, "text/plain", 100},
	".csv":  {KindDocument, "text/csv", 100},
	".zip":  {KindDocument, "application/zip", 100},
	".webp": {KindSticker, "image/webp", 1},
}

// resolveMedia validates a file item and decides kind, MIME and caption.
// Caption policy: images, videos and documents carry description-or-name;
// voice notes and stickers never carry one; other audio does.
func resolveMedia(file models.FileItem) (Media, error) {
	ext := strings.ToLower(filepath.Ext(file.Path))
	mt, ok := extensionTable[ext]
	if !ok {
		return Media{}, fmt.Errorf("unsupported file type %q", ext)
	}

	info, err := os.Stat(file.Path)
	if err != nil {
		return Media{}, fmt.Errorf("file not accessible: %w", err)
	}
	if maxBytes := mt.maxSizeMB * 1024 * 1024; info.Size() > maxBytes {
		return Media{}, fmt.Errorf("file exceeds %dMB limit", mt.maxSizeMB)
	}

	caption := ""
	switch mt.kind {
	case KindImage, KindVideo, KindDocument, KindAudio:
		caption = file.Description
		if caption == "" {
			caption = file.Name
		}
	}

	return Media{
		Path:    file.Path,
		Kind:    mt.kind,
		MIME:    mt.mime,
		Caption: caption,
	}, nil
}
