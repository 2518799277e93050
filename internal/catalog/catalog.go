package catalog

import (
	"context"
	"errors"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

// ErrCollectionNotFound signals that the queue has no usable collection right
// now: unbound, inactive, or outside its validity window.
var ErrCollectionNotFound = errors.New("no active collection for queue")

// Catalog is the read-only view over the file store. Implementations return
// only active items of active, time-valid collections.
type Catalog interface {
	GetActiveCollection(ctx context.Context, queueID, tenantID string) (*models.FileCollection, []models.FileItem, error)
}
