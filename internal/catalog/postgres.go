package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

// PostgresCatalog reads collections and file items from the shared database.
// It never writes: collections are owned by the admin workflow.
type PostgresCatalog struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresCatalog(db *sql.DB) (*PostgresCatalog, error) {
	c := &PostgresCatalog{db: db, now: time.Now}
	if err := c.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing catalog schema: %w", err)
	}
	return c, nil
}

func (c *PostgresCatalog) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := c.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (c *PostgresCatalog) GetActiveCollection(ctx context.Context, queueID, tenantID string) (*models.FileCollection, []models.FileItem, error) {
	query := `
		SELECT fc.id, fc.tenant_id, fc.name, fc.active, fc.valid_from, fc.valid_until
		FROM file_collections fc
		JOIN routing_queues rq ON rq.collection_id = fc.id
		WHERE rq.id = $1 AND fc.tenant_id = $2 AND fc.active = true`

	collection := &models.FileCollection{}
	var validFrom, validUntil sql.NullTime
	err := c.db.QueryRowContext(ctx, query, queueID, tenantID).Scan(
		&collection.ID,
		&collection.TenantID,
		&collection.Name,
		&collection.Active,
		&validFrom,
		&validUntil,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error querying collection: %w", err)
	}

	if validFrom.Valid {
		collection.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		collection.ValidUntil = &validUntil.Time
	}

	if !collection.ValidAt(c.now()) {
		return nil, nil, ErrCollectionNotFound
	}

	items, err := c.activeItems(ctx, collection.ID)
	if err != nil {
		return nil, nil, err
	}
	return collection, items, nil
}

func (c *PostgresCatalog) activeItems(ctx context.Context, collectionID string) ([]models.FileItem, error) {
	query := `
		SELECT id, collection_id, name, path, keywords, description, active
		FROM file_items
		WHERE collection_id = $1 AND active = true
		ORDER BY name`

	rows, err := c.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("error querying file items: %w", err)
	}
	defer rows.Close()

	var items []models.FileItem
	for rows.Next() {
		item := models.FileItem{}
		err := rows.Scan(
			&item.ID,
			&item.CollectionID,
			&item.Name,
			&item.Path,
			&item.Keywords,
			&item.Description,
			&item.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning file item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
