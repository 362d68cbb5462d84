package repository

import (
	"context"
	"fmt"

	"marketplace/storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_snapshot (
	kind       TEXT        NOT NULL,
	position   INTEGER     NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, position)
)`

// SnapshotRepository keeps the last good listing per item kind so the
// catalog can still render during a backend outage.
type SnapshotRepository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, kind domain.ItemKind, items []domain.CatalogItem) error
	Load(ctx context.Context, kind domain.ItemKind) ([]domain.CatalogItem, error)
}

type snapshotRepository struct {
	db *pgxpool.Pool
}

func NewSnapshotRepository(db *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepository{
		db: db,
	}
}

func (r *snapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Save replaces the snapshot for kind in one transaction
func (r *snapshotRepository) Save(ctx context.Context, kind domain.ItemKind, items []domain.CatalogItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM catalog_snapshot WHERE kind = $1`, kind.String()); err != nil {
		return fmt.Errorf("failed to clear %s snapshot: %w", kind, err)
	}

	query := `
	INSERT INTO catalog_snapshot (kind, position, id, data, updated_at)
	VALUES ($1, $2, $3, $4, now())`
	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, kind.String(), i, item.ID, item)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s snapshot: %w", kind, err)
	}

	log.Debugf("Saved %d %s items to snapshot", len(items), kind)
	return nil
}

// Load returns the snapshot for kind in its original order; empty when
// nothing was saved yet.
func (r *snapshotRepository) Load(ctx context.Context, kind domain.ItemKind) ([]domain.CatalogItem, error) {
	rows, err := r.db.Query(ctx, `
	SELECT data FROM catalog_snapshot
	WHERE kind = $1
	ORDER BY position`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s snapshot: %w", kind, err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowTo[domain.CatalogItem])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}
	return items, nil
}
