package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edukite/catalog-api/internal/models"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

const (
	mediaTable = "module_media"
	// caption is exposed externally but stored in the legacy "name" column.
	mediaColumns = "id, public_id, module_content_public_id, name, position, url, meta, is_deleted, created_at, updated_at"
)

// MediaRepository handles persistence for content media assets.
type MediaRepository struct {
	q Querier
}

// NewMediaRepository creates a new repository instance.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *MediaRepository) WithTx(tx *sqlx.Tx) *MediaRepository {
	return &MediaRepository{q: tx}
}

// Get returns a media row by internal key.
func (r *MediaRepository) Get(ctx context.Context, pk int64) (*models.ContentMedia, error) {
	return findByInternalID[models.ContentMedia](ctx, r.q, mediaTable, mediaColumns, pk)
}

// FindByPublicID returns a media row by public id, nil when absent.
func (r *MediaRepository) FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.ContentMedia, error) {
	return findByPublicID[models.ContentMedia](ctx, r.q, mediaTable, mediaColumns, publicID, includeDeleted)
}

// List returns the requested window of non-deleted media rows plus the total.
func (r *MediaRepository) List(ctx context.Context, p pagination.Params) ([]models.ContentMedia, *int, error) {
	query := pagination.Query{
		SQL:     `SELECT ` + mediaColumns + ` FROM module_media WHERE is_deleted = FALSE`,
		OrderBy: "position ASC, id ASC",
	}
	return pagination.FetchPage[models.ContentMedia](ctx, r.q, query, p)
}

// ListByContents returns every non-deleted media row belonging to the given
// content rows in one filtered query, ordered by position.
func (r *MediaRepository) ListByContents(ctx context.Context, contentPublicIDs []string) ([]models.ContentMedia, error) {
	if len(contentPublicIDs) == 0 {
		return nil, nil
	}

	const query = `SELECT ` + mediaColumns + ` FROM module_media
WHERE module_content_public_id = ANY($1) AND is_deleted = FALSE
ORDER BY position ASC, id ASC`

	var media []models.ContentMedia
	if err := sqlx.SelectContext(ctx, r.q, &media, query, pq.Array(contentPublicIDs)); err != nil {
		return nil, fmt.Errorf("list media by contents: %w", err)
	}
	return media, nil
}

// Count returns the number of non-deleted media rows.
func (r *MediaRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, mediaTable)
}

// Create persists a new media row, assigning public id and timestamps.
func (r *MediaRepository) Create(ctx context.Context, media *models.ContentMedia) error {
	if media.PublicID == "" {
		media.PublicID = uuid.NewString()
	}
	now := time.Now().UTC()
	media.CreatedAt = now
	media.UpdatedAt = now
	media.IsDeleted = false

	const query = `INSERT INTO module_media (public_id, module_content_public_id, name, position, url, meta, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8) RETURNING id`
	err := sqlx.GetContext(ctx, r.q, &media.ID, query,
		media.PublicID, media.ContentPublicID, media.Caption, media.Position,
		media.URL, media.Meta, media.CreatedAt, media.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "media position already used for this content")
		}
		return fmt.Errorf("create content media: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields and re-reads the row.
func (r *MediaRepository) Update(ctx context.Context, publicID string, patch models.ContentMediaPatch) (*models.ContentMedia, error) {
	b := &setBuilder{}
	if patch.Caption != nil {
		b.add("name", *patch.Caption)
	}
	if patch.Position != nil {
		b.add("position", *patch.Position)
	}
	if patch.URL != nil {
		b.add("url", *patch.URL)
	}
	if patch.Meta != nil {
		b.add("meta", *patch.Meta)
	}
	if b.empty() {
		return r.FindByPublicID(ctx, publicID, false)
	}
	b.add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE module_media SET %s WHERE public_id = $%d AND is_deleted = FALSE",
		strings.Join(b.assignments, ", "), len(b.args)+1)
	if _, err := r.q.ExecContext(ctx, query, append(b.args, publicID)...); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "media position already used for this content")
		}
		return nil, fmt.Errorf("update content media: %w", err)
	}

	return r.FindByPublicID(ctx, publicID, false)
}

// SoftDelete marks a media row deleted; absent rows are a no-op.
func (r *MediaRepository) SoftDelete(ctx context.Context, publicID string) error {
	const query = `UPDATE module_media SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete content media: %w", err)
	}
	return nil
}

// DeleteByContents removes every media row of the given content rows for
// good. Used only by the composite teardown.
func (r *MediaRepository) DeleteByContents(ctx context.Context, contentPublicIDs []string) error {
	if len(contentPublicIDs) == 0 {
		return nil
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM module_media WHERE module_content_public_id = ANY($1)`, pq.Array(contentPublicIDs)); err != nil {
		return fmt.Errorf("delete media by contents: %w", err)
	}
	return nil
}
