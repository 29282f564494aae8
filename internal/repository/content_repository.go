package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edukite/catalog-api/internal/models"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

const (
	contentTable   = "module_content"
	contentColumns = "id, public_id, module_public_id, title, summary, markdown, primary_media_url, cover_image_url, sort_order, tags, draft, is_published, published_at, estimated_minutes, is_deleted, created_at, updated_at"
)

// ContentRepository handles persistence for module content.
type ContentRepository struct {
	q Querier
}

// NewContentRepository creates a new repository instance.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *ContentRepository) WithTx(tx *sqlx.Tx) *ContentRepository {
	return &ContentRepository{q: tx}
}

// Get returns a content row by internal key.
func (r *ContentRepository) Get(ctx context.Context, pk int64) (*models.ModuleContent, error) {
	return findByInternalID[models.ModuleContent](ctx, r.q, contentTable, contentColumns, pk)
}

// FindByPublicID returns a content row by public id, nil when absent.
func (r *ContentRepository) FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.ModuleContent, error) {
	return findByPublicID[models.ModuleContent](ctx, r.q, contentTable, contentColumns, publicID, includeDeleted)
}

// List returns the requested window of non-deleted content rows plus the total.
func (r *ContentRepository) List(ctx context.Context, p pagination.Params) ([]models.ModuleContent, *int, error) {
	query := pagination.Query{
		SQL:     `SELECT ` + contentColumns + ` FROM module_content WHERE is_deleted = FALSE`,
		OrderBy: "sort_order ASC NULLS LAST, id ASC",
	}
	return pagination.FetchPage[models.ModuleContent](ctx, r.q, query, p)
}

// ListByModule returns every non-deleted content row of one module in a
// single filtered query, ordered the way readers consume it.
func (r *ContentRepository) ListByModule(ctx context.Context, modulePublicID string) ([]models.ModuleContent, error) {
	const query = `SELECT ` + contentColumns + ` FROM module_content
WHERE module_public_id = $1 AND is_deleted = FALSE
ORDER BY sort_order ASC NULLS LAST, id ASC`

	var contents []models.ModuleContent
	if err := sqlx.SelectContext(ctx, r.q, &contents, query, modulePublicID); err != nil {
		return nil, fmt.Errorf("list content by module: %w", err)
	}
	return contents, nil
}

// Count returns the number of non-deleted content rows.
func (r *ContentRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, contentTable)
}

// Create persists a new content row, assigning public id and timestamps.
func (r *ContentRepository) Create(ctx context.Context, content *models.ModuleContent) error {
	if content.PublicID == "" {
		content.PublicID = uuid.NewString()
	}
	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now
	content.IsDeleted = false

	const query = `INSERT INTO module_content (public_id, module_public_id, title, summary, markdown, primary_media_url, cover_image_url, sort_order, tags, draft, is_published, published_at, estimated_minutes, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, $14, $15) RETURNING id`
	err := sqlx.GetContext(ctx, r.q, &content.ID, query,
		content.PublicID, content.ModulePublicID, content.Title, content.Summary,
		content.Markdown, content.PrimaryMediaURL, content.CoverImageURL, content.SortOrder,
		content.Tags, content.Draft, content.IsPublished, content.PublishedAt,
		content.EstimatedMins, content.CreatedAt, content.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "content order already used in this module")
		}
		return fmt.Errorf("create module content: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields and re-reads the row.
func (r *ContentRepository) Update(ctx context.Context, publicID string, patch models.ModuleContentPatch) (*models.ModuleContent, error) {
	b := &setBuilder{}
	if patch.Title != nil {
		b.add("title", *patch.Title)
	}
	if patch.Summary != nil {
		b.add("summary", *patch.Summary)
	}
	if patch.Markdown != nil {
		b.add("markdown", *patch.Markdown)
	}
	if patch.PrimaryMediaURL != nil {
		b.add("primary_media_url", *patch.PrimaryMediaURL)
	}
	if patch.CoverImageURL != nil {
		b.add("cover_image_url", *patch.CoverImageURL)
	}
	if patch.SortOrder != nil {
		b.add("sort_order", *patch.SortOrder)
	}
	if patch.Tags != nil {
		b.add("tags", *patch.Tags)
	}
	if patch.Draft != nil {
		b.add("draft", *patch.Draft)
	}
	if patch.IsPublished != nil {
		b.add("is_published", *patch.IsPublished)
	}
	if patch.PublishedAt != nil {
		b.add("published_at", *patch.PublishedAt)
	}
	if patch.EstimatedMins != nil {
		b.add("estimated_minutes", *patch.EstimatedMins)
	}
	if b.empty() {
		return r.FindByPublicID(ctx, publicID, false)
	}
	b.add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE module_content SET %s WHERE public_id = $%d AND is_deleted = FALSE",
		strings.Join(b.assignments, ", "), len(b.args)+1)
	if _, err := r.q.ExecContext(ctx, query, append(b.args, publicID)...); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "content order already used in this module")
		}
		return nil, fmt.Errorf("update module content: %w", err)
	}

	return r.FindByPublicID(ctx, publicID, false)
}

// SoftDelete marks the content row deleted; absent rows are a no-op.
func (r *ContentRepository) SoftDelete(ctx context.Context, publicID string) error {
	const query = `UPDATE module_content SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete module content: %w", err)
	}
	return nil
}

// DeleteByModule removes every content row of a module for good. Used only by
// the composite teardown.
func (r *ContentRepository) DeleteByModule(ctx context.Context, modulePublicID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM module_content WHERE module_public_id = $1`, modulePublicID); err != nil {
		return fmt.Errorf("delete content by module: %w", err)
	}
	return nil
}
