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
	moduleTable   = "modules"
	moduleColumns = "id, public_id, name, description, sort_order, is_deleted, created_at, updated_at"
)

// ModuleRepository handles persistence for modules.
type ModuleRepository struct {
	q Querier
}

// NewModuleRepository creates a new repository instance.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *ModuleRepository) WithTx(tx *sqlx.Tx) *ModuleRepository {
	return &ModuleRepository{q: tx}
}

// Get returns a module by internal key.
func (r *ModuleRepository) Get(ctx context.Context, pk int64) (*models.Module, error) {
	return findByInternalID[models.Module](ctx, r.q, moduleTable, moduleColumns, pk)
}

// FindByPublicID returns a module by public id, nil when absent.
func (r *ModuleRepository) FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Module, error) {
	return findByPublicID[models.Module](ctx, r.q, moduleTable, moduleColumns, publicID, includeDeleted)
}

// List returns the requested window of non-deleted modules plus the total.
func (r *ModuleRepository) List(ctx context.Context, p pagination.Params) ([]models.Module, *int, error) {
	query := pagination.Query{
		SQL:     `SELECT ` + moduleColumns + ` FROM modules WHERE is_deleted = FALSE`,
		OrderBy: "sort_order ASC NULLS LAST, name ASC",
	}
	return pagination.FetchPage[models.Module](ctx, r.q, query, p)
}

// Count returns the number of non-deleted modules.
func (r *ModuleRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, moduleTable)
}

// Create persists a new module, assigning public id and timestamps.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if module.PublicID == "" {
		module.PublicID = uuid.NewString()
	}
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now
	module.IsDeleted = false

	const query = `INSERT INTO modules (public_id, name, description, sort_order, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, $5, $6) RETURNING id`
	err := sqlx.GetContext(ctx, r.q, &module.ID, query,
		module.PublicID, module.Name, module.Description, module.SortOrder,
		module.CreatedAt, module.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "module name already exists")
		}
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields and re-reads the row.
func (r *ModuleRepository) Update(ctx context.Context, publicID string, patch models.ModulePatch) (*models.Module, error) {
	b := &setBuilder{}
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	if patch.SortOrder != nil {
		b.add("sort_order", *patch.SortOrder)
	}
	if b.empty() {
		return r.FindByPublicID(ctx, publicID, false)
	}
	b.add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE modules SET %s WHERE public_id = $%d AND is_deleted = FALSE",
		strings.Join(b.assignments, ", "), len(b.args)+1)
	if _, err := r.q.ExecContext(ctx, query, append(b.args, publicID)...); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "module name already exists")
		}
		return nil, fmt.Errorf("update module: %w", err)
	}

	return r.FindByPublicID(ctx, publicID, false)
}

// SoftDelete marks the module deleted; absent rows are a no-op.
func (r *ModuleRepository) SoftDelete(ctx context.Context, publicID string) error {
	const query = `UPDATE modules SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete module: %w", err)
	}
	return nil
}

// Delete removes the module row for good. Used only by the composite
// teardown, which removes the whole subtree rather than marking it
// historical.
func (r *ModuleRepository) Delete(ctx context.Context, publicID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM modules WHERE public_id = $1`, publicID); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}
