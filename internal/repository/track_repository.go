package repository

import (
	"context"
	"database/sql"
	"errors"
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
	trackTable   = "tracks"
	trackColumns = "id, public_id, name, description, theme, is_deleted, created_at, updated_at"
)

// TrackRepository handles persistence for tracks.
type TrackRepository struct {
	q Querier
}

// NewTrackRepository creates a new repository instance.
func NewTrackRepository(db *sqlx.DB) *TrackRepository {
	return &TrackRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *TrackRepository) WithTx(tx *sqlx.Tx) *TrackRepository {
	return &TrackRepository{q: tx}
}

// Get returns a track by internal key.
func (r *TrackRepository) Get(ctx context.Context, pk int64) (*models.Track, error) {
	return findByInternalID[models.Track](ctx, r.q, trackTable, trackColumns, pk)
}

// FindByPublicID returns a track by public id, nil when absent.
func (r *TrackRepository) FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Track, error) {
	return findByPublicID[models.Track](ctx, r.q, trackTable, trackColumns, publicID, includeDeleted)
}

// FindByName returns a non-deleted track by its normalized name.
func (r *TrackRepository) FindByName(ctx context.Context, name string) (*models.Track, error) {
	const query = `SELECT ` + trackColumns + ` FROM tracks WHERE name = $1 AND is_deleted = FALSE`

	var track models.Track
	if err := sqlx.GetContext(ctx, r.q, &track, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find track by name: %w", err)
	}
	return &track, nil
}

// List returns the requested window of non-deleted tracks plus the total.
func (r *TrackRepository) List(ctx context.Context, p pagination.Params) ([]models.Track, *int, error) {
	query := pagination.Query{
		SQL:     `SELECT ` + trackColumns + ` FROM tracks WHERE is_deleted = FALSE`,
		OrderBy: "name ASC",
	}
	return pagination.FetchPage[models.Track](ctx, r.q, query, p)
}

// Count returns the number of non-deleted tracks.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, trackTable)
}

// Create persists a new track, assigning public id and timestamps.
func (r *TrackRepository) Create(ctx context.Context, track *models.Track) error {
	if track.PublicID == "" {
		track.PublicID = uuid.NewString()
	}
	now := time.Now().UTC()
	track.CreatedAt = now
	track.UpdatedAt = now
	track.IsDeleted = false

	const query = `INSERT INTO tracks (public_id, name, description, theme, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, FALSE, $5, $6) RETURNING id`
	err := sqlx.GetContext(ctx, r.q, &track.ID, query,
		track.PublicID, track.Name, track.Description, track.Theme, track.CreatedAt, track.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "track name already exists")
		}
		return fmt.Errorf("create track: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields and re-reads the row. Returns nil
// when the track does not exist.
func (r *TrackRepository) Update(ctx context.Context, publicID string, patch models.TrackPatch) (*models.Track, error) {
	b := &setBuilder{}
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	if patch.Theme != nil {
		b.add("theme", *patch.Theme)
	}
	if b.empty() {
		return r.FindByPublicID(ctx, publicID, false)
	}
	b.add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE tracks SET %s WHERE public_id = $%d AND is_deleted = FALSE",
		strings.Join(b.assignments, ", "), len(b.args)+1)
	if _, err := r.q.ExecContext(ctx, query, append(b.args, publicID)...); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "track name already exists")
		}
		return nil, fmt.Errorf("update track: %w", err)
	}

	return r.FindByPublicID(ctx, publicID, false)
}

// SoftDelete marks the track deleted. Deleting an absent or already-deleted
// track is a no-op.
func (r *TrackRepository) SoftDelete(ctx context.Context, publicID string) error {
	const query = `UPDATE tracks SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete track: %w", err)
	}
	return nil
}

// Restore clears the soft-delete flag.
func (r *TrackRepository) Restore(ctx context.Context, publicID string) error {
	const query = `UPDATE tracks SET is_deleted = FALSE, updated_at = $2 WHERE public_id = $1 AND is_deleted = TRUE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("restore track: %w", err)
	}
	return nil
}
