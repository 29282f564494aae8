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
	courseTable   = "courses"
	courseColumns = "id, public_id, track_public_id, title, description, sort_order, theme, is_deleted, created_at, updated_at"
)

// CourseFilter captures supported predicates for listing courses.
type CourseFilter struct {
	TrackPublicID string
}

// CourseRepository handles persistence for courses.
type CourseRepository struct {
	q Querier
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *CourseRepository) WithTx(tx *sqlx.Tx) *CourseRepository {
	return &CourseRepository{q: tx}
}

// Get returns a course by internal key.
func (r *CourseRepository) Get(ctx context.Context, pk int64) (*models.Course, error) {
	return findByInternalID[models.Course](ctx, r.q, courseTable, courseColumns, pk)
}

// FindByPublicID returns a course by public id, nil when absent.
func (r *CourseRepository) FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Course, error) {
	return findByPublicID[models.Course](ctx, r.q, courseTable, courseColumns, publicID, includeDeleted)
}

// List returns the requested window of non-deleted courses plus the total,
// optionally restricted to a single track.
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter, p pagination.Params) ([]models.Course, *int, error) {
	query := pagination.Query{
		SQL:     `SELECT ` + courseColumns + ` FROM courses WHERE is_deleted = FALSE`,
		OrderBy: "sort_order ASC NULLS LAST, title ASC",
	}
	if filter.TrackPublicID != "" {
		query.Args = append(query.Args, filter.TrackPublicID)
		query.SQL += fmt.Sprintf(" AND track_public_id = $%d", len(query.Args))
	}
	return pagination.FetchPage[models.Course](ctx, r.q, query, p)
}

// Count returns the number of non-deleted courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, courseTable)
}

// Create persists a new course, assigning public id and timestamps.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.PublicID == "" {
		course.PublicID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.IsDeleted = false

	const query = `INSERT INTO courses (public_id, track_public_id, title, description, sort_order, theme, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8) RETURNING id`
	err := sqlx.GetContext(ctx, r.q, &course.ID, query,
		course.PublicID, course.TrackPublicID, course.Title, course.Description,
		course.SortOrder, course.Theme, course.CreatedAt, course.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "course title or order already used in this track")
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields and re-reads the row.
func (r *CourseRepository) Update(ctx context.Context, publicID string, patch models.CoursePatch) (*models.Course, error) {
	b := &setBuilder{}
	if patch.Title != nil {
		b.add("title", *patch.Title)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	if patch.SortOrder != nil {
		b.add("sort_order", *patch.SortOrder)
	}
	if patch.Theme != nil {
		b.add("theme", *patch.Theme)
	}
	if b.empty() {
		return r.FindByPublicID(ctx, publicID, false)
	}
	b.add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE courses SET %s WHERE public_id = $%d AND is_deleted = FALSE",
		strings.Join(b.assignments, ", "), len(b.args)+1)
	if _, err := r.q.ExecContext(ctx, query, append(b.args, publicID)...); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course title or order already used in this track")
		}
		return nil, fmt.Errorf("update course: %w", err)
	}

	return r.FindByPublicID(ctx, publicID, false)
}

// SoftDelete marks the course deleted; absent rows are a no-op.
func (r *CourseRepository) SoftDelete(ctx context.Context, publicID string) error {
	const query = `UPDATE courses SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete course: %w", err)
	}
	return nil
}
