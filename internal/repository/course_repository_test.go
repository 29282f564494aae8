package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukite/catalog-api/internal/models"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

func courseRows(publicIDs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "public_id", "track_public_id", "title", "description", "sort_order", "theme", "is_deleted", "created_at", "updated_at"})
	for i, id := range publicIDs {
		rows.AddRow(int64(i+1), id, "track-1", "course-"+id, nil, i+1, nil, false, time.Now(), time.Now())
	}
	return rows
}

func TestCourseRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+courseColumns+" FROM courses WHERE is_deleted = FALSE ORDER BY sort_order ASC NULLS LAST, title ASC LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(courseRows("c1", "c2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT "+courseColumns+" FROM courses WHERE is_deleted = FALSE) AS page")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	courses, total, err := repo.List(context.Background(), CourseFilter{}, pagination.Params{Limit: 50, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	require.NotNil(t, total)
	assert.Equal(t, 2, *total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFiltersByTrack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+courseColumns+" FROM courses WHERE is_deleted = FALSE AND track_public_id = $1 ORDER BY sort_order ASC NULLS LAST, title ASC LIMIT $2 OFFSET $3")).
		WithArgs("track-1", 50, 0).
		WillReturnRows(courseRows("c1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT "+courseColumns+" FROM courses WHERE is_deleted = FALSE AND track_public_id = $1) AS page")).
		WithArgs("track-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), CourseFilter{TrackPublicID: "track-1"}, pagination.Params{Limit: 50, Offset: 0})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "track-1", courses[0].TrackPublicID)
	require.NotNil(t, total)
	assert.Equal(t, 1, *total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAssignsIdentity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "track-1", "HTTP Basics", nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	course := models.Course{TrackPublicID: "track-1", Title: "HTTP Basics"}
	require.NoError(t, repo.Create(context.Background(), &course))
	assert.Equal(t, int64(5), course.ID)
	assert.NotEmpty(t, course.PublicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateDuplicateOrderInTrack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("INSERT INTO courses").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "courses_track_public_id_sort_order_key"})

	order := 3
	err := repo.Create(context.Background(), &models.Course{TrackPublicID: "track-1", Title: "HTTP Basics", SortOrder: &order})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateDuplicateTitleInTrack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET title = $1, updated_at = $2 WHERE public_id = $3 AND is_deleted = FALSE")).
		WithArgs("HTTP Basics", sqlmock.AnyArg(), "c1").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "courses_track_public_id_title_key"})

	title := "HTTP Basics"
	_, err := repo.Update(context.Background(), "c1", models.CoursePatch{Title: &title})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositorySoftDeleteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), "c1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.SoftDelete(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
