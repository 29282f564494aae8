package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukite/catalog-api/internal/models"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func trackRows(publicIDs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "public_id", "name", "description", "theme", "is_deleted", "created_at", "updated_at"})
	for i, id := range publicIDs {
		rows.AddRow(int64(i+1), id, "track-"+id, nil, nil, false, time.Now(), time.Now())
	}
	return rows
}

func TestTrackRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+trackColumns+" FROM tracks WHERE is_deleted = FALSE ORDER BY name ASC LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(trackRows("t1", "t2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT "+trackColumns+" FROM tracks WHERE is_deleted = FALSE) AS page")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	tracks, total, err := repo.List(context.Background(), pagination.Params{Limit: 50, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
	require.NotNil(t, total)
	assert.Equal(t, 7, *total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRepositoryFindByPublicIDExcludesDeleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+trackColumns+" FROM tracks WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("t1").
		WillReturnRows(trackRows())

	track, err := repo.FindByPublicID(context.Background(), "t1", false)
	require.NoError(t, err)
	assert.Nil(t, track)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+trackColumns+" FROM tracks WHERE public_id = $1")).
		WithArgs("t1").
		WillReturnRows(trackRows("t1"))

	track, err = repo.FindByPublicID(context.Background(), "t1", true)
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, "t1", track.PublicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRepositoryCreateAssignsIdentity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectQuery("INSERT INTO tracks").
		WithArgs(sqlmock.AnyArg(), "backend", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	track := models.Track{Name: "backend"}
	require.NoError(t, repo.Create(context.Background(), &track))
	assert.Equal(t, int64(11), track.ID)
	assert.NotEmpty(t, track.PublicID)
	assert.False(t, track.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRepositoryCreateDuplicateName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectQuery("INSERT INTO tracks").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Track{Name: "backend"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRepositoryUpdateAppliesPatchFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracks SET name = $1, updated_at = $2 WHERE public_id = $3 AND is_deleted = FALSE")).
		WithArgs("renamed", sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+trackColumns+" FROM tracks WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("t1").
		WillReturnRows(trackRows("t1"))

	name := "renamed"
	track, err := repo.Update(context.Background(), "t1", models.TrackPatch{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRepositoryUpdateEmptyPatchReadsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+trackColumns+" FROM tracks WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("t1").
		WillReturnRows(trackRows("t1"))

	track, err := repo.Update(context.Background(), "t1", models.TrackPatch{})
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackRepositorySoftDeleteAndRestore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrackRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracks SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), "t1"))

	// deleting again matches no rows but still succeeds
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracks SET is_deleted = TRUE, updated_at = $2 WHERE public_id = $1 AND is_deleted = FALSE")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.SoftDelete(context.Background(), "t1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracks SET is_deleted = FALSE, updated_at = $2 WHERE public_id = $1 AND is_deleted = TRUE")).
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Restore(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
