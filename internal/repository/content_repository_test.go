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
)

func contentRows(moduleID string, publicIDs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "public_id", "module_public_id", "title", "summary", "markdown", "primary_media_url", "cover_image_url", "sort_order", "tags", "draft", "is_published", "published_at", "estimated_minutes", "is_deleted", "created_at", "updated_at"})
	for i, id := range publicIDs {
		rows.AddRow(int64(i+1), id, moduleID, "title-"+id, nil, nil, nil, nil, i+1, []byte(`["go"]`), true, false, nil, nil, false, time.Now(), time.Now())
	}
	return rows
}

func TestContentRepositoryListByModule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery("SELECT "+regexp.QuoteMeta(contentColumns)+" FROM module_content\\s+WHERE module_public_id = \\$1 AND is_deleted = FALSE").
		WithArgs("mod1").
		WillReturnRows(contentRows("mod1", "c1", "c2"))

	contents, err := repo.ListByModule(context.Background(), "mod1")
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, models.Tags{"go"}, contents[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryListByModuleEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM module_content").
		WithArgs("mod1").
		WillReturnRows(contentRows("mod1"))

	contents, err := repo.ListByModule(context.Background(), "mod1")
	require.NoError(t, err)
	assert.Empty(t, contents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryCreateNormalizedTagsPersisted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery("INSERT INTO module_content").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	content := models.ModuleContent{
		ModulePublicID: "mod1",
		Title:          "Intro",
		Tags:           models.NormalizeTags([]string{" Go ", "go", "SQL"}),
		Draft:          true,
	}
	require.NoError(t, repo.Create(context.Background(), &content))
	assert.Equal(t, int64(5), content.ID)
	assert.Equal(t, models.Tags{"go", "sql"}, content.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryCreateDuplicateOrderInModule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery("INSERT INTO module_content").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "module_content_module_public_id_sort_order_key"})

	order := 1
	content := models.ModuleContent{ModulePublicID: "mod1", Title: "Intro", SortOrder: &order}
	err := repo.Create(context.Background(), &content)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryDeleteByModule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM module_content WHERE module_public_id = $1")).
		WithArgs("mod1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByModule(context.Background(), "mod1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
