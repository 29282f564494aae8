package pagination

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/edukite/catalog-api/pkg/errors"
)

func TestParseParamsDefaults(t *testing.T) {
	p, err := ParseParams("", "", Bounds{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestParseParamsCustomBounds(t *testing.T) {
	bounds := Bounds{DefaultLimit: 10, MaxLimit: 25}

	p, err := ParseParams("", "", bounds)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Limit)

	p, err = ParseParams("25", "5", bounds)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, 5, p.Offset)

	_, err = ParseParams("26", "", bounds)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestParseParamsRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		limit  string
		offset string
	}{
		{"zero limit", "0", ""},
		{"negative limit", "-1", ""},
		{"limit above ceiling", "201", ""},
		{"non-numeric limit", "abc", ""},
		{"negative offset", "", "-1"},
		{"non-numeric offset", "", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseParams(tc.limit, tc.offset, Bounds{})
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
		})
	}
}

func TestFetchPageAppendsWindowAndCountsBaseQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	sx := sqlx.NewDb(db, "sqlmock")

	type row struct {
		Name string `db:"name"`
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM things WHERE owner = $1 ORDER BY name ASC LIMIT $2 OFFSET $3")).
		WithArgs("o1", 2, 4).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM (SELECT name FROM things WHERE owner = $1) AS page")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	query := Query{
		SQL:     "SELECT name FROM things WHERE owner = $1",
		OrderBy: "name ASC",
		Args:    []interface{}{"o1"},
	}
	rows, total, err := FetchPage[row](context.Background(), sx, query, Params{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	require.NotNil(t, total)
	assert.Equal(t, 9, *total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPageWithoutTotalSkipsCount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	sx := sqlx.NewDb(db, "sqlmock")

	type row struct {
		Name string `db:"name"`
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM things LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a"))

	rows, total, err := FetchPage[row](context.Background(), sx, Query{SQL: "SELECT name FROM things"}, Params{Limit: 50}, WithoutTotal())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Nil(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewMeta(t *testing.T) {
	total := 101
	meta := NewMeta(&total, Params{Limit: 50, Offset: 0})
	require.NotNil(t, meta.Pages)
	assert.Equal(t, 3, *meta.Pages)
	assert.Equal(t, 101, *meta.Total)

	zero := 0
	meta = NewMeta(&zero, Params{Limit: 50})
	require.NotNil(t, meta.Pages)
	assert.Equal(t, 0, *meta.Pages)

	meta = NewMeta(nil, Params{Limit: 50, Offset: 100})
	assert.Nil(t, meta.Total)
	assert.Nil(t, meta.Pages)
	assert.Equal(t, 100, meta.Offset)
}
