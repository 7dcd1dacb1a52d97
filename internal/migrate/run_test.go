package migrate

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	createRe = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")
	existsRe = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")
	insertRe = regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("CREATE INDEX b ON t (b);")},
		"migrations/0001_a.sql": {Data: []byte("CREATE TABLE t (a int, b int);")},
		"migrations/README.md":  {Data: []byte("ignored")},
	}
}

func TestRunFS_AppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(createRe).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsRe).WithArgs("0001_a").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsRe).WithArgs("0002_b").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX b ON t (b);")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertRe).WithArgs("0002_b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunFS(context.Background(), db, testFS()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunFS_RollsBackFailedMigration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(createRe).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(existsRe).WithArgs("0001_a").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE t").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = RunFS(context.Background(), db, testFS())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec migration 0001_a")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPending_ListsEmbeddedMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	versions, err := listVersions(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "0001_login_audit", versions[0])

	mock.ExpectExec(createRe).WillReturnResult(sqlmock.NewResult(0, 0))
	for i, v := range versions {
		mock.ExpectQuery(existsRe).WithArgs(v).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(i == 0))
	}

	pending, err := Pending(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, versions[1:], pending)
}
