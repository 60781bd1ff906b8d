package revocations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery    = `(?s)^\s*INSERT\s+INTO\s+revoked_tokens\s*\(token_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(token_id\)\s*DO\s+NOTHING\s*$`
	existsQuery    = `(?s)^\s*SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+revoked_tokens\s+WHERE\s+token_id\s*=\s*\$1\)\s*$`
	deleteExpQuery = `(?s)^\s*DELETE\s+FROM\s+revoked_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(time.Minute)

	mock.ExpectExec(insertQuery).WithArgs("jti-1", exp).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), "jti-1", exp))

	mock.ExpectExec(insertQuery).WithArgs("jti-1", exp).WillReturnError(errors.New("boom"))
	require.Error(t, repo.Create(context.Background(), "jti-1", exp))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIsRevoked(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(existsQuery).WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectQuery(existsQuery).WithArgs("jti-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	revoked, err = repo.IsRevoked(context.Background(), "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mock.ExpectQuery(existsQuery).WithArgs("jti-3").WillReturnError(errors.New("boom"))
	_, err = repo.IsRevoked(context.Background(), "jti-3")
	require.Error(t, err)
}

func TestPostgresDeleteExpired(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(deleteExpQuery).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
