package session

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupSessionMock(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	store := NewSQLiteStore(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return store, mock, closer
}

func TestAccessTokenRoundTrip(t *testing.T) {
	store, mock, close := setupSessionMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO session_kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)).
		WithArgs(AccessTokenKey, "token-abc").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SetAccessToken(ctx, "token-abc"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM session_kv WHERE key = ?`)).
		WithArgs(AccessTokenKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("token-abc"))

	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-abc", token)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessTokenAbsent(t *testing.T) {
	store, mock, close := setupSessionMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM session_kv WHERE key = ?`)).
		WithArgs(AccessTokenKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	token, err := store.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "", token)
}

func TestSetTokensWritesBothKeys(t *testing.T) {
	store, mock, close := setupSessionMock(t)
	defer close()

	upsert := regexp.QuoteMeta(`
		INSERT INTO session_kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)

	mock.ExpectExec(upsert).
		WithArgs(AccessTokenKey, "access-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsert).
		WithArgs(RefreshTokenKey, "refresh-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SetTokens(context.Background(), "access-1", "refresh-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear(t *testing.T) {
	store, mock, close := setupSessionMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM session_kv WHERE key IN (?, ?)`)).
		WithArgs(AccessTokenKey, RefreshTokenKey).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SetTokens(ctx, "a", "r"))

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", access)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "r", refresh)

	require.NoError(t, store.SetAccessToken(ctx, "a2"))
	access, _ = store.AccessToken(ctx)
	require.Equal(t, "a2", access)

	// refresh token untouched by access-only update
	refresh, _ = store.RefreshToken(ctx)
	require.Equal(t, "r", refresh)

	require.NoError(t, store.Clear(ctx))
	access, _ = store.AccessToken(ctx)
	require.Equal(t, "", access)
}
