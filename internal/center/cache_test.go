package center

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupCacheMock(t *testing.T) (*Cache, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	cache := NewCache(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return cache, mock, closer
}

func TestStoreCenters(t *testing.T) {
	cache, mock, close := setupCacheMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO catalog_cache (kind, id, payload, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`)).
		WithArgs("center", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := cache.StoreCenters(context.Background(), []Center{{ID: 1, Name: "Aqua Center"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedCenters(t *testing.T) {
	cache, mock, close := setupCacheMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM catalog_cache WHERE kind = 'center' ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow(`{"id":1,"name":"Aqua Center","location":"Almaty"}`).
			AddRow(`broken json`).
			AddRow(`{"id":2,"name":"Iron Gym","location":"Astana"}`))

	centers, err := cache.Centers(context.Background())
	require.NoError(t, err)

	// Corrupt rows are skipped, not fatal.
	require.Len(t, centers, 2)
	require.Equal(t, "Aqua Center", centers[0].Name)
	require.Equal(t, "Iron Gym", centers[1].Name)
}
