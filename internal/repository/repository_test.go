package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime/catalog/internal/state"
)

func exerciseStore(t *testing.T, a, b state.Store) {
	t.Helper()
	ctx := context.Background()

	values, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, a.Save(ctx, map[string]string{"page": "4", "searchText": "naruto", "minScore": ""}))
	require.NoError(t, a.Save(ctx, map[string]string{"page": "1", "searchText": "", "minScore": ""}))

	values, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"page": "1", "searchText": "", "minScore": ""}, values)

	other, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, other, "namespaces must not leak")
}

func TestSQLiteStore(t *testing.T) {
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exerciseStore(t, NewSQLiteStore(db, "living-room"), NewSQLiteStore(db, "kitchen"))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteStore(db, "default").Save(ctx, map[string]string{"sortOrder": "desc"}))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	values, err := NewSQLiteStore(db, "default").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "desc", values["sortOrder"])
}

// Set CATALOG_TEST_POSTGRES_DSN to run against a real server.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CATALOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CATALOG_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, EnsurePostgresSchema(ctx, db))

	a, b := uuid.NewString(), uuid.NewString()
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM preferences WHERE namespace = ANY($1)`, []string{a, b})
	})

	exerciseStore(t, NewPostgresStore(db, a), NewPostgresStore(db, b))
}
