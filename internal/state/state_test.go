package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = []string{"page", "searchText", "minScore"}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore_LoadEmpty(t *testing.T) {
	_, rdb := newRedis(t)
	s := NewRedisStore(rdb, "catalog:prefs:", "default", testKeys)

	values, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestRedisStore_SaveOneKeyPerField(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, "catalog:prefs:", "default", testKeys)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, map[string]string{"page": "4", "searchText": "naruto", "minScore": ""}))

	page, err := mr.Get("catalog:prefs:default:page")
	require.NoError(t, err)
	assert.Equal(t, "4", page)
	assert.Equal(t, time.Duration(0), mr.TTL("catalog:prefs:default:page"), "no expiration")

	values, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"page": "4", "searchText": "naruto", "minScore": ""}, values)
}

func TestRedisStore_NamespacesAreIsolated(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	a := NewRedisStore(rdb, "catalog:prefs:", "a", testKeys)
	b := NewRedisStore(rdb, "catalog:prefs:", "b", testKeys)

	require.NoError(t, a.Save(ctx, map[string]string{"page": "2"}))

	values, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, "catalog:prefs:", "default", testKeys)
	mr.Close()

	_, err := s.Load(context.Background())
	require.Error(t, err)
	require.Error(t, s.Save(context.Background(), map[string]string{"page": "1"}))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(map[string]string{"page": "3"})

	values, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", values["page"])

	values["page"] = "mutated"
	again, _ := s.Load(ctx)
	assert.Equal(t, "3", again["page"], "Load returns a copy")

	require.NoError(t, s.Save(ctx, map[string]string{"page": "1", "searchText": ""}))
	require.NoError(t, s.Save(ctx, map[string]string{"page": "2", "searchText": "x"}))
	assert.Len(t, s.Snapshots(), 2)
	assert.Equal(t, "x", s.Snapshots()[1]["searchText"])

	boom := errors.New("boom")
	s.FailWith(boom, boom)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Save(ctx, nil), boom)
}

func TestMemoryFactory_SameNamespaceSameStore(t *testing.T) {
	f := NewMemoryFactory()
	assert.Same(t, f.Store("a"), f.Store("a"))
	assert.NotSame(t, f.Store("a"), f.Store("b"))
}
