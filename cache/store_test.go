package cache

import (
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedPage struct {
	Names []string
	Total int
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	page := storedPage{
		Names: []string{"Ali", "Sara"},
		Total: 2,
	}
	require.NoError(t, s.Set(StoreKey("employee", OperationList, "page=1", "a"), page, 0))
	require.NoError(t, s.Set(StoreKey("employee", OperationList, "page=2", "a"), page, 0))
	require.NoError(t, s.Set(StoreKey("employee", OperationGetByID, "id=7", "a"), "Ali", 0))

	var got storedPage
	found, err := s.Get(StoreKey("employee", OperationList, "page=1", "a"), &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, page, got)

	require.NoError(t, s.Clear(StoreKey("employee", OperationList, "")))
	found, err = s.Get(StoreKey("employee", OperationList, "page=1", "a"), &got)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = s.Get(StoreKey("employee", OperationList, "page=2", "a"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	var name string
	found, err = s.Get(StoreKey("employee", OperationGetByID, "id=7", "a"), &name)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ali", name)

	require.NoError(t, s.Delete(StoreKey("employee", OperationGetByID, "id=7", "a")))
	found, err = s.Get(StoreKey("employee", OperationGetByID, "id=7", "a"), &name)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreExpiration(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Set("k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	var v string
	found, err := s.Get("k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("VIEWSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VIEWSYNC_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(&redis.Options{Addr: addr}, time.Minute)
	require.NoError(t, err)
	testStore(t, s)
}

func TestNoopStore(t *testing.T) {
	s := NoopStore()
	require.NoError(t, s.Set("k", "v", 0))
	var v string
	found, err := s.Get("k", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, s.Delete("k"))
	assert.NoError(t, s.Clear(""))
}
