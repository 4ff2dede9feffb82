package state

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the Store contract against a backend.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()

	if _, err := st.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	require.NoError(t, st.Put("k", []byte("v1")))
	got, err := st.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	// returned slices are not aliased to the stored value
	got[0] = 'X'
	again, err := st.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(again))

	require.NoError(t, st.Put("k", []byte("v2")))
	got, err = st.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, st.Delete("k"))
	_, err = st.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, st.Delete("k"), "deleting a missing key is not an error")
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestPebbleStore(t *testing.T) {
	st, err := NewPebbleStore(t.TempDir())
	if err != nil {
		t.Fatalf("pebble open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	exerciseStore(t, st)
}

func TestPebbleStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Put(Key("t1"), []byte(`{"items":[]}`)))
	require.NoError(t, st.Close())

	st, err = NewPebbleStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	got, err := st.Get(Key("t1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(got))
}

func TestBadgerStore(t *testing.T) {
	st, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("badger open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	exerciseStore(t, st)
}

func setupRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore(t *testing.T) {
	st, _ := setupRedis(t, 0)
	exerciseStore(t, st)
}

func TestRedisStore_TTL(t *testing.T) {
	st, mr := setupRedis(t, 30*time.Minute)
	require.NoError(t, st.Put(Key("t9"), []byte("{}")))
	assert.Equal(t, 30*time.Minute, mr.TTL(Key("t9")))

	mr.FastForward(31 * time.Minute)
	_, err := st.Get(Key("t9"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ServerDown(t *testing.T) {
	st, mr := setupRedis(t, 0)
	mr.Close()
	_, err := st.Get("k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Error(t, st.Put("k", []byte("v")))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cart:table-3", Key("table-3"))
}
