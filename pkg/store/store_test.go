package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// exerciseStore runs the behaviour every IntStore must share. Keys are
// prefixed so shared backends do not see each other's data.
func exerciseStore(t *testing.T, s IntStore, prefix string) {
	ctx := context.Background()

	t.Run("get stores the default", func(t *testing.T) {
		key := prefix + "default"

		value, err := s.GetInt(ctx, key, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), value)

		value, err = s.GetInt(ctx, key, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(7), value)
	})

	t.Run("put overwrites", func(t *testing.T) {
		key := prefix + "put"

		require.NoError(t, s.PutInt(ctx, key, 3))
		require.NoError(t, s.PutInt(ctx, key, -12))

		value, err := s.GetInt(ctx, key, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(-12), value)
	})

	t.Run("increment and decrement", func(t *testing.T) {
		key := prefix + "counter"

		value, err := s.IncrementInt(ctx, key, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), value)

		value, err = s.IncrementInt(ctx, key, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(5), value)

		value, err = s.DecrementInt(ctx, key, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(2), value)

		value, err = s.DecrementInt(ctx, prefix+"missing", 3)
		require.NoError(t, err)
		assert.Equal(t, int64(-3), value)
	})

	t.Run("concurrent increments", func(t *testing.T) {
		key := prefix + "concurrent"

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.IncrementInt(ctx, key, 1)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		value, err := s.GetInt(ctx, key, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20), value)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	exerciseStore(t, s, "")
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "scores.db")

	s, err := OpenSQLite(context.Background(), path, zap.NewNop())
	require.NoError(t, err)

	exerciseStore(t, s, "")
	require.NoError(t, s.Close())

	t.Run("values survive reopening", func(t *testing.T) {
		reopened, err := OpenSQLite(context.Background(), path, zap.NewNop())
		require.NoError(t, err)
		defer reopened.Close()

		value, err := reopened.GetInt(context.Background(), "counter", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), value)
	})

	t.Run("path is required", func(t *testing.T) {
		_, err := OpenSQLite(context.Background(), "", zap.NewNop())
		assert.EqualError(t, err, "sqlite store requires a path")
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ROULETTE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ROULETTE_TEST_REDIS_ADDR is not set")
	}

	s, err := OpenRedis(context.Background(), Options{Addr: addr, Prefix: "roulette-test:"}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s, uuid.NewString()+":")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Type: TypeSQLite, Path: filepath.Join(t.TempDir(), "scores.db")}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Type: TypeRedis}, zap.NewNop())
	assert.EqualError(t, err, "redis store requires an addr")

	_, err = Open(ctx, Options{Type: "gdbm"}, zap.NewNop())
	assert.EqualError(t, err, `unknown store type "gdbm"`)
}
