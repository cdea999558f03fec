package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kvStore interface {
	Name() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

func newSQLiteSlot(t *testing.T) kvStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trainer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s.UserSlot(42)
}

func newFileStore(t *testing.T) kvStore {
	t.Helper()

	s, err := NewFileStore(afero.NewMemMapFs(), "/data/progress")
	require.NoError(t, err)

	return s
}

func TestStoresContract(t *testing.T) {
	stores := []struct {
		name string
		new  func(t *testing.T) kvStore
	}{
		{name: "memory", new: func(t *testing.T) kvStore { return NewMemoryStore("local") }},
		{name: "file", new: newFileStore},
		{name: "sqlite", new: newSQLiteSlot},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := tt.new(t)

			_, err := s.Get(ctx, "spanish_trainer_progress_v2")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "spanish_trainer_progress_v2", `{"xpTotal":10}`))
			got, err := s.Get(ctx, "spanish_trainer_progress_v2")
			require.NoError(t, err)
			assert.Equal(t, `{"xpTotal":10}`, got)

			require.NoError(t, s.Set(ctx, "spanish_trainer_progress_v2", `{"xpTotal":20}`))
			got, err = s.Get(ctx, "spanish_trainer_progress_v2")
			require.NoError(t, err)
			assert.Equal(t, `{"xpTotal":20}`, got)

			assert.NotEmpty(t, s.Name())
		})
	}
}

func TestSQLiteSlotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trainer.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.UserSlot(1).Set(ctx, "k", "one"))
	require.NoError(t, s.UserSlot(2).Set(ctx, "k", "two"))

	v, err := s.UserSlot(1).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	_, err = s.UserSlot(3).Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s, err := NewFileStore(fsys, "/data")
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "../escape/key", "v"))

	exists, err := afero.Exists(fsys, "/data/.._escape_key.json")
	require.NoError(t, err)
	assert.True(t, exists)

	leftovers, err := afero.Glob(fsys, "/data/*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestUserStoresAreIsolated(t *testing.T) {
	ctx := context.Background()

	fsys := afero.NewMemMapFs()
	files, err := NewFileStore(fsys, "/data")
	require.NoError(t, err)

	one, err := files.UserStore(1)
	require.NoError(t, err)
	two, err := files.UserStore(2)
	require.NoError(t, err)

	require.NoError(t, one.Set(ctx, "k", "one"))
	_, err = two.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := afero.Exists(fsys, "/data/1/k.json")
	require.NoError(t, err)
	assert.True(t, exists)

	memory := NewMemoryStores("local")
	require.NoError(t, memory.UserStore(1).Set(ctx, "k", "one"))
	assert.Same(t, memory.UserStore(1), memory.UserStore(1))

	_, err = memory.UserStore(2).Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnavailableStore(t *testing.T) {
	s := NewUnavailableStore("postgres")

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v"), ErrUnavailable)
	assert.Equal(t, "postgres", s.Name())
}

func TestUserLocksSerializeSameUser(t *testing.T) {
	locks := NewUserLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := locks.Lock(7)
			defer unlock()

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.Len())
}
