package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/semvault/internal/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestStoreAppendGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	records := []Record{
		{ID: 0, Title: "Zettelkasten", Path: "notes/zettelkasten.md", Vault: "work"},
		{ID: 1, Title: "Gardening", Path: "notes/gardening.md", Vault: "home", Extra: map[string]string{"tags": "hobby"}},
		{ID: 2, Title: "Budget", Path: "finance/budget.md", Vault: "home"},
	}
	require.NoError(t, store.AppendBatch(ctx, records))

	for _, want := range records {
		got, err := store.Get(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty extra stays nil", func(t *testing.T) {
		got, err := store.Get(ctx, 0)
		require.NoError(t, err)
		assert.Nil(t, got.Extra)
	})
}

func TestStoreAppendRollsBackOnDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AppendBatch(ctx, []Record{{ID: 0, Title: "first"}}))

	err := store.AppendBatch(ctx, []Record{
		{ID: 1, Title: "new"},
		{ID: 0, Title: "duplicate"},
	})
	require.Error(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "failed batch must not leave partial rows")
}

func TestStoreCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	require.NoError(t, store.AppendBatch(ctx, []Record{{ID: 0}, {ID: 1}}))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestStoreVaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AppendBatch(ctx, []Record{
		{ID: 0, Vault: "work"},
		{ID: 1, Vault: "home"},
		{ID: 2, Vault: "work"},
	}))

	vaults, err := store.Vaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]uint32{
		"work": {0, 2},
		"home": {1},
	}, vaults)
}

func TestVaultFilter(t *testing.T) {
	f := NewVaultFilter()
	f.Add("work", 0)
	f.Add("work", 2)
	f.AddBatch("home", []uint32{1, 3})

	t.Run("single vault", func(t *testing.T) {
		filter := f.Filter("work")
		require.NotNil(t, filter)
		assert.True(t, filter(0))
		assert.False(t, filter(1))
		assert.True(t, filter(2))
		assert.False(t, filter(3))
	})

	t.Run("union of vaults", func(t *testing.T) {
		filter := f.Filter("work", "home")
		for id := uint32(0); id < 4; id++ {
			assert.True(t, filter(id))
		}
	})

	t.Run("no vaults means unrestricted", func(t *testing.T) {
		assert.Nil(t, f.Filter())
	})

	t.Run("unknown vault admits nothing", func(t *testing.T) {
		filter := f.Filter("missing")
		require.NotNil(t, filter)
		assert.False(t, filter(0))
		assert.False(t, filter(1))
	})

	t.Run("filter is a snapshot", func(t *testing.T) {
		filter := f.Filter("work")
		f.Add("work", 7)
		assert.False(t, filter(7))
	})

	t.Run("bookkeeping", func(t *testing.T) {
		assert.Equal(t, []string{"home", "work"}, f.Vaults())
		assert.Equal(t, uint64(3), f.Cardinality("work"))
		assert.Equal(t, uint64(0), f.Cardinality("missing"))
	})
}
