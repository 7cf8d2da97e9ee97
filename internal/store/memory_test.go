package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/hieraengine/internal/herrors"
	"github.com/Polqt/hieraengine/internal/store"
)

func TestMemoryLevelDataStoreCreateAssignsID(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	stored, err := s.Create(context.Background(), store.LevelData{LevelID: "common", ExpandedID: "common", KeyID: "k", Data: "v"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
}

func TestMemoryLevelDataStoreCreateRejectsDuplicate(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()
	row := store.LevelData{LevelID: "common", ExpandedID: "common", KeyID: "db_host", Data: "10.0.0.1"}

	_, err := s.Create(ctx, row)
	require.NoError(t, err)

	_, err = s.Create(ctx, row)
	require.Error(t, err)
	assert.Equal(t, herrors.Duplicate, herrors.KindOf(err))
}

func TestMemoryLevelDataStoreSearchByKeySortsByPriority(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()

	_, err := s.Create(ctx, store.LevelData{LevelID: "common", ExpandedID: "common", KeyID: "db_host", Priority: 100, Data: "10.0.0.1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.LevelData{LevelID: "{env}", ExpandedID: "prod", KeyID: "db_host", Priority: 50, Data: "10.0.0.9"})
	require.NoError(t, err)

	rows, err := s.SearchByKey(ctx, "db_host", []string{"common", "prod"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "10.0.0.9", rows[0].Data)
	assert.Equal(t, "10.0.0.1", rows[1].Data)
}

func TestMemoryLevelDataStoreSearchByKeyFiltersExpandedIDs(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()
	_, err := s.Create(ctx, store.LevelData{LevelID: "{env}", ExpandedID: "stage", KeyID: "db_host", Priority: 50, Data: "10.0.0.2"})
	require.NoError(t, err)

	rows, err := s.SearchByKey(ctx, "db_host", []string{"prod"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryLevelDataStoreUpdateAndDelete(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()
	_, err := s.Create(ctx, store.LevelData{LevelID: "common", ExpandedID: "common", KeyID: "k", Data: "v1"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, "common", "common", "k", "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Data)

	require.NoError(t, s.Delete(ctx, "common", "common", "k"))
	_, err = s.Get(ctx, "common", "common", "k")
	assert.Equal(t, herrors.NotFound, herrors.KindOf(err))
}

func TestMemoryLevelDataStoreAllForKey(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()
	_, err := s.Create(ctx, store.LevelData{LevelID: "common", ExpandedID: "common", KeyID: "k", Priority: 100, Data: "v1"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.LevelData{LevelID: "{env}", ExpandedID: "prod", KeyID: "k", Priority: 50, Data: "v2"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.LevelData{LevelID: "common", ExpandedID: "common", KeyID: "other", Data: "v3"})
	require.NoError(t, err)

	rows, err := s.AllForKey(ctx, "k")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "v2", rows[0].Data)
	assert.Equal(t, "v1", rows[1].Data)
}

func TestMemoryLevelDataStoreUpdatePriorityByLevel(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()
	_, err := s.Create(ctx, store.LevelData{LevelID: "A", ExpandedID: "A", KeyID: "k", Priority: 10, Data: "v"})
	require.NoError(t, err)

	require.NoError(t, s.UpdatePriorityByLevel(ctx, "A", 30))
	row, err := s.Get(ctx, "A", "A", "k")
	require.NoError(t, err)
	assert.Equal(t, 30, row.Priority)
}

func TestMemoryLevelDataStoreDeleteAllForLevelAndKey(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryLevelDataStore()
	ctx := context.Background()
	_, err := s.Create(ctx, store.LevelData{LevelID: "A", ExpandedID: "A", KeyID: "k1", Data: "v"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.LevelData{LevelID: "A", ExpandedID: "A", KeyID: "k2", Data: "v"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.LevelData{LevelID: "B", ExpandedID: "B", KeyID: "k1", Data: "v"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAllForLevel(ctx, "A"))
	rows, err := s.AllForKey(ctx, "k1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].LevelID)

	require.NoError(t, s.DeleteAllForKey(ctx, "k1"))
	rows, err = s.AllForKey(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
