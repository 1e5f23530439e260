package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

func newTestStore() interfaces.DataStore {
	return NewInMemoryDataStore(ldlog.NewDefaultLoggers())
}

func TestStoreNotInitializedUntilInit(t *testing.T) {
	store := newTestStore()
	assert.False(t, store.IsInitialized())
	require.NoError(t, store.Init(nil))
	assert.True(t, store.IsInitialized())
}

func TestGetReturnsNotFoundForMissingKey(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init(nil))
	item, err := store.Get(interfaces.DataKindFeatures(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, interfaces.NotFoundItemDescriptor(), item)
}

func TestUpsertInsertsWhenNoExistingItem(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init(nil))

	updated, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 1, Item: "v1"})
	require.NoError(t, err)
	assert.True(t, updated)

	item, err := store.Get(interfaces.DataKindFeatures(), "flag1")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Version)
	assert.Equal(t, "v1", item.Item)
}

func TestUpsertIsIdempotentForSameVersion(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init(nil))

	_, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 5, Item: "v5"})
	require.NoError(t, err)

	updated, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 5, Item: "v5-again"})
	require.NoError(t, err)
	assert.False(t, updated, "same-version upsert must not apply")

	item, _ := store.Get(interfaces.DataKindFeatures(), "flag1")
	assert.Equal(t, "v5", item.Item, "original item must be unchanged")
}

func TestUpsertRejectsOlderVersion(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init(nil))

	_, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 10, Item: "new"})
	require.NoError(t, err)

	updated, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 3, Item: "stale"})
	require.NoError(t, err)
	assert.False(t, updated)

	item, _ := store.Get(interfaces.DataKindFeatures(), "flag1")
	assert.Equal(t, "new", item.Item)
}

func TestUpsertAppliesNewerVersion(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init(nil))

	_, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 1, Item: "old"})
	require.NoError(t, err)

	updated, err := store.Upsert(interfaces.DataKindFeatures(), "flag1", interfaces.StoreItemDescriptor{Version: 2, Item: "new"})
	require.NoError(t, err)
	assert.True(t, updated)

	item, _ := store.Get(interfaces.DataKindFeatures(), "flag1")
	assert.Equal(t, "new", item.Item)
}

func TestGetAllReturnsAllItemsForKind(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init([]interfaces.StoreCollection{
		{
			Kind: interfaces.DataKindFeatures(),
			Items: []interfaces.StoreKeyedItemDescriptor{
				{Key: "a", Item: interfaces.StoreItemDescriptor{Version: 1, Item: "va"}},
				{Key: "b", Item: interfaces.StoreItemDescriptor{Version: 1, Item: "vb"}},
			},
		},
	}))

	items, err := store.GetAll(interfaces.DataKindFeatures())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	segItems, err := store.GetAll(interfaces.DataKindSegments())
	require.NoError(t, err)
	assert.Empty(t, segItems)
}

func TestInitReplacesAllPriorData(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Init([]interfaces.StoreCollection{
		{
			Kind:  interfaces.DataKindFeatures(),
			Items: []interfaces.StoreKeyedItemDescriptor{{Key: "a", Item: interfaces.StoreItemDescriptor{Version: 1, Item: "va"}}},
		},
	}))
	require.NoError(t, store.Init(nil))

	items, err := store.GetAll(interfaces.DataKindFeatures())
	require.NoError(t, err)
	assert.Empty(t, items)
}
