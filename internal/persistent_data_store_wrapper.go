package internal

import (
	"fmt"
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const initCheckedKey = "$checked_init$"

// persistentDataStoreWrapper adapts a PersistentDataStore (which only understands serialized
// items) to the DataStore interface, adding optional read-through caching and outage detection.
//
// Caching has two modes. A finite cacheTTL behaves like a normal read-through TTL cache: on a miss,
// the underlying store is queried and the result is cached for cacheTTL. A negative cacheTTL means
// "cache forever": the cache is only ever populated by Init and Upsert, and a Get or GetAll that
// misses the cache does not query the underlying store at all: Get reports the item as not found
// and GetAll returns no items.
type persistentDataStoreWrapper struct {
	core             interfaces.PersistentDataStore
	dataStoreUpdates interfaces.DataStoreUpdates
	statusPoller     *dataStoreStatusPoller
	cache            *cache.Cache
	cacheTTL         time.Duration
	requests         singleflight.Group
	loggers          ldlog.Loggers

	inited   bool
	initLock sync.RWMutex
}

// NewPersistentDataStoreWrapperImpl creates the DataStore implementation that wraps a
// PersistentDataStore with caching and availability polling.
func NewPersistentDataStoreWrapperImpl(
	core interfaces.PersistentDataStore,
	dataStoreUpdates interfaces.DataStoreUpdates,
	cacheTTL time.Duration,
	loggers ldlog.Loggers,
) interfaces.DataStore {
	w := &persistentDataStoreWrapper{
		core:             core,
		dataStoreUpdates: dataStoreUpdates,
		loggers:          loggers,
		cacheTTL:         cacheTTL,
	}
	if cacheTTL != 0 {
		expiration := cacheTTL
		if expiration < 0 {
			expiration = cache.NoExpiration
		}
		w.cache = cache.New(expiration, 5*time.Minute)
	}
	w.statusPoller = newDataStoreStatusPoller(
		true,
		w.pollAvailabilityAfterOutage,
		dataStoreUpdates.UpdateStatus,
		!w.hasCacheWithInfiniteTTL(),
		loggers,
	)
	return w
}

func (w *persistentDataStoreWrapper) Init(allDataIn []interfaces.StoreCollection) error {
	allData := sortCollectionsForDataStoreInit(allDataIn)
	serializedData := make([]interfaces.StoreSerializedCollection, 0, len(allData))
	for _, coll := range allData {
		serializedData = append(serializedData, serializeAll(coll))
	}

	err := w.core.Init(serializedData)
	w.processError(err)

	w.initLock.Lock()
	w.inited = err == nil
	w.initLock.Unlock()

	if w.cache != nil {
		w.cache.Flush()
		if err != nil && !w.hasCacheWithInfiniteTTL() {
			// With a finite TTL the cache must not outlive the underlying store's real contents, so
			// a failed Init leaves it empty. In infinite-TTL mode the cache is the source of truth
			// and is populated below even on error, so the application keeps the new data set.
			return err
		}
		for _, coll := range allData {
			w.cacheItems(coll.Kind, coll.Items)
		}
		w.cache.SetDefault(initCheckedKey, true)
	}
	return err
}

func (w *persistentDataStoreWrapper) Get(
	kind interfaces.StoreDataKind,
	key string,
) (interfaces.StoreItemDescriptor, error) {
	if w.cache == nil {
		item, err := w.getAndDeserializeItem(kind, key)
		w.processError(err)
		return item, err
	}

	cacheKey := dataStoreCacheKey(kind, key)
	if data, present := w.cache.Get(cacheKey); present {
		if item, ok := data.(interfaces.StoreItemDescriptor); ok {
			return item, nil
		}
		return interfaces.NotFoundItemDescriptor(), nil
	}

	if w.hasCacheWithInfiniteTTL() {
		// In infinite-TTL mode a cache miss on a Get means the item is genuinely absent, not that
		// the cache expired; avoid hitting the underlying store on every lookup for a nonexistent
		// key.
		return interfaces.NotFoundItemDescriptor(), nil
	}

	itemIntf, err, _ := w.requests.Do(cacheKey, func() (interface{}, error) {
		item, err := w.getAndDeserializeItem(kind, key)
		w.processError(err)
		if err == nil {
			w.cache.SetDefault(cacheKey, item)
		}
		return item, err
	})
	if err != nil {
		return interfaces.NotFoundItemDescriptor(), err
	}
	return itemIntf.(interfaces.StoreItemDescriptor), nil
}

func (w *persistentDataStoreWrapper) GetAll(
	kind interfaces.StoreDataKind,
) ([]interfaces.StoreKeyedItemDescriptor, error) {
	if w.cache == nil {
		items, err := w.getAllAndDeserialize(kind)
		w.processError(err)
		return items, err
	}

	cacheKey := dataStoreAllItemsCacheKey(kind)
	if data, present := w.cache.Get(cacheKey); present {
		if items, ok := data.([]interfaces.StoreKeyedItemDescriptor); ok {
			return items, nil
		}
	}

	if w.hasCacheWithInfiniteTTL() {
		return nil, nil
	}

	itemsIntf, err, _ := w.requests.Do(cacheKey, func() (interface{}, error) {
		items, err := w.getAllAndDeserialize(kind)
		w.processError(err)
		if err == nil {
			w.cache.SetDefault(cacheKey, items)
			for _, item := range items {
				w.cache.SetDefault(dataStoreCacheKey(kind, item.Key), item.Item)
			}
		}
		return items, err
	})
	if err != nil {
		return nil, err
	}
	return itemsIntf.([]interfaces.StoreKeyedItemDescriptor), nil
}

func (w *persistentDataStoreWrapper) Upsert(
	kind interfaces.StoreDataKind,
	key string,
	newItem interfaces.StoreItemDescriptor,
) (bool, error) {
	serializedItem := serialize(kind, newItem)

	updated, err := w.core.Upsert(kind, key, serializedItem)
	w.processError(err)
	if err != nil {
		if w.hasCacheWithInfiniteTTL() {
			// The underlying store is unavailable, but in infinite-TTL mode the cache is the
			// source of truth, so the update is applied there and Get returns it. The update is
			// not written to the underlying store afterwards, even once the store is available
			// again.
			w.updateSingleItem(kind, key, newItem)
		}
		return false, err
	}

	if w.cache != nil {
		if updated {
			w.updateSingleItem(kind, key, newItem)
		} else {
			// The update was not applied because a newer version already exists; invalidate so a
			// subsequent Get reflects that actual newer version instead of a stale cached one.
			w.cache.Delete(dataStoreCacheKey(kind, key))
		}
		w.cache.Delete(dataStoreAllItemsCacheKey(kind))
	}
	return updated, nil
}

func (w *persistentDataStoreWrapper) IsInitialized() bool {
	w.initLock.RLock()
	if w.inited {
		w.initLock.RUnlock()
		return true
	}
	w.initLock.RUnlock()

	if w.cache != nil {
		if _, present := w.cache.Get(initCheckedKey); present {
			return false
		}
	}

	result := w.core.IsInitialized()
	if result {
		w.initLock.Lock()
		w.inited = true
		w.initLock.Unlock()
	} else if w.cache != nil {
		w.cache.SetDefault(initCheckedKey, true)
	}
	return result
}

func (w *persistentDataStoreWrapper) IsStatusMonitoringEnabled() bool {
	return true
}

func (w *persistentDataStoreWrapper) Close() error {
	w.statusPoller.Close()
	return w.core.Close()
}

func (w *persistentDataStoreWrapper) pollAvailabilityAfterOutage() bool {
	return w.core.IsStoreAvailable()
}

func (w *persistentDataStoreWrapper) hasCacheWithInfiniteTTL() bool {
	return w.cache != nil && w.cacheTTL < 0
}

func (w *persistentDataStoreWrapper) cacheItems(
	kind interfaces.StoreDataKind,
	items []interfaces.StoreKeyedItemDescriptor,
) {
	if w.cache == nil {
		return
	}
	itemsCopy := make([]interfaces.StoreKeyedItemDescriptor, len(items))
	copy(itemsCopy, items)
	w.cache.SetDefault(dataStoreAllItemsCacheKey(kind), itemsCopy)
	for _, item := range items {
		w.cache.SetDefault(dataStoreCacheKey(kind, item.Key), item.Item)
	}
}

func (w *persistentDataStoreWrapper) updateSingleItem(
	kind interfaces.StoreDataKind,
	key string,
	item interfaces.StoreItemDescriptor,
) {
	if w.cache == nil {
		return
	}
	w.cache.SetDefault(dataStoreCacheKey(kind, key), item)
}

func (w *persistentDataStoreWrapper) getAndDeserializeItem(
	kind interfaces.StoreDataKind,
	key string,
) (interfaces.StoreItemDescriptor, error) {
	serializedItem, err := w.core.Get(kind, key)
	if err != nil {
		return interfaces.NotFoundItemDescriptor(), err
	}
	return deserialize(kind, serializedItem)
}

func (w *persistentDataStoreWrapper) getAllAndDeserialize(
	kind interfaces.StoreDataKind,
) ([]interfaces.StoreKeyedItemDescriptor, error) {
	serializedItems, err := w.core.GetAll(kind)
	if err != nil {
		return nil, err
	}
	itemsOut := make([]interfaces.StoreKeyedItemDescriptor, 0, len(serializedItems))
	for _, serializedItem := range serializedItems {
		item, err := deserialize(kind, serializedItem.Item)
		if err != nil {
			return nil, err
		}
		itemsOut = append(itemsOut, interfaces.StoreKeyedItemDescriptor{Key: serializedItem.Key, Item: item})
	}
	return itemsOut, nil
}

func (w *persistentDataStoreWrapper) processError(err error) {
	if err == nil {
		w.statusPoller.UpdateAvailability(true)
		return
	}
	w.loggers.Errorf("Persistent store returned error: %s", err)
	w.statusPoller.UpdateAvailability(false)
}

func serialize(kind interfaces.StoreDataKind, item interfaces.StoreItemDescriptor) interfaces.StoreSerializedItemDescriptor {
	if item.Item == nil {
		return interfaces.StoreSerializedItemDescriptor{Version: item.Version, Deleted: true, SerializedItem: kind.Serialize(item)}
	}
	return interfaces.StoreSerializedItemDescriptor{Version: item.Version, SerializedItem: kind.Serialize(item)}
}

func serializeAll(coll interfaces.StoreCollection) interfaces.StoreSerializedCollection {
	itemsOut := make([]interfaces.StoreKeyedSerializedItemDescriptor, 0, len(coll.Items))
	for _, item := range coll.Items {
		itemsOut = append(itemsOut, interfaces.StoreKeyedSerializedItemDescriptor{
			Key:  item.Key,
			Item: serialize(coll.Kind, item.Item),
		})
	}
	return interfaces.StoreSerializedCollection{Kind: coll.Kind, Items: itemsOut}
}

func deserialize(
	kind interfaces.StoreDataKind,
	serializedItem interfaces.StoreSerializedItemDescriptor,
) (interfaces.StoreItemDescriptor, error) {
	if serializedItem.Deleted || serializedItem.SerializedItem == nil {
		return interfaces.StoreItemDescriptor{Version: serializedItem.Version, Item: nil}, nil
	}
	item, err := kind.Deserialize(serializedItem.SerializedItem)
	if err != nil {
		return interfaces.StoreItemDescriptor{}, fmt.Errorf("error unmarshaling %s item: %w", kind.GetName(), err)
	}
	return item, nil
}

func dataStoreCacheKey(kind interfaces.StoreDataKind, key string) string {
	return kind.GetName() + ":" + key
}

func dataStoreAllItemsCacheKey(kind interfaces.StoreDataKind) string {
	return "all:" + kind.GetName()
}
