package internal

import (
	"sync"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

// inMemoryDataStore is a DataStore backed by a single RWMutex-guarded map of maps. Get and GetAll
// are called on every flag evaluation, so methods avoid defer and keep a single return path to
// keep the lock held for as short as possible.
type inMemoryDataStore struct {
	allData       map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor
	isInitialized bool
	sync.RWMutex
	loggers ldlog.Loggers
}

// NewInMemoryDataStore creates the default in-memory DataStore implementation.
func NewInMemoryDataStore(loggers ldlog.Loggers) interfaces.DataStore {
	return &inMemoryDataStore{
		allData: make(map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor),
		loggers: loggers,
	}
}

func (store *inMemoryDataStore) Init(allData []interfaces.StoreCollection) error {
	store.Lock()
	store.allData = make(map[interfaces.StoreDataKind]map[string]interfaces.StoreItemDescriptor)
	for _, coll := range allData {
		items := make(map[string]interfaces.StoreItemDescriptor, len(coll.Items))
		for _, item := range coll.Items {
			items[item.Key] = item.Item
		}
		store.allData[coll.Kind] = items
	}
	store.isInitialized = true
	store.Unlock()
	return nil
}

func (store *inMemoryDataStore) Get(kind interfaces.StoreDataKind, key string) (interfaces.StoreItemDescriptor, error) {
	store.RLock()
	var item interfaces.StoreItemDescriptor
	var ok bool
	if coll, collOK := store.allData[kind]; collOK {
		item, ok = coll[key]
	}
	store.RUnlock()

	if ok {
		return item, nil
	}
	if store.loggers.IsDebugEnabled() {
		store.loggers.Debugf(`Key %s not found in "%s"`, key, kind.GetName())
	}
	return interfaces.NotFoundItemDescriptor(), nil
}

func (store *inMemoryDataStore) GetAll(kind interfaces.StoreDataKind) ([]interfaces.StoreKeyedItemDescriptor, error) {
	store.RLock()
	var itemsOut []interfaces.StoreKeyedItemDescriptor
	if itemsMap, ok := store.allData[kind]; ok {
		itemsOut = make([]interfaces.StoreKeyedItemDescriptor, 0, len(itemsMap))
		for key, item := range itemsMap {
			itemsOut = append(itemsOut, interfaces.StoreKeyedItemDescriptor{Key: key, Item: item})
		}
	}
	store.RUnlock()
	return itemsOut, nil
}

func (store *inMemoryDataStore) Upsert(
	kind interfaces.StoreDataKind,
	key string,
	newItem interfaces.StoreItemDescriptor,
) (bool, error) {
	store.Lock()
	coll, ok := store.allData[kind]
	if !ok {
		store.allData[kind] = map[string]interfaces.StoreItemDescriptor{key: newItem}
		store.Unlock()
		return true, nil
	}
	if existing, exists := coll[key]; exists && existing.Version >= newItem.Version {
		store.Unlock()
		return false, nil
	}
	coll[key] = newItem
	store.Unlock()
	return true, nil
}

func (store *inMemoryDataStore) IsInitialized() bool {
	store.RLock()
	ret := store.isInitialized
	store.RUnlock()
	return ret
}

func (store *inMemoryDataStore) IsStatusMonitoringEnabled() bool {
	return false
}

func (store *inMemoryDataStore) Close() error {
	return nil
}
