package interfaces

import "io"

// DataStoreFactory is a factory that creates some implementation of DataStore.
type DataStoreFactory interface {
	// CreateDataStore is called by the SDK to create the implementation instance, tied to the
	// life cycle of the LDClient: it receives a Close() call when the client is closed.
	CreateDataStore(context ClientContext, dataStoreUpdates DataStoreUpdates) (DataStore, error)
}

// DataStore is an interface for a data store that holds feature flags and related data received
// by the SDK. Ordinarily the only implementations are the default in-memory store, which holds
// references to actual data model objects, and the persistent-store wrapper that delegates to a
// PersistentDataStore.
type DataStore interface {
	io.Closer

	// Init overwrites the store's contents with a set of items for each collection, atomically.
	Init(allData []StoreCollection) error

	// Get retrieves an item from the specified collection, if available. If the key does not
	// exist, it returns a StoreItemDescriptor whose Version is -1.
	Get(kind StoreDataKind, key string) (StoreItemDescriptor, error)

	// GetAll retrieves all items from the specified collection, including tombstones.
	GetAll(kind StoreDataKind) ([]StoreKeyedItemDescriptor, error)

	// Upsert updates or inserts an item. It is applied only if the existing version is less than
	// the new version, and returns whether it was applied.
	Upsert(kind StoreDataKind, key string, item StoreItemDescriptor) (bool, error)

	// IsInitialized returns true if Init has been called at least once.
	IsInitialized() bool

	// IsStatusMonitoringEnabled returns true if this implementation supports status monitoring,
	// guaranteeing a status update is published whenever it enters or leaves an invalid state.
	IsStatusMonitoringEnabled() bool
}
