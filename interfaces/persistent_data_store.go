package interfaces

import "io"

// PersistentDataStore is an interface for a data store that holds feature flags and related data
// in a serialized form. Implementations are database integrations (Redis, DynamoDB, Consul, etc.)
// supplied by the embedding application; the SDK layers its own read-through/write-through caching
// on top, so implementations should not cache internally.
//
// This package defines the contract only; concrete database integrations (Redis, DynamoDB,
// Consul, and so on) live in separate modules that implement this interface.
type PersistentDataStore interface {
	io.Closer

	// Init overwrites the store's contents with a set of items for each collection, atomically.
	Init(allData []StoreSerializedCollection) error

	// Get retrieves a serialized item, if available.
	Get(kind StoreDataKind, key string) (StoreSerializedItemDescriptor, error)

	// GetAll retrieves all serialized items from the specified collection.
	GetAll(kind StoreDataKind) ([]StoreKeyedSerializedItemDescriptor, error)

	// Upsert updates or inserts a serialized item, applied only if the existing version is less
	// than the new one; returns whether it was applied.
	Upsert(kind StoreDataKind, key string, item StoreSerializedItemDescriptor) (bool, error)

	// IsInitialized returns true if the store contains a data set, detected by inspecting the
	// store itself so that it is correct even across process boundaries.
	IsInitialized() bool

	// IsStoreAvailable tests whether the store seems to be functioning normally, with the
	// smallest possible operation (e.g. a ping), not a full query.
	IsStoreAvailable() bool
}

// PersistentDataStoreFactory creates a PersistentDataStore implementation, used as the argument to
// ldcomponents.PersistentDataStore().
type PersistentDataStoreFactory interface {
	CreatePersistentDataStore(context ClientContext) (PersistentDataStore, error)
}
