package interfaces

// StoreDataKind represents a separately namespaced collection of storable data items (flags,
// segments). Application code does not need to use this type; it is for data store
// implementations, which should treat all data kinds generically rather than special-casing any
// particular one.
type StoreDataKind interface {
	GetName() string
	Serialize(item StoreItemDescriptor) []byte
	Deserialize(data []byte) (StoreItemDescriptor, error)
}

// StoreItemDescriptor is a versioned item (or tombstone) storable in a DataStore.
//
// For any given key within a StoreDataKind there can be either an existing item with a version,
// or a tombstone placeholder representing a deleted item (also with a version), so that an
// out-of-order update with a lower version never resurrects a deleted item.
type StoreItemDescriptor struct {
	Version int
	Item    interface{}
}

// NotFoundItemDescriptor returns a StoreItemDescriptor indicating no such item exists.
func NotFoundItemDescriptor() StoreItemDescriptor {
	return StoreItemDescriptor{Version: -1, Item: nil}
}

// StoreSerializedItemDescriptor is the PersistentDataStore equivalent of StoreItemDescriptor: the
// SDK converts each item to and from its serialized string form, and the persistent store deals
// only with the serialized form.
type StoreSerializedItemDescriptor struct {
	Version        int
	Deleted        bool
	SerializedItem []byte
}

// NotFoundSerializedItemDescriptor returns a StoreSerializedItemDescriptor indicating no such item
// exists.
func NotFoundSerializedItemDescriptor() StoreSerializedItemDescriptor {
	return StoreSerializedItemDescriptor{Version: -1, SerializedItem: nil}
}

// StoreKeyedItemDescriptor pairs a StoreItemDescriptor with its key.
type StoreKeyedItemDescriptor struct {
	Key  string
	Item StoreItemDescriptor
}

// StoreKeyedSerializedItemDescriptor pairs a StoreSerializedItemDescriptor with its key.
type StoreKeyedSerializedItemDescriptor struct {
	Key  string
	Item StoreSerializedItemDescriptor
}

// StoreCollection is a list of items for one StoreDataKind, used for DataStore.Init.
type StoreCollection struct {
	Kind  StoreDataKind
	Items []StoreKeyedItemDescriptor
}

// StoreSerializedCollection is the PersistentDataStore equivalent of StoreCollection.
type StoreSerializedCollection struct {
	Kind  StoreDataKind
	Items []StoreKeyedSerializedItemDescriptor
}
