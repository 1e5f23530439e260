package ldcomponents

import (
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// PersistentDataStoreDefaultCacheTime is the default cache TTL used by PersistentDataStore().
const PersistentDataStoreDefaultCacheTime = 15 * time.Second

// InMemoryDataStore returns a configuration factory for the default in-memory data store. This is
// already the default for Config.DataStore, so applications do not normally need to call this.
func InMemoryDataStore() interfaces.DataStoreFactory {
	return inMemoryDataStoreFactory{}
}

type inMemoryDataStoreFactory struct{}

func (f inMemoryDataStoreFactory) CreateDataStore(
	context interfaces.ClientContext,
	dataStoreUpdates interfaces.DataStoreUpdates,
) (interfaces.DataStore, error) {
	return internal.NewInMemoryDataStore(context.GetLogging().Loggers), nil
}

// PersistentDataStoreBuilder adds caching behavior on top of a persistent store implementation
// supplied by the embedding application (e.g. a Redis or DynamoDB integration).
//
//	config := ld.Config{
//	    DataStore: ldcomponents.PersistentDataStore(myDatabaseFactory).CacheSeconds(30),
//	}
type PersistentDataStoreBuilder struct {
	factory  interfaces.PersistentDataStoreFactory
	cacheTTL time.Duration
}

// PersistentDataStore returns a configurable factory wrapping a PersistentDataStoreFactory with
// the SDK's universal read-through/write-through caching behavior.
func PersistentDataStore(factory interfaces.PersistentDataStoreFactory) *PersistentDataStoreBuilder {
	return &PersistentDataStoreBuilder{
		factory:  factory,
		cacheTTL: PersistentDataStoreDefaultCacheTime,
	}
}

// CacheTime sets the cache TTL. Zero disables caching; a negative value caches forever.
func (b *PersistentDataStoreBuilder) CacheTime(cacheTime time.Duration) *PersistentDataStoreBuilder {
	b.cacheTTL = cacheTime
	return b
}

// CacheSeconds is a shortcut for CacheTime in whole seconds.
func (b *PersistentDataStoreBuilder) CacheSeconds(cacheSeconds int) *PersistentDataStoreBuilder {
	return b.CacheTime(time.Duration(cacheSeconds) * time.Second)
}

// CacheForever specifies that cached data should never expire. See
// internal.NewPersistentDataStoreWrapperImpl for the exact semantics of this mode.
func (b *PersistentDataStoreBuilder) CacheForever() *PersistentDataStoreBuilder {
	return b.CacheTime(-1 * time.Millisecond)
}

// NoCaching disables the in-memory cache; every read hits the persistent store.
func (b *PersistentDataStoreBuilder) NoCaching() *PersistentDataStoreBuilder {
	return b.CacheTime(0)
}

// CreateDataStore is called internally by the SDK.
func (b *PersistentDataStoreBuilder) CreateDataStore(
	context interfaces.ClientContext,
	dataStoreUpdates interfaces.DataStoreUpdates,
) (interfaces.DataStore, error) {
	core, err := b.factory.CreatePersistentDataStore(context)
	if err != nil {
		return nil, err
	}
	return internal.NewPersistentDataStoreWrapperImpl(
		core, dataStoreUpdates, b.cacheTTL, context.GetLogging().Loggers), nil
}

// DescribeConfiguration is used internally by the SDK diagnostic event logic.
func (b *PersistentDataStoreBuilder) DescribeConfiguration(basic interfaces.BasicConfiguration) interface{} {
	if dd, ok := b.factory.(interfaces.DiagnosticDescription); ok {
		return dd.DescribeConfiguration(basic)
	}
	return ldvalue.String("custom")
}
