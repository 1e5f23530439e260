package interfaces

import "time"

// BigSegmentStore is an interface for a read-only data store that allows querying of user/context
// membership in big segments, which are an external collaborator: a concrete Redis/DynamoDB-backed
// implementation of this interface is supplied by the embedding application, symmetrically with
// PersistentDataStore.
type BigSegmentStore interface {
	// GetMetadata returns information about the overall state of the store, used to detect
	// staleness relative to the upstream Relay Proxy sync process.
	GetMetadata() (BigSegmentStoreMetadata, error)

	// GetMembership queries the store for a snapshot of the segment membership state for a
	// context key (identified by its hash, as computed by the SDK). The contextHash is a
	// base64-encoded SHA-256 hash of the plain context key.
	GetMembership(contextHash string) (BigSegmentMembership, error)

	// Close releases any resources used by the store.
	Close() error
}

// BigSegmentStoreFactory creates a BigSegmentStore implementation, used as the argument to
// ldcomponents.BigSegments().
type BigSegmentStoreFactory interface {
	CreateBigSegmentStore(context ClientContext) (BigSegmentStore, error)
}

// BigSegmentStoreMetadata contains the last-synced timestamp reported by a BigSegmentStore.
type BigSegmentStoreMetadata struct {
	// LastUpToDate is the timestamp of the last successful synchronization from LaunchDarkly by
	// the Relay Proxy, or the zero value if the store has never been synced.
	LastUpToDate time.Time
}

// BigSegmentMembership is the raw per-context membership payload returned by a BigSegmentStore
// query, keyed by a segment reference string ("key" or "key.gNNN" for a generation-qualified
// reference). A value of true means explicitly included, false means explicitly excluded; a
// reference not present in the map means the store had no opinion for that segment.
type BigSegmentMembership map[string]bool

// BigSegmentsStatus describes the availability and freshness of the big segment store as observed
// by the big-segment manager.
type BigSegmentsStatus struct {
	Available bool
	Stale     bool
}

// BigSegmentStoreStatusProvider is an interface for querying the status of a big segment store.
// Returned by LDClient.GetBigSegmentStoreStatusProvider(); application code should not implement
// it.
type BigSegmentStoreStatusProvider interface {
	// GetStatus returns the current status.
	GetStatus() BigSegmentsStatus

	// AddStatusListener subscribes to status change notifications.
	AddStatusListener() <-chan BigSegmentsStatus

	// RemoveStatusListener unsubscribes a channel previously returned by AddStatusListener.
	RemoveStatusListener(<-chan BigSegmentsStatus)
}

// BigSegmentsConfiguration is the configuration produced by ldcomponents.BigSegments(), made
// available to the big-segment manager.
type BigSegmentsConfiguration struct {
	Store              BigSegmentStore
	ContextCacheSize   int
	ContextCacheTime   time.Duration
	StatusPollInterval time.Duration
	StaleAfter         time.Duration
}

// BigSegmentsConfigurationFactory is implemented by ldcomponents.BigSegmentsConfigurationBuilder.
type BigSegmentsConfigurationFactory interface {
	CreateBigSegmentsConfiguration(context ClientContext) (BigSegmentsConfiguration, error)
}
