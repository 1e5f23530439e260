package interfaces

// DataStoreStatusProvider is an interface for querying the status of a persistent data store.
// Returned by LDClient.GetDataStoreStatusProvider(); application code should not implement it.
type DataStoreStatusProvider interface {
	// GetStatus returns the current status of the store. For the default in-memory store this is
	// always {Available: true}.
	GetStatus() DataStoreStatus

	// IsStatusMonitoringEnabled indicates whether this store implementation supports status
	// monitoring; true for all persistent stores, false for the in-memory store.
	IsStatusMonitoringEnabled() bool

	// AddStatusListener subscribes to notifications of status changes.
	//
	// It is the caller's responsibility to consume values from the channel; letting them
	// accumulate can block an SDK goroutine.
	AddStatusListener() <-chan DataStoreStatus

	// RemoveStatusListener unsubscribes a channel previously returned by AddStatusListener.
	RemoveStatusListener(<-chan DataStoreStatus)
}

// DataStoreStatus describes the availability of a data store at a point in time.
type DataStoreStatus struct {
	// Available is true if the SDK believes the data store is usable right now.
	Available bool
	// NeedsRefresh is true if the store may be out of date due to a previous outage and the SDK
	// should rewrite the full dataset to it.
	NeedsRefresh bool
}

// DataStoreUpdates is the interface a DataStore implementation uses to report status changes back
// to the SDK (in particular, the persistent-store wrapper reports outages this way).
type DataStoreUpdates interface {
	// UpdateStatus reports a change in data store status. If the status differs from the last one
	// reported, it is recorded and DataStoreStatusProvider listeners are notified.
	UpdateStatus(status DataStoreStatus)
}
