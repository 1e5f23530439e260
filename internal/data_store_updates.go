package internal

import (
	"sync"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
)

// DataStoreUpdatesImpl is the internal implementation of interfaces.DataStoreUpdates. It is
// exported because other components (the persistent-store wrapper) need the concrete type as a
// constructor dependency, not just the narrower public interface.
type DataStoreUpdatesImpl struct {
	lastStatus  interfaces.DataStoreStatus
	broadcaster *DataStoreStatusBroadcaster
	lock        sync.Mutex
}

// NewDataStoreUpdatesImpl creates a DataStoreUpdatesImpl.
func NewDataStoreUpdatesImpl(broadcaster *DataStoreStatusBroadcaster) *DataStoreUpdatesImpl {
	return &DataStoreUpdatesImpl{
		lastStatus:  interfaces.DataStoreStatus{Available: true},
		broadcaster: broadcaster,
	}
}

func (d *DataStoreUpdatesImpl) getStatus() interfaces.DataStoreStatus {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.lastStatus
}

func (d *DataStoreUpdatesImpl) getBroadcaster() *DataStoreStatusBroadcaster {
	return d.broadcaster
}

// UpdateStatus implements interfaces.DataStoreUpdates.
func (d *DataStoreUpdatesImpl) UpdateStatus(newStatus interfaces.DataStoreStatus) {
	d.lock.Lock()
	modified := newStatus != d.lastStatus
	if modified {
		d.lastStatus = newStatus
	}
	d.lock.Unlock()
	if modified {
		d.broadcaster.Broadcast(newStatus)
	}
}
