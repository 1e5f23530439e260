package interfaces

import (
	"strconv"
	"time"
)

// DataSourceState describes the states of the data-source connection-state machine.
type DataSourceState string

const (
	// DataSourceStateInitializing is the initial state, before the data source has either
	// succeeded or permanently failed to start up.
	DataSourceStateInitializing DataSourceState = "INITIALIZING"
	// DataSourceStateValid means the data source is currently operating normally and has
	// received data from LaunchDarkly at least once since entering this state.
	DataSourceStateValid DataSourceState = "VALID"
	// DataSourceStateInterrupted means the data source encountered an error that it will
	// attempt to recover from, having previously reached DataSourceStateValid.
	DataSourceStateInterrupted DataSourceState = "INTERRUPTED"
	// DataSourceStateOff means the data source has been permanently shut down, either because it
	// encountered an unrecoverable error or because the SDK client was explicitly closed.
	DataSourceStateOff DataSourceState = "OFF"
)

// DataSourceErrorKind describes the category of a data source error.
type DataSourceErrorKind string

const (
	// DataSourceErrorKindUnknown indicates an unclassified error.
	DataSourceErrorKindUnknown DataSourceErrorKind = "UNKNOWN"
	// DataSourceErrorKindNetworkError indicates a transport-level error.
	DataSourceErrorKindNetworkError DataSourceErrorKind = "NETWORK_ERROR"
	// DataSourceErrorKindErrorResponse indicates an HTTP error response.
	DataSourceErrorKindErrorResponse DataSourceErrorKind = "ERROR_RESPONSE"
	// DataSourceErrorKindInvalidData indicates malformed data received from LaunchDarkly.
	DataSourceErrorKindInvalidData DataSourceErrorKind = "INVALID_DATA"
	// DataSourceErrorKindStoreError indicates that the data store failed while the data source
	// was trying to write updated data.
	DataSourceErrorKindStoreError DataSourceErrorKind = "STORE_ERROR"
)

// DataSourceErrorInfo describes one error condition observed by the data source.
type DataSourceErrorInfo struct {
	Kind       DataSourceErrorKind
	StatusCode int
	Message    string
	Time       time.Time
}

// String returns a human-readable summary such as "ERROR_RESPONSE(401)" or "NETWORK_ERROR(EOF)".
func (e DataSourceErrorInfo) String() string {
	ret := string(e.Kind)
	if e.StatusCode > 0 || e.Message != "" {
		ret += "("
		if e.StatusCode > 0 {
			ret += strconv.Itoa(e.StatusCode)
			if e.Message != "" {
				ret += ","
			}
		}
		ret += e.Message + ")"
	}
	return ret
}

// DataSourceStatus describes the current state of the data source plus the time it entered that
// state and the most recent error, if any.
type DataSourceStatus struct {
	State      DataSourceState
	StateSince time.Time
	LastError  DataSourceErrorInfo
}

// DataSourceStatusProvider is an interface for querying the status of the SDK's data source.
// Returned by LDClient.GetDataSourceStatusProvider(); application code should not implement it.
type DataSourceStatusProvider interface {
	// GetStatus returns the current status of the data source.
	GetStatus() DataSourceStatus

	// AddStatusListener subscribes to status change notifications.
	AddStatusListener() <-chan DataSourceStatus

	// RemoveStatusListener unsubscribes a channel previously returned by AddStatusListener.
	RemoveStatusListener(<-chan DataSourceStatus)

	// WaitFor blocks until the status becomes the desired state, DataSourceStateOff, or the
	// timeout elapses (0 means no timeout). Returns false if it timed out or the state became Off
	// while waiting for a different state.
	WaitFor(desiredState DataSourceState, timeout time.Duration) bool
}

// DataSourceUpdates is the interface a DataSource implementation uses to push data into the SDK
// and to report its own status, instead of manipulating the data store directly.
type DataSourceUpdates interface {
	// Init overwrites the store's contents with a full dataset.
	Init(allData []StoreCollection) bool

	// Upsert updates or inserts a single item.
	Upsert(kind StoreDataKind, key string, item StoreItemDescriptor) bool

	// UpdateStatus informs the SDK of a change in the data source's status.
	UpdateStatus(newState DataSourceState, newError DataSourceErrorInfo)

	// GetDataStoreStatusProvider returns the store status provider, so the data source can react
	// to store outages (e.g. by forcing a refresh once the store recovers).
	GetDataStoreStatusProvider() DataStoreStatusProvider
}
