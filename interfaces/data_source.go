package interfaces

import "io"

// DataSource describes the interface for an object that receives feature flag data from some
// source and passes it to a DataSourceUpdates. It could connect to LaunchDarkly via a streaming
// or polling mechanism, or it could be a mechanism for testing, such as a file data source.
type DataSource interface {
	io.Closer

	// IsInitialized returns true if the data source has successfully initialized at some point.
	IsInitialized() bool

	// Start tells the data source to begin initializing. It should do so asynchronously and close
	// the closeWhenReady channel once it has either succeeded in initializing for the first time,
	// or determined that it will never succeed (e.g. an unrecoverable error).
	Start(closeWhenReady chan<- struct{})
}

// DataSourceFactory creates some implementation of DataSource.
type DataSourceFactory interface {
	CreateDataSource(context ClientContext, dataSourceUpdates DataSourceUpdates) (DataSource, error)
}
