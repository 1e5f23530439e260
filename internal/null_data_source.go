package internal

import "github.com/launchdarkly/go-server-sdk-sub010/interfaces"

// NewNullDataSource returns a DataSource stub used when the client is configured as Offline, where
// no data source receives data, so that the rest of the client still has something to Start/Close.
func NewNullDataSource() interfaces.DataSource {
	return nullDataSource{}
}

type nullDataSource struct{}

func (n nullDataSource) IsInitialized() bool {
	return true
}

func (n nullDataSource) Close() error {
	return nil
}

func (n nullDataSource) Start(closeWhenReady chan<- struct{}) {
	close(closeWhenReady)
}

// NewExternalUpdatesDataSource returns the DataSource used in "relay daemon" mode: this process
// never fetches flag data itself, because another process is writing it into a shared persistent
// store. Initialization state therefore delegates to the store.
func NewExternalUpdatesDataSource(updates interfaces.DataSourceUpdates) interfaces.DataSource {
	ds := externalUpdatesDataSource{updates: updates}
	if hs, ok := updates.(interface{ GetStore() interfaces.DataStore }); ok {
		ds.store = hs.GetStore()
	}
	return ds
}

type externalUpdatesDataSource struct {
	updates interfaces.DataSourceUpdates
	store   interfaces.DataStore
}

func (d externalUpdatesDataSource) IsInitialized() bool {
	if d.store != nil {
		return d.store.IsInitialized()
	}
	return true
}

func (d externalUpdatesDataSource) Start(closeWhenReady chan<- struct{}) {
	d.updates.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
	close(closeWhenReady)
}

func (d externalUpdatesDataSource) Close() error {
	return nil
}
