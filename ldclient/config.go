// Package ldclient is the main package for the SDK: it exposes Config, the LDClient façade, and
// the constructors that wire every other package together into a running client.
package ldclient

import (
	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
)

// Config exposes advanced configuration options for the LaunchDarkly client. An empty Config is
// always valid; every field falls back to the corresponding ldcomponents default.
type Config struct {
	// DataSource sets the component that receives feature flag data, normally a streaming
	// connection (ldcomponents.StreamingDataSource(), the default), polling
	// (ldcomponents.PollingDataSource()), or ldcomponents.ExternalUpdatesOnly() when another
	// process owns the persistent data store. Ignored if Offline is true.
	DataSource interfaces.DataSourceFactory

	// DataStore sets the component that holds flag and segment data. The default is
	// ldcomponents.InMemoryDataStore(); wrap a PersistentDataStoreFactory with
	// ldcomponents.PersistentDataStore() to use a database integration.
	DataStore interfaces.DataStoreFactory

	// BigSegments configures support for big (externally computed) segments. If nil, big segment
	// references in flag rules always evaluate as "not configured".
	BigSegments interfaces.BigSegmentsConfigurationFactory

	// Events sets the component that delivers analytics events, normally
	// ldcomponents.SendEvents() (the default) or ldcomponents.NoEvents() to disable it entirely.
	// Ignored (always disabled) if Offline is true.
	Events interfaces.EventProcessorFactory

	// HTTP configures the HTTP transport shared by every networked component. The default is
	// ldcomponents.HTTPConfiguration(). Ignored if Offline is true.
	HTTP interfaces.HTTPConfigurationFactory

	// Logging configures the SDK's logging behavior. The default is ldcomponents.Logging().
	Logging interfaces.LoggingConfigurationFactory

	// DiagnosticOptOut disables the periodic diagnostic events the SDK otherwise sends to help
	// LaunchDarkly understand SDK usage patterns.
	DiagnosticOptOut bool

	// Offline, if true, disables all network activity: DataSource and Events are ignored, and
	// every flag evaluation returns its default value.
	Offline bool
}
