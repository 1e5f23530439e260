// Package interfaces defines the capability contracts used to plug component implementations
// (data stores, data sources, big segment stores, event processors) into the SDK, and the
// status/tracking APIs applications use to observe the client's internal state.
package interfaces

import (
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

// ClientContext provides context information from the client when creating other components.
//
// It is passed as a parameter to the factory methods for implementations of DataStore, DataSource,
// etc. The actual implementation type may contain other properties that are only relevant to the
// built-in SDK components and are therefore not part of the public interface.
type ClientContext interface {
	GetBasic() BasicConfiguration
	GetHTTP() HTTPConfiguration
	GetLogging() LoggingConfiguration
}

// BasicConfiguration contains the most basic properties of the SDK client that are available to
// all SDK component factories.
type BasicConfiguration struct {
	// SDKKey is the configured SDK key.
	SDKKey string
	// Offline is true if the client was configured to be completely offline.
	Offline bool
}

// LoggingConfiguration is the configuration produced by a LoggingConfigurationFactory, made
// available to other component factories via ClientContext.
type LoggingConfiguration struct {
	Loggers                         ldlog.Loggers
	LogEvaluationErrors             bool
	LogContextKeyInErrors           bool
	LogDataSourceOutageAsErrorAfter time.Duration
}

// LoggingConfigurationFactory is implemented by the builders in ldcomponents that produce
// LoggingConfiguration.
type LoggingConfigurationFactory interface {
	CreateLoggingConfiguration(basic BasicConfiguration) (LoggingConfiguration, error)
}

// DiagnosticDescription is implemented by component factories that can describe themselves in a
// machine-readable form for the diagnostic event pipeline, without revealing any sensitive data.
type DiagnosticDescription interface {
	DescribeConfiguration(basic BasicConfiguration) interface{}
}
