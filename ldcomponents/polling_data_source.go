package ldcomponents

import (
	"strings"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// DefaultPollingBaseURI is the default base URI for the polling service.
const DefaultPollingBaseURI = "https://sdk.launchdarkly.com"

// DefaultPollInterval is the default, and minimum allowed, polling interval.
const DefaultPollInterval = 30 * time.Second

// PollingDataSourceBuilder builds the configuration for the polling data source.
//
// Polling is not the default behavior; the SDK normally uses a streaming connection. Polling
// should only be used on the advice of LaunchDarkly support, or against the Relay Proxy.
type PollingDataSourceBuilder struct {
	baseURI      string
	pollInterval time.Duration
}

// PollingDataSource returns a configurable factory for polling mode. Store it in Config.DataSource.
func PollingDataSource() *PollingDataSourceBuilder {
	return &PollingDataSourceBuilder{
		baseURI:      DefaultPollingBaseURI,
		pollInterval: DefaultPollInterval,
	}
}

// BaseURI sets a custom base URI for the polling service.
func (b *PollingDataSourceBuilder) BaseURI(uri string) *PollingDataSourceBuilder {
	if uri == "" {
		b.baseURI = DefaultPollingBaseURI
	} else {
		b.baseURI = strings.TrimRight(uri, "/")
	}
	return b
}

// PollInterval sets the interval at which the SDK polls for updates. Values below
// DefaultPollInterval are raised to it.
func (b *PollingDataSourceBuilder) PollInterval(interval time.Duration) *PollingDataSourceBuilder {
	if interval < DefaultPollInterval {
		b.pollInterval = DefaultPollInterval
	} else {
		b.pollInterval = interval
	}
	return b
}

// CreateDataSource is called internally by the SDK.
func (b *PollingDataSourceBuilder) CreateDataSource(
	context interfaces.ClientContext,
	dataSourceUpdates interfaces.DataSourceUpdates,
) (interfaces.DataSource, error) {
	loggers := context.GetLogging().Loggers
	loggers.Warn(
		"You should only disable the streaming API if instructed to do so by LaunchDarkly support")
	return internal.NewPollingProcessor(context, dataSourceUpdates, b.baseURI, b.pollInterval), nil
}

// DescribeConfiguration is used internally by the SDK diagnostic event logic.
func (b *PollingDataSourceBuilder) DescribeConfiguration(basic interfaces.BasicConfiguration) interface{} {
	return ldvalue.ObjectBuild().
		Set("streamingDisabled", ldvalue.Bool(true)).
		Set("customBaseURI", ldvalue.Bool(b.baseURI != DefaultPollingBaseURI)).
		Set("customStreamURI", ldvalue.Bool(false)).
		Set("pollingIntervalMillis", durationToMillisValue(b.pollInterval)).
		Set("usingRelayDaemon", ldvalue.Bool(false)).
		Build()
}
