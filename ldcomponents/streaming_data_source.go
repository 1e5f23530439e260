// Package ldcomponents provides builder-pattern factories for the pluggable pieces of Config:
// data sources, data stores, the event processor, HTTP transport, logging, and big segments.
//
// None of these factories do anything by themselves; you assign the ones you want to Config
// fields, and the SDK client calls them during MakeClient/MakeCustomClient.
package ldcomponents

import (
	"strings"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// DefaultStreamingBaseURI is the default base URI for the streaming service.
const DefaultStreamingBaseURI = "https://stream.launchdarkly.com"

// DefaultInitialReconnectDelay is the default initial delay for stream reconnection.
const DefaultInitialReconnectDelay = time.Second

// StreamingDataSourceBuilder builds the configuration for the streaming data source.
//
// See StreamingDataSource for usage.
type StreamingDataSourceBuilder struct {
	baseURI               string
	initialReconnectDelay time.Duration
}

// StreamingDataSource returns a configurable factory for streaming mode, the SDK's default way of
// getting feature flag data. Store it in Config.DataSource.
func StreamingDataSource() *StreamingDataSourceBuilder {
	return &StreamingDataSourceBuilder{
		baseURI:               DefaultStreamingBaseURI,
		initialReconnectDelay: DefaultInitialReconnectDelay,
	}
}

// BaseURI sets a custom base URI for the streaming service, for testing or for the Relay Proxy.
func (b *StreamingDataSourceBuilder) BaseURI(uri string) *StreamingDataSourceBuilder {
	if uri == "" {
		b.baseURI = DefaultStreamingBaseURI
	} else {
		b.baseURI = strings.TrimRight(uri, "/")
	}
	return b
}

// InitialReconnectDelay sets the initial delay before retrying after a stream failure. This
// value is randomized with jitter on each retry; it is not a fixed reconnect time.
func (b *StreamingDataSourceBuilder) InitialReconnectDelay(d time.Duration) *StreamingDataSourceBuilder {
	if d <= 0 {
		b.initialReconnectDelay = DefaultInitialReconnectDelay
	} else {
		b.initialReconnectDelay = d
	}
	return b
}

// CreateDataSource is called internally by the SDK.
func (b *StreamingDataSourceBuilder) CreateDataSource(
	context interfaces.ClientContext,
	dataSourceUpdates interfaces.DataSourceUpdates,
) (interfaces.DataSource, error) {
	return internal.NewStreamProcessor(context, dataSourceUpdates, b.baseURI, b.initialReconnectDelay), nil
}

// DescribeConfiguration is used internally by the SDK diagnostic event logic.
func (b *StreamingDataSourceBuilder) DescribeConfiguration(basic interfaces.BasicConfiguration) interface{} {
	return ldvalue.ObjectBuild().
		Set("streamingDisabled", ldvalue.Bool(false)).
		Set("customStreamURI", ldvalue.Bool(b.baseURI != DefaultStreamingBaseURI)).
		Set("customBaseURI", ldvalue.Bool(false)).
		Set("reconnectTimeMillis", durationToMillisValue(b.initialReconnectDelay)).
		Set("usingRelayDaemon", ldvalue.Bool(false)).
		Build()
}

func durationToMillisValue(d time.Duration) ldvalue.Value {
	return ldvalue.Int(int(d / time.Millisecond))
}
