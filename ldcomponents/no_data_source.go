package ldcomponents

import (
	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// ExternalUpdatesOnly returns a configuration factory for a data source that does not connect to
// LaunchDarkly at all. Use this when another process (such as the Relay Proxy) is writing flag
// data directly into a shared persistent data store, and this client should only read from it.
func ExternalUpdatesOnly() interfaces.DataSourceFactory {
	return externalUpdatesOnlyFactory{}
}

type externalUpdatesOnlyFactory struct{}

func (f externalUpdatesOnlyFactory) CreateDataSource(
	context interfaces.ClientContext,
	dataSourceUpdates interfaces.DataSourceUpdates,
) (interfaces.DataSource, error) {
	return internal.NewExternalUpdatesDataSource(dataSourceUpdates), nil
}

func (f externalUpdatesOnlyFactory) DescribeConfiguration(basic interfaces.BasicConfiguration) interface{} {
	return ldvalue.ObjectBuild().
		Set("streamingDisabled", ldvalue.Bool(false)).
		Set("customBaseURI", ldvalue.Bool(false)).
		Set("customStreamURI", ldvalue.Bool(false)).
		Set("usingRelayDaemon", ldvalue.Bool(true)).
		Build()
}
