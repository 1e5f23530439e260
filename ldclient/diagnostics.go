package ldclient

import (
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcomponents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// allowedDiagnosticComponentProperties whitelists the properties a component's
// DescribeConfiguration() may contribute to the diagnostic init event, both by name and type, so
// that a custom component can't accidentally (or deliberately) leak arbitrary data.
var allowedDiagnosticComponentProperties = map[string]ldvalue.ValueType{
	"allAttributesPrivate":              ldvalue.BoolType,
	"connectTimeoutMillis":              ldvalue.NumberType,
	"customBaseURI":                     ldvalue.BoolType,
	"customEventsURI":                   ldvalue.BoolType,
	"customStreamURI":                   ldvalue.BoolType,
	"diagnosticRecordingIntervalMillis": ldvalue.NumberType,
	"eventsCapacity":                    ldvalue.NumberType,
	"eventsFlushIntervalMillis":         ldvalue.NumberType,
	"inlineUsersInEvents":               ldvalue.BoolType,
	"pollingIntervalMillis":             ldvalue.NumberType,
	"reconnectTimeMillis":               ldvalue.NumberType,
	"socketTimeoutMillis":               ldvalue.NumberType,
	"streamingDisabled":                 ldvalue.BoolType,
	"userKeysCapacity":                  ldvalue.NumberType,
	"userKeysFlushIntervalMillis":       ldvalue.NumberType,
	"usingProxy":                        ldvalue.BoolType,
	"usingRelayDaemon":                  ldvalue.BoolType,
}

func createDiagnosticsManager(sdkKey string, config Config, waitFor time.Duration) *ldevents.DiagnosticsManager {
	id := ldevents.NewDiagnosticID(sdkKey)
	basic := interfaces.BasicConfiguration{SDKKey: sdkKey, Offline: config.Offline}
	return ldevents.NewDiagnosticsManager(
		id,
		makeDiagnosticConfigData(config, basic, waitFor),
		makeDiagnosticSDKData(),
		time.Now(),
	)
}

func makeDiagnosticConfigData(config Config, basic interfaces.BasicConfiguration, waitFor time.Duration) ldvalue.Value {
	builder := ldvalue.ObjectBuild().
		Set("startWaitMillis", ldvalue.Int(int(waitFor/time.Millisecond)))

	mergeComponentProperties(builder, basic, config.HTTP, ldcomponents.HTTPConfiguration(), "")
	mergeComponentProperties(builder, basic, config.DataSource, ldcomponents.StreamingDataSource(), "")
	mergeComponentProperties(builder, basic, config.DataStore, ldcomponents.InMemoryDataStore(), "dataStoreType")
	mergeComponentProperties(builder, basic, config.Events, ldcomponents.SendEvents(), "")

	return builder.Build()
}

// mergeComponentProperties copies the subset of a component's self-description that is on the
// diagnostic allow-list. A component that doesn't implement DiagnosticDescription (an application's
// own custom factory, say) is reported as "custom" under defaultPropertyName when one is given, and
// contributes nothing otherwise.
func mergeComponentProperties(
	builder *ldvalue.ObjectBuilder,
	basic interfaces.BasicConfiguration,
	component interface{},
	defaultComponent interface{},
	defaultPropertyName string,
) {
	if component == nil {
		component = defaultComponent
	}
	dd, ok := component.(interfaces.DiagnosticDescription)
	if !ok {
		if defaultPropertyName != "" {
			builder.Set(defaultPropertyName, ldvalue.String("custom"))
		}
		return
	}
	desc, ok := dd.DescribeConfiguration(basic).(ldvalue.Value)
	if !ok || desc.IsNull() {
		return
	}
	if desc.Type() == ldvalue.StringType && defaultPropertyName != "" {
		builder.Set(defaultPropertyName, desc)
		return
	}
	if desc.Type() == ldvalue.ObjectType {
		for _, key := range desc.Keys() {
			if allowedType, isAllowed := allowedDiagnosticComponentProperties[key]; isAllowed {
				value, _ := desc.TryGetByKey(key)
				if value.IsNull() || value.Type() == allowedType {
					builder.Set(key, value)
				}
			}
		}
	}
}

func makeDiagnosticSDKData() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("name", ldvalue.String("go-server-sdk-sub010")).
		Set("version", ldvalue.String(Version)).
		Build()
}
