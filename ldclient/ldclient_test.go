package ldclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldeval"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

const boolFlagJSON = `{
	"key": "bool-flag",
	"version": 1,
	"on": true,
	"prerequisites": [],
	"rules": [],
	"fallthrough": {"variation": 1},
	"offVariation": 0,
	"variations": [false, true],
	"salt": "s"
}`

const clientSideFlagJSON = `{
	"key": "client-flag",
	"version": 1,
	"on": false,
	"prerequisites": [],
	"rules": [],
	"fallthrough": {"variation": 0},
	"offVariation": 0,
	"variations": ["off-value", "on-value"],
	"clientSide": true,
	"salt": "s"
}`

func newTestClient(t *testing.T, flags ...ldmodel.FeatureFlag) *LDClient {
	t.Helper()
	store := internal.NewInMemoryDataStore(ldlog.NewDefaultLoggers())
	items := make([]interfaces.StoreKeyedItemDescriptor, 0, len(flags))
	for i := range flags {
		f := flags[i]
		items = append(items, interfaces.StoreKeyedItemDescriptor{
			Key:  f.Key,
			Item: interfaces.StoreItemDescriptor{Version: f.Version, Item: &f},
		})
	}
	require.NoError(t, store.Init([]interfaces.StoreCollection{
		{Kind: interfaces.DataKindFeatures(), Items: items},
	}))

	dataProvider := internal.NewDataProvider(store)
	client := &LDClient{
		sdkKey:            "test-sdk-key",
		loggers:           ldlog.NewDefaultLoggers(),
		store:             store,
		evaluator:         ldeval.NewEvaluator(dataProvider, nil),
		dataSource:        internal.NewNullDataSource(),
		eventProcessor:    ldevents.NewNullEventProcessor(),
		eventsDefault:     newDisabledEventsScope(),
		eventsWithReasons: newDisabledEventsScope(),
	}
	return client
}

func mustParseFlag(t *testing.T, raw string) ldmodel.FeatureFlag {
	t.Helper()
	f, err := ldmodel.UnmarshalFeatureFlag([]byte(raw))
	require.NoError(t, err)
	return f
}

func TestBoolVariationReturnsStoredValue(t *testing.T) {
	client := newTestClient(t, mustParseFlag(t, boolFlagJSON))
	value, err := client.BoolVariation("bool-flag", ldcontext.New("u1"), false)
	require.NoError(t, err)
	assert.True(t, value)
}

func TestBoolVariationReturnsDefaultForUnknownFlag(t *testing.T) {
	client := newTestClient(t)
	value, err := client.BoolVariation("nonexistent", ldcontext.New("u1"), true)
	assert.Error(t, err)
	assert.True(t, value, "default value is returned even though an error is reported")
}

func TestStringVariationDetailReturnsWrongTypeError(t *testing.T) {
	client := newTestClient(t, mustParseFlag(t, boolFlagJSON))
	_, detail, err := client.StringVariationDetail("bool-flag", ldcontext.New("u1"), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", detail.Value.StringValue())
	assert.Equal(t, ldreason.EvalErrorWrongType, detail.Reason.GetErrorKind())
}

func TestSecureModeHashUsesFullyQualifiedKey(t *testing.T) {
	client := newTestClient(t)
	orgContext := ldcontext.Builder("o1").Kind("org").Build()
	defaultContext := ldcontext.New("o1")

	orgHash := client.SecureModeHash(orgContext)
	defaultHash := client.SecureModeHash(defaultContext)
	assert.NotEqual(t, orgHash, defaultHash, "hash must vary with context kind, not just key")
}

func TestAllFlagsStateReturnsAllStoredFlags(t *testing.T) {
	client := newTestClient(t, mustParseFlag(t, boolFlagJSON), mustParseFlag(t, clientSideFlagJSON))
	state := client.AllFlagsState(ldcontext.New("u1"))
	assert.True(t, state.IsValid())
	assert.Equal(t, ldvalue.Bool(true), state.GetValue("bool-flag"))
	assert.Equal(t, ldvalue.String("off-value"), state.GetValue("client-flag"))
}

func TestAllFlagsStateClientSideOnlyFiltersFlags(t *testing.T) {
	client := newTestClient(t, mustParseFlag(t, boolFlagJSON), mustParseFlag(t, clientSideFlagJSON))
	state := client.AllFlagsState(ldcontext.New("u1"), ClientSideOnly)
	assert.Equal(t, ldvalue.Null(), state.GetValue("bool-flag"))
	assert.Equal(t, ldvalue.String("off-value"), state.GetValue("client-flag"))
}

func TestAllFlagsStateInvalidForInvalidContext(t *testing.T) {
	client := newTestClient(t, mustParseFlag(t, boolFlagJSON))
	state := client.AllFlagsState(ldcontext.New(""))
	assert.False(t, state.IsValid())
}

func TestIsOfflineReflectsConstructionState(t *testing.T) {
	client := newTestClient(t)
	assert.False(t, client.IsOffline())
	client.offline = true
	assert.True(t, client.IsOffline())

	value, err := client.BoolVariation("bool-flag", ldcontext.New("u1"), true)
	require.NoError(t, err)
	assert.True(t, value, "offline evaluation always returns the default")
}
