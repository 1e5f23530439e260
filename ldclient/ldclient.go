package ldclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcomponents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldeval"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// Version is the client version reported in the User-Agent header and diagnostic events.
const Version = "1.0.0"

// Initialization errors returned by MakeClient/MakeCustomClient.
var (
	ErrInitializationTimeout = errors.New("timeout encountered waiting for LaunchDarkly client initialization")
	ErrInitializationFailed  = errors.New("LaunchDarkly client initialization failed")
	ErrClientNotInitialized  = errors.New("feature flag evaluation called before LaunchDarkly client initialization completed")
)

// bigSegmentCloser is satisfied by the internal big-segment store manager; it is declared here,
// rather than depending on the manager's unexported type directly, since internal.NewBigSegmentStoreManager
// returns an unexported type.
type bigSegmentCloser interface {
	Close()
}

// LDClient is the LaunchDarkly client. An application should create a single instance for the
// lifetime of the program; it is safe for concurrent use by multiple goroutines.
type LDClient struct {
	sdkKey                      string
	loggers                     ldlog.Loggers
	eventProcessor              ldevents.EventProcessor
	dataSource                  interfaces.DataSource
	store                       interfaces.DataStore
	evaluator                   ldeval.Evaluator
	bigSegmentStoreManager      bigSegmentCloser
	bigSegmentStatusProvider    interfaces.BigSegmentStoreStatusProvider
	dataSourceStatusBroadcaster *internal.DataSourceStatusBroadcaster
	dataSourceStatusProvider    interfaces.DataSourceStatusProvider
	dataStoreStatusBroadcaster  *internal.DataStoreStatusBroadcaster
	dataStoreStatusProvider     interfaces.DataStoreStatusProvider
	flagChangeEventBroadcaster  *internal.FlagChangeEventBroadcaster
	flagTracker                 interfaces.FlagTracker
	eventsDefault               eventsScope
	eventsWithReasons           eventsScope
	logEvaluationErrors         bool
	offline                     bool
	closeOnce                   sync.Once
}

// MakeClient creates a new client instance with the default configuration, and blocks until
// either initialization succeeds, the waitFor timeout expires, or initialization irrecoverably
// fails.
//
// For advanced configuration options, use MakeCustomClient.
func MakeClient(sdkKey string, waitFor time.Duration) (*LDClient, error) {
	return MakeCustomClient(sdkKey, Config{}, waitFor)
}

// MakeCustomClient creates a new client instance with a custom configuration.
//
// Unless the client is offline (Config.Offline, or a data source of ldcomponents.ExternalUpdatesOnly()),
// it begins connecting to LaunchDarkly immediately. This constructor returns as soon as the data
// source reports ready, or when waitFor elapses, whichever comes first. If waitFor elapses first,
// the client is returned in a not-yet-initialized state, in which evaluations return default
// values; the data source keeps trying to connect in the background, and Initialized() can be
// polled, or GetDataSourceStatusProvider().WaitFor used, to detect when it succeeds.
func MakeCustomClient(sdkKey string, config Config, waitFor time.Duration) (*LDClient, error) {
	closeWhenReady := make(chan struct{})

	eventProcessorFactory := getEventProcessorFactory(config)

	var diagnosticsManager *ldevents.DiagnosticsManager
	if !config.DiagnosticOptOut && !config.Offline {
		if reflect.TypeOf(eventProcessorFactory) == reflect.TypeOf(ldcomponents.SendEvents()) {
			diagnosticsManager = createDiagnosticsManager(sdkKey, config, waitFor)
		}
	}

	clientContext, err := newClientContextFromConfig(sdkKey, config, diagnosticsManager)
	if err != nil {
		return nil, err
	}

	loggers := clientContext.GetLogging().Loggers
	loggers.Infof("Starting LaunchDarkly client %s", Version)

	client := &LDClient{
		sdkKey:              sdkKey,
		loggers:             loggers,
		logEvaluationErrors: clientContext.GetLogging().LogEvaluationErrors,
		offline:             config.Offline,
	}

	client.dataStoreStatusBroadcaster = internal.NewDataStoreStatusBroadcaster()
	dataStoreUpdates := internal.NewDataStoreUpdatesImpl(client.dataStoreStatusBroadcaster)
	store, err := getDataStoreFactory(config).CreateDataStore(clientContext, dataStoreUpdates)
	if err != nil {
		return nil, err
	}
	client.store = store
	client.dataStoreStatusProvider = internal.NewDataStoreStatusProviderImpl(store, dataStoreUpdates)

	bigSegmentsBroadcaster := internal.NewBigSegmentStoreStatusBroadcaster()
	var bigSegmentProvider ldeval.BigSegmentProvider
	if config.BigSegments != nil {
		bsConfig, err := config.BigSegments.CreateBigSegmentsConfiguration(clientContext)
		if err != nil {
			return nil, err
		}
		manager := internal.NewBigSegmentStoreManager(bsConfig, bigSegmentsBroadcaster, loggers)
		client.bigSegmentStoreManager = manager
		client.bigSegmentStatusProvider = internal.NewBigSegmentStoreStatusProviderImpl(manager, bigSegmentsBroadcaster)
		bigSegmentProvider = manager
	}

	dataProvider := internal.NewDataProvider(store)
	client.evaluator = ldeval.NewEvaluator(dataProvider, bigSegmentProvider)

	client.dataSourceStatusBroadcaster = internal.NewDataSourceStatusBroadcaster()
	client.flagChangeEventBroadcaster = internal.NewFlagChangeEventBroadcaster()
	dataSourceUpdates := internal.NewDataSourceUpdatesImpl(
		store,
		client.dataStoreStatusProvider,
		client.dataSourceStatusBroadcaster,
		client.flagChangeEventBroadcaster,
		clientContext.GetLogging().LogDataSourceOutageAsErrorAfter,
		loggers,
	)

	client.eventProcessor, err = eventProcessorFactory.CreateEventProcessor(clientContext)
	if err != nil {
		return nil, err
	}
	if isNullEventProcessorFactory(eventProcessorFactory) {
		client.eventsDefault = newDisabledEventsScope()
		client.eventsWithReasons = newDisabledEventsScope()
	} else {
		client.eventsDefault = newEventsScope(client, false)
		client.eventsWithReasons = newEventsScope(client, true)
	}

	dataSource, err := createDataSource(config, clientContext, dataSourceUpdates)
	if err != nil {
		return nil, err
	}
	client.dataSource = dataSource
	client.dataSourceStatusProvider = internal.NewDataSourceStatusProviderImpl(
		client.dataSourceStatusBroadcaster,
		dataSourceUpdates,
	)

	client.flagTracker = internal.NewFlagTrackerImpl(
		client.flagChangeEventBroadcaster,
		func(flagKey string, evalContext ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value {
			value, _ := client.JSONVariation(flagKey, evalContext, defaultValue)
			return value
		},
	)

	client.dataSource.Start(closeWhenReady)
	if waitFor > 0 {
		loggers.Infof("Waiting up to %d milliseconds for LaunchDarkly client to start...",
			waitFor/time.Millisecond)
		timeout := time.After(waitFor)
		select {
		case <-closeWhenReady:
			if !client.dataSource.IsInitialized() {
				loggers.Warn("LaunchDarkly client initialization failed")
				return client, ErrInitializationFailed
			}
			loggers.Info("Successfully initialized LaunchDarkly client!")
			return client, nil
		case <-timeout:
			loggers.Warn("Timeout encountered waiting for LaunchDarkly client initialization")
			go func() { <-closeWhenReady }()
			return client, ErrInitializationTimeout
		}
	}
	go func() { <-closeWhenReady }()
	return client, nil
}

func getDataStoreFactory(config Config) interfaces.DataStoreFactory {
	if config.DataStore == nil {
		return ldcomponents.InMemoryDataStore()
	}
	return config.DataStore
}

func createDataSource(
	config Config,
	context interfaces.ClientContext,
	dataSourceUpdates interfaces.DataSourceUpdates,
) (interfaces.DataSource, error) {
	if config.Offline {
		loggers := context.GetLogging().Loggers
		loggers.Info("Starting LaunchDarkly client in offline mode")
		dataSourceUpdates.UpdateStatus(interfaces.DataSourceStateValid, interfaces.DataSourceErrorInfo{})
		return internal.NewNullDataSource(), nil
	}
	factory := config.DataSource
	if factory == nil {
		factory = ldcomponents.StreamingDataSource()
	}
	return factory.CreateDataSource(context, dataSourceUpdates)
}

// Identify reports details about an evaluation context, so that the context appears on the
// LaunchDarkly dashboard even if no flag has been evaluated for it yet.
func (client *LDClient) Identify(evalContext ldcontext.Context) error {
	if client.eventsDefault.disabled {
		return nil
	}
	if err := evalContext.Err(); err != nil {
		client.loggers.Warnf("Identify called with invalid context: %s", err)
		return nil
	}
	client.eventProcessor.SendEvent(ldevents.IdentifyEvent{
		BaseEvent: ldevents.BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: evalContext},
	})
	return nil
}

// TrackEvent reports that a context has performed an event, identified by eventName, with no
// associated data. See TrackData and TrackMetric for variants that attach data or a metric value.
func (client *LDClient) TrackEvent(eventName string, evalContext ldcontext.Context) error {
	return client.TrackData(eventName, evalContext, ldvalue.Null())
}

// TrackData reports that a context has performed an event, and attaches arbitrary JSON data to it.
func (client *LDClient) TrackData(eventName string, evalContext ldcontext.Context, data ldvalue.Value) error {
	return client.trackInternal(eventName, evalContext, data, false, 0)
}

// TrackMetric reports that a context has performed an event, and attaches both arbitrary JSON
// data and a numeric value used by LaunchDarkly's experimentation feature.
func (client *LDClient) TrackMetric(
	eventName string,
	evalContext ldcontext.Context,
	metricValue float64,
	data ldvalue.Value,
) error {
	return client.trackInternal(eventName, evalContext, data, true, metricValue)
}

func (client *LDClient) trackInternal(
	eventName string,
	evalContext ldcontext.Context,
	data ldvalue.Value,
	hasMetric bool,
	metricValue float64,
) error {
	if client.eventsDefault.disabled {
		return nil
	}
	if err := evalContext.Err(); err != nil {
		client.loggers.Warnf("Track called with invalid context: %s", err)
		return nil
	}
	client.eventProcessor.SendEvent(ldevents.CustomEvent{
		BaseEvent:   ldevents.BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: evalContext},
		Key:         eventName,
		Data:        data,
		HasMetric:   hasMetric,
		MetricValue: metricValue,
	})
	return nil
}

// IsOffline returns whether the client was configured to be completely offline.
func (client *LDClient) IsOffline() bool {
	return client.offline
}

// SecureModeHash computes an HMAC signature of a context's fully-qualified key using the SDK key,
// for use with front-end SDKs' secure mode feature. The fully-qualified key encodes the context
// kind for non-default kinds (and for multi-kind contexts), matching what the JavaScript SDK
// computes client-side.
func (client *LDClient) SecureModeHash(evalContext ldcontext.Context) string {
	h := hmac.New(sha256.New, []byte(client.sdkKey))
	_, _ = h.Write([]byte(evalContext.FullyQualifiedKey()))
	return hex.EncodeToString(h.Sum(nil))
}

// Initialized returns true once the data source has successfully received (or been seeded with)
// an initial data set.
func (client *LDClient) Initialized() bool {
	return client.dataSource.IsInitialized()
}

// Close shuts down the client. Pending analytics events are flushed before this returns. After
// calling Close, the client should not be used again. It is safe to call more than once.
func (client *LDClient) Close() error {
	var err error
	client.closeOnce.Do(func() {
		client.loggers.Info("Closing LaunchDarkly client")
		_ = client.eventProcessor.Close()
		err = client.dataSource.Close()
		_ = client.store.Close()
		if client.bigSegmentStoreManager != nil {
			client.bigSegmentStoreManager.Close()
		}
		client.dataSourceStatusBroadcaster.Close()
		client.dataStoreStatusBroadcaster.Close()
		client.flagChangeEventBroadcaster.Close()
	})
	return err
}

// Flush tells the client to deliver any buffered analytics events as soon as possible, without
// waiting for the next automatic flush interval. It does not block until delivery completes; call
// Close to guarantee that.
func (client *LDClient) Flush() {
	client.eventProcessor.Flush()
}

// GetDataSourceStatusProvider returns an interface for querying and subscribing to the status of
// the data source (the streaming or polling connection, or an external-updates placeholder).
func (client *LDClient) GetDataSourceStatusProvider() interfaces.DataSourceStatusProvider {
	return client.dataSourceStatusProvider
}

// GetDataStoreStatusProvider returns an interface for querying and subscribing to the status of
// the data store. This is only meaningful for a persistent data store; an in-memory store always
// reports itself as available.
func (client *LDClient) GetDataStoreStatusProvider() interfaces.DataStoreStatusProvider {
	return client.dataStoreStatusProvider
}

// GetBigSegmentStoreStatusProvider returns an interface for querying and subscribing to the
// status of the big segment store, or nil if big segments were not configured.
func (client *LDClient) GetBigSegmentStoreStatusProvider() interfaces.BigSegmentStoreStatusProvider {
	return client.bigSegmentStatusProvider
}

// GetFlagTracker returns an interface for subscribing to feature flag configuration changes.
func (client *LDClient) GetFlagTracker() interfaces.FlagTracker {
	return client.flagTracker
}

// AllFlagsState returns an object that encapsulates the state of every feature flag for a given
// context, including the flag values and metadata usable by front-end code. Pass any combination
// of ClientSideOnly, WithReasons, and DetailsOnlyForTrackedFlags to control what data is included.
//
// The most common use case for this method is to bootstrap a set of client-side feature flags
// from a back-end service.
func (client *LDClient) AllFlagsState(evalContext ldcontext.Context, options ...FlagsStateOption) FeatureFlagsState {
	valid := true
	if client.IsOffline() {
		client.loggers.Warn("Called AllFlagsState in offline mode. Returning empty state")
		valid = false
	} else if !client.Initialized() {
		if client.store.IsInitialized() {
			client.loggers.Warn("Called AllFlagsState before client initialization; using last known values from data store")
		} else {
			client.loggers.Warn("Called AllFlagsState before client initialization. Data store not available; returning empty state")
			valid = false
		}
	}

	if !valid {
		return FeatureFlagsState{valid: false}
	}

	if err := evalContext.Err(); err != nil {
		client.loggers.Warnf("AllFlagsState called with invalid context: %s", err)
		return FeatureFlagsState{valid: false}
	}

	items, err := client.store.GetAll(interfaces.DataKindFeatures())
	if err != nil {
		client.loggers.Warn("Unable to fetch flags from data store. Returning empty state. Error: " + err.Error())
		return FeatureFlagsState{valid: false}
	}

	state := newFeatureFlagsState()
	clientSideOnly := hasFlagsStateOption(options, ClientSideOnly)
	withReasons := hasFlagsStateOption(options, WithReasons)
	detailsOnlyIfTracked := hasFlagsStateOption(options, DetailsOnlyForTrackedFlags)
	for _, item := range items {
		flag, ok := item.Item.Item.(*ldmodel.FeatureFlag)
		if !ok || flag == nil {
			continue
		}
		if clientSideOnly && !flag.ClientSide {
			continue
		}
		result := client.evaluator.Evaluate(flag, evalContext, nil)
		var reason ldreason.EvaluationReason
		if withReasons {
			reason = result.Reason
		}
		state.addFlag(*flag, result.Value, result.VariationIndex, reason, detailsOnlyIfTracked)
	}

	return state
}

// BoolVariation returns the value of a boolean feature flag for the given context, or defaultVal
// if the flag doesn't exist, the value is of the wrong type, or an error occurs.
func (client *LDClient) BoolVariation(key string, evalContext ldcontext.Context, defaultVal bool) (bool, error) {
	detail, err := client.variation(key, evalContext, ldvalue.Bool(defaultVal), true, false)
	return detail.Value.BoolValue(), err
}

// BoolVariationDetail is the same as BoolVariation, but also returns an EvaluationDetail
// explaining how the value was computed. The reason is also attached to the analytics event.
func (client *LDClient) BoolVariationDetail(
	key string, evalContext ldcontext.Context, defaultVal bool,
) (bool, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, evalContext, ldvalue.Bool(defaultVal), true, true)
	return detail.Value.BoolValue(), detail, err
}

// IntVariation returns the value of a flag (expected to be numeric) as an int, truncating toward
// zero if the stored value has a fractional part.
func (client *LDClient) IntVariation(key string, evalContext ldcontext.Context, defaultVal int) (int, error) {
	detail, err := client.variation(key, evalContext, ldvalue.Int(defaultVal), true, false)
	return detail.Value.IntValue(), err
}

// IntVariationDetail is the same as IntVariation, but also returns an EvaluationDetail.
func (client *LDClient) IntVariationDetail(
	key string, evalContext ldcontext.Context, defaultVal int,
) (int, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, evalContext, ldvalue.Int(defaultVal), true, true)
	return detail.Value.IntValue(), detail, err
}

// Float64Variation returns the value of a flag (expected to be numeric) as a float64.
func (client *LDClient) Float64Variation(key string, evalContext ldcontext.Context, defaultVal float64) (float64, error) {
	detail, err := client.variation(key, evalContext, ldvalue.Float64(defaultVal), true, false)
	return detail.Value.Float64Value(), err
}

// Float64VariationDetail is the same as Float64Variation, but also returns an EvaluationDetail.
func (client *LDClient) Float64VariationDetail(
	key string, evalContext ldcontext.Context, defaultVal float64,
) (float64, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, evalContext, ldvalue.Float64(defaultVal), true, true)
	return detail.Value.Float64Value(), detail, err
}

// StringVariation returns the value of a flag (expected to be a string) for the given context.
func (client *LDClient) StringVariation(key string, evalContext ldcontext.Context, defaultVal string) (string, error) {
	detail, err := client.variation(key, evalContext, ldvalue.String(defaultVal), true, false)
	return detail.Value.StringValue(), err
}

// StringVariationDetail is the same as StringVariation, but also returns an EvaluationDetail.
func (client *LDClient) StringVariationDetail(
	key string, evalContext ldcontext.Context, defaultVal string,
) (string, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, evalContext, ldvalue.String(defaultVal), true, true)
	return detail.Value.StringValue(), detail, err
}

// JSONVariation returns the value of a flag for the given context as an ldvalue.Value, allowing
// any JSON type. Type-checking against defaultVal is skipped.
func (client *LDClient) JSONVariation(
	key string, evalContext ldcontext.Context, defaultVal ldvalue.Value,
) (ldvalue.Value, error) {
	detail, err := client.variation(key, evalContext, defaultVal, false, false)
	return detail.Value, err
}

// JSONVariationDetail is the same as JSONVariation, but also returns an EvaluationDetail.
func (client *LDClient) JSONVariationDetail(
	key string, evalContext ldcontext.Context, defaultVal ldvalue.Value,
) (ldvalue.Value, ldreason.EvaluationDetail, error) {
	detail, err := client.variation(key, evalContext, defaultVal, false, true)
	return detail.Value, detail, err
}

func (client *LDClient) variation(
	key string,
	evalContext ldcontext.Context,
	defaultVal ldvalue.Value,
	checkType bool,
	sendReasonsInEvents bool,
) (ldreason.EvaluationDetail, error) {
	if client.IsOffline() {
		return newEvaluationError(defaultVal, ldreason.EvalErrorClientNotReady), nil
	}
	scope := client.eventsDefault
	if sendReasonsInEvents {
		scope = client.eventsWithReasons
	}
	result, flag, err := client.evaluateInternal(key, evalContext, defaultVal, scope)
	if err != nil {
		result.Value = defaultVal
		result.VariationIndex = ldreason.NoVariation
	} else if checkType && defaultVal.Type() != ldvalue.NullType && result.Value.Type() != defaultVal.Type() {
		result = newEvaluationError(defaultVal, ldreason.EvalErrorWrongType)
	}

	if !scope.disabled {
		var evt ldevents.FeatureRequestEvent
		now := ldtime.UnixMillisNow()
		if flag == nil {
			evt = ldevents.NewUnknownFlagEvalEvent(key, evalContext, defaultVal, result.Reason, scope.withReasons, now)
		} else {
			evt = ldevents.NewSuccessfulEvalEvent(flag, evalContext, result, defaultVal, "", scope.withReasons, now)
		}
		client.eventProcessor.SendEvent(evt)
	}

	return result, err
}

func (client *LDClient) evaluateInternal(
	key string,
	evalContext ldcontext.Context,
	defaultVal ldvalue.Value,
	scope eventsScope,
) (ldreason.EvaluationDetail, *ldmodel.FeatureFlag, error) {
	evalErrorResult := func(errKind ldreason.EvalErrorKind, err error) (ldreason.EvaluationDetail, *ldmodel.FeatureFlag, error) {
		detail := newEvaluationError(defaultVal, errKind)
		if client.logEvaluationErrors {
			client.loggers.Warn(err)
		}
		return detail, nil, err
	}

	if err := evalContext.Err(); err != nil {
		client.loggers.Warnf("Invalid context when evaluating flag %q: %s", key, err)
		return evalErrorResult(ldreason.EvalErrorUserNotSpecified, err)
	}

	if !client.Initialized() {
		if client.store.IsInitialized() {
			client.loggers.Warn(
				"Feature flag evaluation called before LaunchDarkly client initialization completed; using last known values from data store")
		} else {
			return evalErrorResult(ldreason.EvalErrorClientNotReady, ErrClientNotInitialized)
		}
	}

	itemDesc, storeErr := client.store.Get(interfaces.DataKindFeatures(), key)
	if storeErr != nil {
		client.loggers.Errorf("Encountered error fetching feature from store: %+v", storeErr)
		return evalErrorResult(ldreason.EvalErrorException, storeErr)
	}
	if itemDesc.Item == nil {
		return evalErrorResult(ldreason.EvalErrorFlagNotFound,
			fmt.Errorf("unknown feature key: %s; verify that this feature key exists", key))
	}
	flag, ok := itemDesc.Item.(*ldmodel.FeatureFlag)
	if !ok {
		return evalErrorResult(ldreason.EvalErrorException,
			fmt.Errorf("unexpected data type (%T) found in store for feature key: %s", itemDesc.Item, key))
	}

	detail := client.evaluator.Evaluate(flag, evalContext, scope.prerequisiteEventRecorder)
	if detail.Reason.GetKind() == ldreason.EvalReasonError && client.logEvaluationErrors {
		client.loggers.Warnf("flag evaluation for %s failed with error %s, default value was returned",
			key, detail.Reason.GetErrorKind())
	}
	if detail.IsDefaultValue() {
		detail.Value = defaultVal
		detail.VariationIndex = ldreason.NoVariation
	}
	return detail, flag, nil
}

func newEvaluationError(value ldvalue.Value, errorKind ldreason.EvalErrorKind) ldreason.EvaluationDetail {
	return ldreason.EvaluationDetail{
		Value:          value,
		VariationIndex: ldreason.NoVariation,
		Reason:         ldreason.NewEvalReasonError(errorKind),
	}
}
