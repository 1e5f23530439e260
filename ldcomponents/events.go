package ldcomponents

import (
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// DefaultEventsURI is the default base URI for the events service.
const DefaultEventsURI = "https://events.launchdarkly.com"

// EventProcessorBuilder configures how analytics events are buffered and delivered.
//
//	config := ld.Config{
//	    Events: ldcomponents.SendEvents().Capacity(5000).FlushInterval(10 * time.Second),
//	}
type EventProcessorBuilder struct {
	capacity                 int
	flushInterval            time.Duration
	contextKeysCapacity      int
	contextKeysFlushInterval time.Duration
	inlineContextsInEvents   bool
	allAttributesPrivate     bool
	privateAttributeNames    []string
	eventsURI                string
}

// SendEvents returns a configuration builder for sending analytics events to LaunchDarkly, using
// default buffering and flush settings.
func SendEvents() *EventProcessorBuilder {
	return &EventProcessorBuilder{
		capacity:                 ldevents.DefaultCapacity,
		flushInterval:            ldevents.DefaultFlushInterval,
		contextKeysCapacity:      ldevents.DefaultContextKeysCapacity,
		contextKeysFlushInterval: ldevents.DefaultContextKeysFlushInterval,
		eventsURI:                DefaultEventsURI,
	}
}

// Capacity sets the maximum number of events buffered between flushes. Once the buffer is full,
// further events are dropped until the next flush.
func (b *EventProcessorBuilder) Capacity(capacity int) *EventProcessorBuilder {
	b.capacity = capacity
	return b
}

// FlushInterval sets how often the event processor delivers buffered events to LaunchDarkly.
func (b *EventProcessorBuilder) FlushInterval(interval time.Duration) *EventProcessorBuilder {
	b.flushInterval = interval
	return b
}

// BaseURI sets a custom base URI for the events service.
func (b *EventProcessorBuilder) BaseURI(uri string) *EventProcessorBuilder {
	if uri == "" {
		b.eventsURI = DefaultEventsURI
	} else {
		b.eventsURI = uri
	}
	return b
}

// AllAttributesPrivate sets whether all context attributes (except key) should be omitted from
// indexed events and replaced with a redaction marker.
func (b *EventProcessorBuilder) AllAttributesPrivate(value bool) *EventProcessorBuilder {
	b.allAttributesPrivate = value
	return b
}

// PrivateAttributeNames adds attribute names that should always be considered private, in
// addition to any attributes marked private on individual contexts.
func (b *EventProcessorBuilder) PrivateAttributeNames(names ...string) *EventProcessorBuilder {
	b.privateAttributeNames = append(b.privateAttributeNames, names...)
	return b
}

// InlineUsersInEvents sets whether to include the full evaluation context, rather than just its
// key, in each feature request event.
func (b *EventProcessorBuilder) InlineUsersInEvents(value bool) *EventProcessorBuilder {
	b.inlineContextsInEvents = value
	return b
}

// ContextKeysCapacity sets the number of recently seen context keys that are tracked for event
// deduplication purposes.
func (b *EventProcessorBuilder) ContextKeysCapacity(capacity int) *EventProcessorBuilder {
	b.contextKeysCapacity = capacity
	return b
}

// ContextKeysFlushInterval sets how often the deduplication cache of context keys is cleared.
func (b *EventProcessorBuilder) ContextKeysFlushInterval(interval time.Duration) *EventProcessorBuilder {
	b.contextKeysFlushInterval = interval
	return b
}

// CreateEventProcessor is called internally by the SDK.
func (b *EventProcessorBuilder) CreateEventProcessor(
	context interfaces.ClientContext,
) (ldevents.EventProcessor, error) {
	if context.GetBasic().Offline {
		return ldevents.NewNullEventProcessor(), nil
	}

	httpConfig := context.GetHTTP()
	sender := ldevents.NewServerSideEventSender(
		httpConfig.CreateHTTPClient(),
		context.GetBasic().SDKKey,
		b.eventsURI,
		httpConfig.GetDefaultHeaders(),
		context.GetLogging().Loggers,
	)

	var diagnosticsManager *ldevents.DiagnosticsManager
	if hdm, ok := context.(interface {
		GetDiagnosticsManager() *ldevents.DiagnosticsManager
	}); ok {
		diagnosticsManager = hdm.GetDiagnosticsManager()
	}

	config := ldevents.EventsConfiguration{
		Capacity:                    b.capacity,
		FlushInterval:               b.flushInterval,
		ContextKeysCapacity:         b.contextKeysCapacity,
		ContextKeysFlushInterval:    b.contextKeysFlushInterval,
		InlineContextsInEvents:      b.inlineContextsInEvents,
		AllAttributesPrivate:        b.allAttributesPrivate,
		PrivateAttributeNames:       b.privateAttributeNames,
		EventSender:                 sender,
		DiagnosticsManager:          diagnosticsManager,
		DiagnosticRecordingInterval: ldevents.DefaultDiagnosticRecordingInterval,
		Loggers:                     context.GetLogging().Loggers,
		LogContextKeyInErrors:       context.GetLogging().LogContextKeyInErrors,
	}
	return ldevents.NewDefaultEventProcessor(config), nil
}

// DescribeConfiguration is used internally by the SDK diagnostic event logic.
func (b *EventProcessorBuilder) DescribeConfiguration(basic interfaces.BasicConfiguration) interface{} {
	return ldvalue.ObjectBuild().
		Set("allAttributesPrivate", ldvalue.Bool(b.allAttributesPrivate)).
		Set("customEventsURI", ldvalue.Bool(b.eventsURI != DefaultEventsURI)).
		Set("diagnosticRecordingIntervalMillis", durationToMillisValue(ldevents.DefaultDiagnosticRecordingInterval)).
		Set("eventsCapacity", ldvalue.Int(b.capacity)).
		Set("eventsFlushIntervalMillis", durationToMillisValue(b.flushInterval)).
		Set("inlineUsersInEvents", ldvalue.Bool(b.inlineContextsInEvents)).
		Set("samplingInterval", ldvalue.Int(0)).
		Set("userKeysCapacity", ldvalue.Int(b.contextKeysCapacity)).
		Set("userKeysFlushIntervalMillis", durationToMillisValue(b.contextKeysFlushInterval)).
		Build()
}

// NoEvents returns a configuration factory that disables analytics event delivery entirely.
func NoEvents() interfaces.EventProcessorFactory {
	return noEventsFactory{}
}

type noEventsFactory struct{}

func (f noEventsFactory) CreateEventProcessor(context interfaces.ClientContext) (ldevents.EventProcessor, error) {
	return ldevents.NewNullEventProcessor(), nil
}
