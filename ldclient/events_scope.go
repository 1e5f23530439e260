package ldclient

import (
	"reflect"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcomponents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldeval"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// eventsScope bundles the event-related settings for one variation of the evaluation API: the
// plain Xxx/XxxVariation methods (no reasons in events) and the XxxVariationDetail methods
// (reasons included), each with their own prerequisite-event recorder bound to withReasons.
type eventsScope struct {
	disabled                  bool
	withReasons               bool
	prerequisiteEventRecorder ldeval.PrerequisiteFlagEventRecorder
}

// newDisabledEventsScope returns a scope for a client with analytics events turned off by
// NoEvents, whose recorder and SendEvent calls are always skipped.
func newDisabledEventsScope() eventsScope {
	return eventsScope{disabled: true}
}

// newEventsScope builds an eventsScope that records a feature event for every prerequisite flag
// evaluated along the way to the target flag, in addition to whatever event the caller itself
// sends for the target flag.
func newEventsScope(client *LDClient, withReasons bool) eventsScope {
	scope := eventsScope{withReasons: withReasons}
	scope.prerequisiteEventRecorder = func(event ldeval.PrerequisiteFlagEvent) {
		evt := ldevents.NewSuccessfulEvalEvent(
			event.PrerequisiteFlag,
			event.Context,
			event.PrerequisiteResult,
			ldvalue.Null(),
			event.TargetFlagKey,
			withReasons,
			ldtime.UnixMillisNow(),
		)
		client.eventProcessor.SendEvent(evt)
	}
	return scope
}

// isNullEventProcessorFactory reports whether factory is ldcomponents.NoEvents(), which has no
// exported type to compare against directly.
func isNullEventProcessorFactory(factory interfaces.EventProcessorFactory) bool {
	return reflect.TypeOf(factory) == reflect.TypeOf(ldcomponents.NoEvents())
}

// getEventProcessorFactory returns the configured event processor factory, defaulting to
// ldcomponents.SendEvents().
func getEventProcessorFactory(config Config) interfaces.EventProcessorFactory {
	if config.Events == nil {
		return ldcomponents.SendEvents()
	}
	return config.Events
}
