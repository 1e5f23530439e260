// Package ldevents implements the analytics event pipeline: deduplication of context-identify
// events, summarization of repeated flag evaluations, bounded buffering, and asynchronous HTTP
// delivery with one retry. It has no dependency on the flag/segment data model so it can be
// reused by any SDK component that produces events.
package ldevents

import (
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// Event is implemented by every event type the pipeline accepts from SendEvent.
type Event interface {
	GetBase() BaseEvent
}

// BaseEvent holds the fields common to every event type.
type BaseEvent struct {
	CreationDate ldtime.UnixMillisecondTime
	Context      ldcontext.Context
}

// GetBase implements Event.
func (b BaseEvent) GetBase() BaseEvent { return b }

// FlagEventProperties abstracts the flag data the event pipeline needs (key, version, tracking
// flags) without depending on ldmodel directly, so the pipeline does not change when the data
// model does.
type FlagEventProperties interface {
	GetKey() string
	GetVersion() int
	IsFullEventTrackingEnabled() bool
	GetDebugEventsUntilDate() ldtime.UnixMillisecondTime
	IsExperimentationEnabled(reason ldreason.EvaluationReason) bool
}

// FeatureRequestEvent corresponds to the wire "feature" (or "debug") event: one evaluation of one
// flag for one context.
type FeatureRequestEvent struct {
	BaseEvent
	Key                  string
	Value                ldvalue.Value
	Default              ldvalue.Value
	Variation            ldreason.EvaluationDetail
	Version              int
	PrereqOf             string
	TrackEvents          bool
	Debug                bool
	DebugEventsUntilDate ldtime.UnixMillisecondTime
	Reason               ldreason.EvaluationReason
	IncludeReason        bool
}

// NewSuccessfulEvalEvent builds a FeatureRequestEvent for a flag that was found in the data store.
func NewSuccessfulEvalEvent(
	flag FlagEventProperties,
	context ldcontext.Context,
	detail ldreason.EvaluationDetail,
	defaultVal ldvalue.Value,
	prereqOf string,
	includeReason bool,
	creationDate ldtime.UnixMillisecondTime,
) FeatureRequestEvent {
	requireFullEvent := flag.IsFullEventTrackingEnabled() || flag.IsExperimentationEnabled(detail.Reason)
	return FeatureRequestEvent{
		BaseEvent:            BaseEvent{CreationDate: creationDate, Context: context},
		Key:                  flag.GetKey(),
		Value:                detail.Value,
		Default:              defaultVal,
		Variation:            detail,
		Version:              flag.GetVersion(),
		PrereqOf:             prereqOf,
		TrackEvents:          requireFullEvent,
		DebugEventsUntilDate: flag.GetDebugEventsUntilDate(),
		Reason:               detail.Reason,
		IncludeReason:        includeReason || requireFullEvent,
	}
}

// NewUnknownFlagEvalEvent builds a FeatureRequestEvent for a flag key that did not exist, so the
// default value is reported with no version/variation.
func NewUnknownFlagEvalEvent(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
	reason ldreason.EvaluationReason,
	includeReason bool,
	creationDate ldtime.UnixMillisecondTime,
) FeatureRequestEvent {
	return FeatureRequestEvent{
		BaseEvent:     BaseEvent{CreationDate: creationDate, Context: context},
		Key:           key,
		Value:         defaultVal,
		Default:       defaultVal,
		Variation:     ldreason.NewEvaluationDetail(defaultVal, ldreason.NoVariation, reason),
		Reason:        reason,
		IncludeReason: includeReason,
	}
}

// IdentifyEvent corresponds to the wire "identify" event.
type IdentifyEvent struct {
	BaseEvent
}

// CustomEvent corresponds to the wire "custom" event.
type CustomEvent struct {
	BaseEvent
	Key         string
	Data        ldvalue.Value
	HasMetric   bool
	MetricValue float64
}

// IndexEvent corresponds to the wire "index" event: a one-time full context payload.
type IndexEvent struct {
	BaseEvent
}
