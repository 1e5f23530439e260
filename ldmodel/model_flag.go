// Package ldmodel defines the data model for feature flags and segments: the representation the
// SDK receives from the data source, stores in the data store, and evaluates against a context.
package ldmodel

import (
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// FeatureFlag describes a single feature flag's complete configuration as received from
// LaunchDarkly.
type FeatureFlag struct {
	Key                    string                      `json:"key"`
	Version                int                         `json:"version"`
	On                     bool                        `json:"on"`
	Prerequisites          []Prerequisite              `json:"prerequisites"`
	Targets                []Target                    `json:"targets,omitempty"`
	ContextTargets         []Target                    `json:"contextTargets,omitempty"`
	Rules                  []FlagRule                  `json:"rules"`
	Fallthrough            VariationOrRollout          `json:"fallthrough"`
	OffVariation           *int                        `json:"offVariation,omitempty"`
	Variations             []ldvalue.Value             `json:"variations"`
	ClientSide             bool                        `json:"clientSide,omitempty"`
	Salt                   string                      `json:"salt"`
	TrackEvents            bool                        `json:"trackEvents,omitempty"`
	TrackEventsFallthrough bool                        `json:"trackEventsFallthrough,omitempty"`
	DebugEventsUntilDate   *ldtime.UnixMillisecondTime `json:"debugEventsUntilDate,omitempty"`
	Deleted                bool                        `json:"deleted,omitempty"`
}

// GetKey returns the flag key. Implements ldevents.FlagEventProperties.
func (f *FeatureFlag) GetKey() string { return f.Key }

// GetVersion returns the flag version. Implements ldevents.FlagEventProperties.
func (f *FeatureFlag) GetVersion() int { return f.Version }

// IsFullEventTrackingEnabled returns true if every evaluation of this flag should produce a
// full feature event regardless of the reason. Implements ldevents.FlagEventProperties.
func (f *FeatureFlag) IsFullEventTrackingEnabled() bool { return f.TrackEvents }

// GetDebugEventsUntilDate returns the flag's debug-events expiration, or 0 if none.
// Implements ldevents.FlagEventProperties.
func (f *FeatureFlag) GetDebugEventsUntilDate() ldtime.UnixMillisecondTime {
	if f.DebugEventsUntilDate == nil {
		return 0
	}
	return *f.DebugEventsUntilDate
}

// IsExperimentationEnabled returns true if the given reason means a full feature event must be
// generated regardless of the flag-level trackEvents setting: the evaluation was part of an
// experiment rollout, the fallthrough was reached with trackEventsFallthrough set, or the matched
// rule has its own trackEvents flag. Implements ldevents.FlagEventProperties.
func (f *FeatureFlag) IsExperimentationEnabled(reason ldreason.EvaluationReason) bool {
	if reason.IsInExperiment() {
		return true
	}
	switch reason.GetKind() {
	case ldreason.EvalReasonFallthrough:
		return f.TrackEventsFallthrough
	case ldreason.EvalReasonRuleMatch:
		if i := reason.GetRuleIndex(); i >= 0 && i < len(f.Rules) {
			return f.Rules[i].TrackEvents
		}
	}
	return false
}

// Prerequisite describes a requirement that another flag must evaluate to a specific variation
// before this flag is considered "on" for the purposes of its own rules.
type Prerequisite struct {
	Key       string `json:"key"`
	Variation int    `json:"variation"`
}

// Target maps a single variation index to an explicit set of context keys of one kind that
// should receive that variation, independent of rules.
type Target struct {
	// ContextKind is the kind of context this target applies to. It is only populated for entries
	// that came from the flag's ContextTargets list; plain (legacy) Targets entries implicitly
	// apply to ldcontext.DefaultKind.
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	Values      []string       `json:"values"`
	Variation   int            `json:"variation"`
}

// FlagRule is an ordered set of clauses plus the variation or rollout to apply if every clause
// matches.
type FlagRule struct {
	ID          string   `json:"id,omitempty"`
	Clauses     []Clause `json:"clauses"`
	Variation   *int     `json:"variation,omitempty"`
	Rollout     *Rollout `json:"rollout,omitempty"`
	TrackEvents bool     `json:"trackEvents,omitempty"`
}

// GetVariationOrRollout returns the rule's variation-or-rollout configuration.
func (r *FlagRule) GetVariationOrRollout() VariationOrRollout {
	return VariationOrRollout{Variation: r.Variation, Rollout: r.Rollout}
}
