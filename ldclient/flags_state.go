package ldclient

import (
	"encoding/json"

	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// FlagsStateOption is an optional parameter to LDClient.AllFlagsState, controlling which
// information is included in the returned FeatureFlagsState.
type FlagsStateOption interface {
	flagsStateOption()
}

type flagsStateOptionValue int

func (flagsStateOptionValue) flagsStateOption() {}

const (
	clientSideOnlyOption flagsStateOptionValue = iota
	withReasonsOption
	detailsOnlyForTrackedFlagsOption
)

var (
	// ClientSideOnly restricts AllFlagsState to flags that have been marked for use by
	// client-side (JavaScript) SDKs.
	ClientSideOnly FlagsStateOption = clientSideOnlyOption
	// WithReasons includes the evaluation reason for each flag in the returned state.
	WithReasons FlagsStateOption = withReasonsOption
	// DetailsOnlyForTrackedFlags omits the evaluation reason for flags that have event tracking
	// and debugging disabled and are not in an experiment, reducing payload size.
	DetailsOnlyForTrackedFlags FlagsStateOption = detailsOnlyForTrackedFlagsOption
)

func hasFlagsStateOption(options []FlagsStateOption, target FlagsStateOption) bool {
	for _, o := range options {
		if o == target {
			return true
		}
	}
	return false
}

// flagMetadata holds the per-flag fields serialized alongside its value under "$flagsState".
type flagMetadata struct {
	Variation            *int                       `json:"variation,omitempty"`
	Version              int                        `json:"version,omitempty"`
	Reason               *ldreason.EvaluationReason `json:"reason,omitempty"`
	TrackEvents          bool                       `json:"trackEvents,omitempty"`
	TrackReason          bool                       `json:"trackReason,omitempty"`
	DebugEventsUntilDate ldtime.UnixMillisecondTime `json:"debugEventsUntilDate,omitempty"`
}

// FeatureFlagsState captures the result of evaluating every feature flag for a context. Its JSON
// representation is what LaunchDarkly's JavaScript client-side SDKs expect as bootstrap data: a
// flat object mapping flag key to value, plus a "$flagsState" object of per-flag metadata and a
// "$valid" marker.
type FeatureFlagsState struct {
	valid        bool
	flagValues   map[string]ldvalue.Value
	flagMetadata map[string]flagMetadata
}

func newFeatureFlagsState() FeatureFlagsState {
	return FeatureFlagsState{
		valid:        true,
		flagValues:   make(map[string]ldvalue.Value),
		flagMetadata: make(map[string]flagMetadata),
	}
}

// IsValid returns true if this object contains a real evaluation result. It is false if
// AllFlagsState was called while the client was offline or not yet initialized and no cached
// data store values were available.
func (s FeatureFlagsState) IsValid() bool {
	return s.valid
}

// GetValue returns the value of an individual flag, or ldvalue.Null() if the key is unknown.
func (s FeatureFlagsState) GetValue(key string) ldvalue.Value {
	if v, ok := s.flagValues[key]; ok {
		return v
	}
	return ldvalue.Null()
}

// ToValuesMap returns a copy of the flag key to value mapping, discarding all other metadata.
// This is the format used by application code that just wants current flag values, as opposed to
// the bootstrap format consumed by client-side SDKs.
func (s FeatureFlagsState) ToValuesMap() map[string]ldvalue.Value {
	out := make(map[string]ldvalue.Value, len(s.flagValues))
	for k, v := range s.flagValues {
		out[k] = v
	}
	return out
}

func (s *FeatureFlagsState) addFlag(
	flag ldmodel.FeatureFlag,
	value ldvalue.Value,
	variationIndex int,
	reason ldreason.EvaluationReason,
	detailsOnlyIfTracked bool,
) {
	s.flagValues[flag.Key] = value

	requiresExplicitTracking := flag.TrackEvents ||
		(flag.DebugEventsUntilDate != nil && ldtime.UnixMillisNow() < *flag.DebugEventsUntilDate)
	omitDetails := detailsOnlyIfTracked && !requiresExplicitTracking && !reason.IsInExperiment()

	meta := flagMetadata{Version: flag.Version}
	if variationIndex != ldreason.NoVariation {
		idx := variationIndex
		meta.Variation = &idx
	}
	if reason.GetKind() != "" && !omitDetails {
		r := reason
		meta.Reason = &r
	}
	if flag.TrackEvents {
		meta.TrackEvents = true
	}
	if requiresExplicitTracking {
		meta.TrackReason = true
	}
	if flag.DebugEventsUntilDate != nil {
		meta.DebugEventsUntilDate = *flag.DebugEventsUntilDate
	}
	s.flagMetadata[flag.Key] = meta
}

// MarshalJSON implements json.Marshaler, producing the bootstrap format expected by LaunchDarkly's
// JavaScript client-side SDKs: flag values at the top level, plus "$flagsState" and "$valid".
func (s FeatureFlagsState) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.flagValues)+2)
	for k, v := range s.flagValues {
		out[k] = v
	}
	metadata := s.flagMetadata
	if metadata == nil {
		metadata = map[string]flagMetadata{}
	}
	out["$flagsState"] = metadata
	out["$valid"] = s.valid
	return json.Marshal(out)
}
