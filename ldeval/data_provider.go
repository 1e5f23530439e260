// Package ldeval implements the pure evaluation engine: given a flag, a context, and a seam for
// looking up other flags/segments and big-segment membership, it computes a value, a variation
// index, and a machine-readable reason. It performs no I/O of its own.
package ldeval

import (
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
)

// DataProvider is the seam the evaluator uses to resolve flags and segments referenced by key,
// e.g. from a prerequisite or a segmentMatch clause. Implementations query a snapshot of the
// current dataset; they must never block.
type DataProvider interface {
	// GetFeatureFlag returns the flag with the given key, or nil if it does not exist or is a
	// deleted tombstone.
	GetFeatureFlag(key string) *ldmodel.FeatureFlag

	// GetSegment returns the segment with the given key, or nil if it does not exist or is a
	// deleted tombstone.
	GetSegment(key string) *ldmodel.Segment
}

// BigSegmentProvider is the seam the evaluator uses to resolve membership in "big" (unbounded)
// segments, which are not inlined in the segment's own data.
type BigSegmentProvider interface {
	// GetBigSegmentMembership returns the membership result for a context key plus the status of
	// the big segment store for this query.
	GetBigSegmentMembership(contextKey string) (BigSegmentMembership, ldreason.BigSegmentsStatus)
}

// BigSegmentMembership reports whether a context is included in, excluded from, or not mentioned
// by each big segment queried so far, keyed by the segment's membership reference
// ("key", or "key.NNN" when the segment has a generation number).
type BigSegmentMembership interface {
	// CheckMembership returns true/false if the segment explicitly includes or excludes the
	// context, or none (second return false) if the segment has no opinion and rule-based
	// evaluation should continue (there are no rules for big segments, so "no opinion" means
	// not a member).
	CheckMembership(segmentRef string) (isIncluded bool, found bool)
}

// PrerequisiteFlagEventRecorder is invoked once for every prerequisite flag evaluated, so the
// caller can generate a feature event for it regardless of whether the prerequisite passed.
type PrerequisiteFlagEventRecorder func(event PrerequisiteFlagEvent)

// PrerequisiteFlagEvent carries the data needed to record a prerequisite evaluation as an event.
type PrerequisiteFlagEvent struct {
	TargetFlagKey      string
	Context            ldcontext.Context
	PrerequisiteFlag   *ldmodel.FeatureFlag
	PrerequisiteResult ldreason.EvaluationDetail
}
