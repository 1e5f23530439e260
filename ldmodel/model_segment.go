package ldmodel

import "github.com/launchdarkly/go-server-sdk-sub010/ldcontext"

// Segment describes a named population of contexts, referenced from flag rules via the
// segmentMatch clause operator.
type Segment struct {
	Key              string          `json:"key"`
	Version          int             `json:"version"`
	Included         []string        `json:"included"`
	Excluded         []string        `json:"excluded"`
	IncludedContexts []SegmentTarget `json:"includedContexts,omitempty"`
	ExcludedContexts []SegmentTarget `json:"excludedContexts,omitempty"`
	Salt             string          `json:"salt"`
	Rules            []SegmentRule   `json:"rules"`
	// Unbounded indicates this is a "big segment": its membership is not inlined in this struct
	// and must be resolved via the big-segment manager instead of Included/Excluded/Rules.
	Unbounded            bool           `json:"unbounded,omitempty"`
	UnboundedContextKind ldcontext.Kind `json:"unboundedContextKind,omitempty"`
	// Generation increases each time a big segment's membership is fully recomputed upstream; it
	// is part of the big-segment store key so that stale cached membership from a prior
	// generation is never consulted.
	Generation *int `json:"generation,omitempty"`
	Deleted    bool `json:"deleted,omitempty"`
}

// GetKey returns the segment key. Implements the StoreDataKind item-description contract.
func (s *Segment) GetKey() string { return s.Key }

// GetVersion returns the segment version.
func (s *Segment) GetVersion() int { return s.Version }

// IsDeleted returns whether this is a deleted-segment tombstone.
func (s *Segment) IsDeleted() bool { return s.Deleted }

// SegmentTarget is a per-kind list of context keys explicitly included in or excluded from a
// segment, generalizing the legacy flat Included/Excluded string lists to multi-kind contexts.
type SegmentTarget struct {
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	Values      []string       `json:"values"`
}

// SegmentRule is an ordered set of clauses plus an optional weighted rollout used to determine
// segment membership when no explicit include/exclude entry applies.
type SegmentRule struct {
	ID                 string         `json:"id,omitempty"`
	Clauses            []Clause       `json:"clauses"`
	Weight             *int           `json:"weight,omitempty"`
	BucketBy           string         `json:"bucketBy,omitempty"`
	RolloutContextKind ldcontext.Kind `json:"rolloutContextKind,omitempty"`
}

// EffectiveBucketBy returns the attribute reference this rule buckets by, defaulting to "key".
func (r SegmentRule) EffectiveBucketBy() string {
	if r.BucketBy == "" {
		return "key"
	}
	return r.BucketBy
}

// EffectiveContextKind returns the context kind this rule buckets by, defaulting to
// ldcontext.DefaultKind.
func (r SegmentRule) EffectiveContextKind() ldcontext.Kind {
	if r.RolloutContextKind == "" {
		return ldcontext.DefaultKind
	}
	return r.RolloutContextKind
}

// FindTargetValues returns, for a given target list and context kind, the Values slice of the
// first matching SegmentTarget, or nil.
func FindTargetValues(targets []SegmentTarget, kind ldcontext.Kind) []string {
	for _, t := range targets {
		tk := t.ContextKind
		if tk == "" {
			tk = ldcontext.DefaultKind
		}
		if tk == kind {
			return t.Values
		}
	}
	return nil
}
