package ldmodel

import "github.com/launchdarkly/go-server-sdk-sub010/ldcontext"

// RolloutKind distinguishes an ordinary percentage rollout from an experiment.
type RolloutKind string

const (
	// RolloutKindRollout is a plain percentage rollout: bucketing determines the variation but
	// does not affect experimentation event reporting.
	RolloutKindRollout RolloutKind = "rollout"
	// RolloutKindExperiment is a rollout whose bucketing result is also reported to the
	// experimentation backend, unless the context is excluded from experiments.
	RolloutKindExperiment RolloutKind = "experiment"
)

// VariationOrRollout represents either a fixed variation index or a percentage rollout; exactly
// one of the two should be set. It appears as a flag's Fallthrough and as a FlagRule's result.
type VariationOrRollout struct {
	Variation *int     `json:"variation,omitempty"`
	Rollout   *Rollout `json:"rollout,omitempty"`
}

// WeightedVariation is one entry in a Rollout: a variation index and the portion (out of 100000)
// of bucket space assigned to it.
type WeightedVariation struct {
	Variation int  `json:"variation"`
	Weight    int  `json:"weight"`
	Untracked bool `json:"untracked,omitempty"`
}

// Rollout is a deterministic hash-based split of contexts across variations.
type Rollout struct {
	Kind        RolloutKind         `json:"kind,omitempty"`
	ContextKind ldcontext.Kind      `json:"contextKind,omitempty"`
	BucketBy    string              `json:"bucketBy,omitempty"`
	Seed        *int                `json:"seed,omitempty"`
	Variations  []WeightedVariation `json:"variations"`
}

// IsExperiment returns true if this rollout is an experiment.
func (r Rollout) IsExperiment() bool {
	return r.Kind == RolloutKindExperiment
}

// EffectiveContextKind returns the context kind this rollout buckets by, defaulting to
// ldcontext.DefaultKind when unspecified.
func (r Rollout) EffectiveContextKind() ldcontext.Kind {
	if r.ContextKind == "" {
		return ldcontext.DefaultKind
	}
	return r.ContextKind
}

// EffectiveBucketBy returns the attribute reference this rollout buckets by, defaulting to "key".
func (r Rollout) EffectiveBucketBy() string {
	if r.BucketBy == "" {
		return "key"
	}
	return r.BucketBy
}
