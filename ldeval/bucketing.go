package ldeval

import (
	"crypto/sha1" //nolint:gosec // not used for anything security-sensitive, only for an evenly distributed hash
	"encoding/hex"
	"strconv"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

const longScale = float64(0xFFFFFFFFFFFFFFF)

// computeBucket returns the bucket value in [0, 1) for a context under a rollout/segment-rule
// bucketing configuration, plus whether the attribute referenced by bucketBy actually existed
// (an absent/null attribute buckets to 0 but this is still reported so callers can decide
// whether to treat the rollout as an experiment).
func computeBucket(
	context *ldcontext.Context,
	contextKind ldcontext.Kind,
	key string,
	bucketBy string,
	salt string,
	seed *int,
) (float64, bool) {
	single, ok := context.ContextByKind(contextKind)
	if !ok {
		return 0, false
	}
	idHash, ok := bucketableStringValue(single, bucketBy)
	if !ok {
		return 0, false
	}

	var hashInput string
	if seed != nil {
		hashInput = strconv.Itoa(*seed) + "." + idHash
	} else {
		hashInput = key + "." + salt + "." + idHash
	}

	h := sha1.Sum([]byte(hashInput)) //nolint:gosec
	hexHash := hex.EncodeToString(h[:])[:15]
	intVal, _ := strconv.ParseUint(hexHash, 16, 64)

	return float64(intVal) / longScale, true
}

func bucketableStringValue(context ldcontext.Context, attr string) (string, bool) {
	var v ldvalue.Value
	if attr == "key" {
		v = ldvalue.String(context.Key())
	} else {
		var found bool
		v, found = context.GetValueForRef(attr)
		if !found {
			return "", false
		}
	}
	switch {
	case v.Type() == ldvalue.StringType:
		return v.StringValue(), true
	case v.IsInt():
		return strconv.Itoa(v.IntValue()), true
	default:
		return "", false
	}
}

// variationIndexForRollout walks a rollout's weighted variations in order, returning the
// variation whose cumulative weight first exceeds the bucket value; the last variation absorbs
// any rounding drift if the weights do not sum to exactly 100000. Also reports whether the
// context is eligible to be counted in an experiment for this rollout.
func variationIndexForRollout(
	context *ldcontext.Context,
	rollout ldmodel.Rollout,
	flagOrSegmentKey string,
	salt string,
) (variation int, inExperiment bool, ok bool) {
	if len(rollout.Variations) == 0 {
		return 0, false, false
	}

	contextKind := rollout.EffectiveContextKind()
	bucketBy := rollout.EffectiveBucketBy()

	bucket, hadAttr := computeBucket(context, contextKind, flagOrSegmentKey, bucketBy, salt, rollout.Seed)

	var sum float64
	chosen := rollout.Variations[len(rollout.Variations)-1]
	for _, wv := range rollout.Variations {
		sum += float64(wv.Weight) / 100000.0
		if bucket < sum {
			chosen = wv
			break
		}
	}

	experimentEligible := rollout.IsExperiment() && hadAttr && bucketBy == "key" && !chosen.Untracked
	if experimentEligible {
		single, _ := context.ContextByKind(contextKind)
		if single.IsAnonymous() {
			experimentEligible = false
		}
	}
	return chosen.Variation, experimentEligible, true
}
