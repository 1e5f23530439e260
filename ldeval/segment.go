package ldeval

import (
	"strconv"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
)

// segmentContainsContext implements the segment membership algorithm: big-segment delegation,
// then excluded/included lists, then rules in order.
func (es *evaluationScope) segmentContainsContext(s *ldmodel.Segment) (bool, ldreason.BigSegmentsStatus, bool) {
	if s.Unbounded {
		return es.bigSegmentContainsContext(s)
	}

	// Exclusion always wins over inclusion; within each, the kind-qualified target lists are
	// consulted first and then the legacy flat lists (which are implicitly of the default kind).
	if es.contextKeyIsInTargets(s.ExcludedContexts) || es.contextKeyIsIn(s.Excluded, ldcontext.DefaultKind) {
		return false, "", true
	}
	if es.contextKeyIsInTargets(s.IncludedContexts) || es.contextKeyIsIn(s.Included, ldcontext.DefaultKind) {
		return true, "", true
	}

	for i := range s.Rules {
		matches, ok := es.segmentRuleMatchesContext(&s.Rules[i], s.Key, s.Salt)
		if !ok {
			return false, "", false
		}
		if matches {
			return true, "", true
		}
	}
	return false, "", true
}

func (es *evaluationScope) contextKeyIsInTargets(targets []ldmodel.SegmentTarget) bool {
	for i := range targets {
		kind := targets[i].ContextKind
		if kind == "" {
			kind = ldcontext.DefaultKind
		}
		if es.contextKeyIsIn(targets[i].Values, kind) {
			return true
		}
	}
	return false
}

func (es *evaluationScope) contextKeyIsIn(keys []string, kind ldcontext.Kind) bool {
	single, ok := es.context.ContextByKind(kind)
	if !ok {
		return false
	}
	key := single.Key()
	for _, v := range keys {
		if v == key {
			return true
		}
	}
	return false
}

func (es *evaluationScope) segmentRuleMatchesContext(r *ldmodel.SegmentRule, segmentKey, salt string) (bool, bool) {
	for i := range r.Clauses {
		matches, ok := es.clauseMatchesContext(&r.Clauses[i])
		if !ok {
			return false, false
		}
		if !matches {
			return false, true
		}
	}
	if r.Weight == nil {
		return true, true
	}
	rollout := ldmodel.Rollout{
		ContextKind: r.EffectiveContextKind(),
		BucketBy:    r.EffectiveBucketBy(),
		Variations: []ldmodel.WeightedVariation{
			{Variation: 1, Weight: *r.Weight},
			{Variation: 0, Weight: 100000 - *r.Weight},
		},
	}
	variation, _, ok := variationIndexForRollout(&es.context, rollout, segmentKey, salt)
	if !ok {
		return false, false
	}
	return variation == 1, true
}

// bigSegmentContainsContext resolves membership for an unbounded segment via the big-segment
// manager seam (the provider is given the plain context key and owns hashing/caching).
func (es *evaluationScope) bigSegmentContainsContext(s *ldmodel.Segment) (bool, ldreason.BigSegmentsStatus, bool) {
	unboundedKind := s.UnboundedContextKind
	if unboundedKind == "" {
		unboundedKind = ldcontext.DefaultKind
	}
	single, ok := es.context.ContextByKind(unboundedKind)
	if !ok {
		return false, ldreason.BigSegmentsHealthy, true
	}
	if es.owner.bigSegments == nil {
		return false, ldreason.BigSegmentsNotConfigured, true
	}
	membership, status := es.owner.bigSegments.GetBigSegmentMembership(single.Key())
	es.recordBigSegmentsStatus(status)
	if membership == nil {
		return false, status, true
	}
	ref := segmentMembershipRef(s)
	if included, found := membership.CheckMembership(ref); found {
		return included, status, true
	}
	return false, status, true
}

// segmentMembershipRef builds the key a big-segment store looks up membership by: the segment
// key, plus its generation when known, so stale cached membership from a superseded generation
// is never consulted.
func segmentMembershipRef(s *ldmodel.Segment) string {
	if s.Generation == nil {
		return s.Key
	}
	return s.Key + "." + strconv.Itoa(*s.Generation)
}
