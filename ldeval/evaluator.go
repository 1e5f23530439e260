package ldeval

import (
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// Evaluator is the engine for evaluating feature flags against a context. It holds no mutable
// state of its own; all per-call state lives in the evaluationScope built for each Evaluate call.
type Evaluator interface {
	// Evaluate computes the flag's value for the given context. prerequisiteRecorder, if non-nil,
	// is invoked once for every prerequisite flag evaluated along the way, whether or not it
	// passed, so the caller can record a feature event for it.
	Evaluate(
		flag *ldmodel.FeatureFlag,
		context ldcontext.Context,
		prerequisiteRecorder PrerequisiteFlagEventRecorder,
	) ldreason.EvaluationDetail
}

type evaluator struct {
	dataProvider DataProvider
	bigSegments  BigSegmentProvider
}

// NewEvaluator creates an Evaluator that resolves prerequisite flags and segmentMatch clauses via
// dataProvider, and big-segment membership (if any big segment is referenced) via bigSegments.
// bigSegments may be nil if the client has no big-segment store configured; evaluations that
// reference an unbounded segment then report ldreason.BigSegmentsNotConfigured.
func NewEvaluator(dataProvider DataProvider, bigSegments BigSegmentProvider) Evaluator {
	return &evaluator{dataProvider: dataProvider, bigSegments: bigSegments}
}

// evaluationScope holds the parameters and in-progress cycle-detection state for a single
// Evaluate call tree (a flag evaluation plus any prerequisite/segment evaluations it triggers).
// It is allocated on the stack and passed by pointer purely to avoid copying the context and
// maps on every recursive call.
type evaluationScope struct {
	owner               *evaluator
	context             ldcontext.Context
	prerequisiteFlags   map[string]bool
	inProgressSegments  map[string]bool
	recorder            PrerequisiteFlagEventRecorder
	bigSegmentsStatus   ldreason.BigSegmentsStatus
	hasBigSegmentsStatus bool
}

func (e *evaluator) Evaluate(
	flag *ldmodel.FeatureFlag,
	context ldcontext.Context,
	prerequisiteRecorder PrerequisiteFlagEventRecorder,
) ldreason.EvaluationDetail {
	es := &evaluationScope{
		owner:              e,
		context:            context,
		prerequisiteFlags:  make(map[string]bool),
		inProgressSegments: make(map[string]bool),
		recorder:           prerequisiteRecorder,
	}
	return es.evaluateFlag(flag)
}

func (es *evaluationScope) evaluateFlag(flag *ldmodel.FeatureFlag) ldreason.EvaluationDetail {
	if !flag.On {
		return es.withBigSegmentsStatus(es.offValue(flag, ldreason.NewEvalReasonOff()))
	}

	prereqFailReason, ok := es.checkPrerequisites(flag)
	if !ok {
		if prereqFailReason.GetKind() == ldreason.EvalReasonError {
			return es.withBigSegmentsStatus(
				ldreason.NewEvaluationError(ldvalue.Null(), prereqFailReason.GetErrorKind()))
		}
		return es.withBigSegmentsStatus(es.offValue(flag, prereqFailReason))
	}

	for i := range flag.ContextTargets {
		if result, matched := es.matchTarget(flag, &flag.ContextTargets[i]); matched {
			return es.withBigSegmentsStatus(result)
		}
	}
	for i := range flag.Targets {
		t := flag.Targets[i]
		t.ContextKind = ldcontext.DefaultKind
		if result, matched := es.matchTarget(flag, &t); matched {
			return es.withBigSegmentsStatus(result)
		}
	}

	for i := range flag.Rules {
		matches, ok := es.ruleMatchesContext(&flag.Rules[i])
		if !ok {
			return es.withBigSegmentsStatus(
				ldreason.NewEvaluationError(ldvalue.Null(), ldreason.EvalErrorMalformedFlag))
		}
		if matches {
			reason := ldreason.NewEvalReasonRuleMatch(i, flag.Rules[i].ID)
			return es.withBigSegmentsStatus(
				es.valueForVariationOrRollout(flag, flag.Rules[i].GetVariationOrRollout(), reason))
		}
	}

	return es.withBigSegmentsStatus(
		es.valueForVariationOrRollout(flag, flag.Fallthrough, ldreason.NewEvalReasonFallthrough()))
}

func (es *evaluationScope) matchTarget(flag *ldmodel.FeatureFlag, t *ldmodel.Target) (ldreason.EvaluationDetail, bool) {
	kind := t.ContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	single, ok := es.context.ContextByKind(kind)
	if !ok {
		return ldreason.EvaluationDetail{}, false
	}
	key := single.Key()
	for _, v := range t.Values {
		if v == key {
			return es.variation(flag, t.Variation, ldreason.NewEvalReasonTargetMatch()), true
		}
	}
	return ldreason.EvaluationDetail{}, false
}

// checkPrerequisites evaluates the flag's prerequisites in order, always recording a
// prerequisite event for each one it evaluates, and returns the PREREQUISITE_FAILED reason for
// the first one that fails (not on, or didn't return the required variation). A cycle among
// prerequisites is reported as MALFORMED_FLAG rather than recursing forever.
func (es *evaluationScope) checkPrerequisites(flag *ldmodel.FeatureFlag) (ldreason.EvaluationReason, bool) {
	for _, prereq := range flag.Prerequisites {
		if es.prerequisiteFlags[prereq.Key] {
			return ldreason.NewEvalReasonError(ldreason.EvalErrorMalformedFlag), false
		}
		prereqFlag := es.owner.dataProvider.GetFeatureFlag(prereq.Key)
		if prereqFlag == nil {
			return ldreason.NewEvalReasonPrerequisiteFailed(prereq.Key), false
		}

		es.prerequisiteFlags[prereq.Key] = true
		prereqResult := es.evaluateFlag(prereqFlag)
		delete(es.prerequisiteFlags, prereq.Key)

		if es.recorder != nil {
			es.recorder(PrerequisiteFlagEvent{
				TargetFlagKey:      flag.Key,
				Context:            es.context,
				PrerequisiteFlag:   prereqFlag,
				PrerequisiteResult: prereqResult,
			})
		}

		if prereqResult.Reason.GetKind() == ldreason.EvalReasonError &&
			prereqResult.Reason.GetErrorKind() == ldreason.EvalErrorMalformedFlag {
			// A malformed prerequisite (including a prerequisite cycle detected further down)
			// invalidates the whole evaluation rather than merely failing this prerequisite.
			return ldreason.NewEvalReasonError(ldreason.EvalErrorMalformedFlag), false
		}

		if !prereqFlag.On || prereqResult.IsDefaultValue() || prereqResult.VariationIndex != prereq.Variation {
			return ldreason.NewEvalReasonPrerequisiteFailed(prereq.Key), false
		}
	}
	return ldreason.EvaluationReason{}, true
}

func (es *evaluationScope) ruleMatchesContext(rule *ldmodel.FlagRule) (bool, bool) {
	for i := range rule.Clauses {
		matches, ok := es.clauseMatchesContext(&rule.Clauses[i])
		if !ok {
			return false, false
		}
		if !matches {
			return false, true
		}
	}
	return true, true
}

func (es *evaluationScope) clauseMatchesContext(clause *ldmodel.Clause) (bool, bool) {
	if clause.Op == ldmodel.OperatorSegmentMatch {
		matched, ok := es.clauseMatchesAnySegment(clause)
		return matched, ok
	}
	return ldmodel.ClauseMatchesContext(clause, &es.context), true
}

func (es *evaluationScope) clauseMatchesAnySegment(clause *ldmodel.Clause) (bool, bool) {
	for _, v := range clause.Values {
		if v.Type() != ldvalue.StringType {
			continue
		}
		key := v.StringValue()
		if es.inProgressSegments[key] {
			return false, false
		}
		segment := es.owner.dataProvider.GetSegment(key)
		if segment == nil {
			continue
		}
		es.inProgressSegments[key] = true
		isMember, status, ok := es.segmentContainsContext(segment)
		delete(es.inProgressSegments, key)
		if !ok {
			return false, false
		}
		if status != "" {
			es.recordBigSegmentsStatus(status)
		}
		if isMember {
			return !clause.Negate, true
		}
	}
	return clause.Negate, true
}

func (es *evaluationScope) valueForVariationOrRollout(
	flag *ldmodel.FeatureFlag,
	vr ldmodel.VariationOrRollout,
	reason ldreason.EvaluationReason,
) ldreason.EvaluationDetail {
	if vr.Variation != nil {
		return es.variation(flag, *vr.Variation, reason)
	}
	if vr.Rollout == nil || len(vr.Rollout.Variations) == 0 {
		return ldreason.NewEvaluationError(ldvalue.Null(), ldreason.EvalErrorMalformedFlag)
	}
	variation, inExperiment, ok := variationIndexForRollout(&es.context, *vr.Rollout, flag.Key, flag.Salt)
	if !ok {
		return ldreason.NewEvaluationError(ldvalue.Null(), ldreason.EvalErrorMalformedFlag)
	}
	if inExperiment {
		reason = reason.WithInExperiment(true)
	}
	return es.variation(flag, variation, reason)
}

func (es *evaluationScope) variation(flag *ldmodel.FeatureFlag, index int, reason ldreason.EvaluationReason) ldreason.EvaluationDetail {
	if index < 0 || index >= len(flag.Variations) {
		return ldreason.NewEvaluationError(ldvalue.Null(), ldreason.EvalErrorMalformedFlag)
	}
	return ldreason.NewEvaluationDetail(flag.Variations[index], index, reason)
}

func (es *evaluationScope) offValue(flag *ldmodel.FeatureFlag, reason ldreason.EvaluationReason) ldreason.EvaluationDetail {
	if flag.OffVariation == nil {
		return ldreason.NewEvaluationDetail(ldvalue.Null(), ldreason.NoVariation, reason)
	}
	return es.variation(flag, *flag.OffVariation, reason)
}

// recordBigSegmentsStatus keeps the worst status seen across every big-segment query made during
// this evaluation, so the top-level reason reflects the least healthy result: STORE_ERROR beats
// STALE beats NOT_CONFIGURED beats HEALTHY.
func (es *evaluationScope) recordBigSegmentsStatus(status ldreason.BigSegmentsStatus) {
	if !es.hasBigSegmentsStatus || bigSegmentsStatusRank(status) > bigSegmentsStatusRank(es.bigSegmentsStatus) {
		es.bigSegmentsStatus = status
		es.hasBigSegmentsStatus = true
	}
}

func bigSegmentsStatusRank(status ldreason.BigSegmentsStatus) int {
	switch status {
	case ldreason.BigSegmentsStoreError:
		return 3
	case ldreason.BigSegmentsStale:
		return 2
	case ldreason.BigSegmentsNotConfigured:
		return 1
	default:
		return 0
	}
}

func (es *evaluationScope) withBigSegmentsStatus(detail ldreason.EvaluationDetail) ldreason.EvaluationDetail {
	if es.hasBigSegmentsStatus {
		detail.Reason = detail.Reason.WithBigSegmentsStatus(es.bigSegmentsStatus)
	}
	return detail
}
