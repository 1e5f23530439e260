package ldeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// fakeDataProvider is an in-memory ldeval.DataProvider backed by plain maps, used so evaluator
// tests can set up flags/segments without a real data store.
type fakeDataProvider struct {
	flags    map[string]*ldmodel.FeatureFlag
	segments map[string]*ldmodel.Segment
}

func newFakeDataProvider() *fakeDataProvider {
	return &fakeDataProvider{
		flags:    make(map[string]*ldmodel.FeatureFlag),
		segments: make(map[string]*ldmodel.Segment),
	}
}

func (p *fakeDataProvider) addFlag(f ldmodel.FeatureFlag) *ldmodel.FeatureFlag {
	f.Preprocess()
	p.flags[f.Key] = &f
	return p.flags[f.Key]
}

func (p *fakeDataProvider) addSegment(s ldmodel.Segment) *ldmodel.Segment {
	s.Preprocess()
	p.segments[s.Key] = &s
	return p.segments[s.Key]
}

func (p *fakeDataProvider) GetFeatureFlag(key string) *ldmodel.FeatureFlag {
	return p.flags[key]
}

func (p *fakeDataProvider) GetSegment(key string) *ldmodel.Segment {
	return p.segments[key]
}

func boolFlag(key string, on bool, fallthroughVar int, offVar *int) ldmodel.FeatureFlag {
	return ldmodel.FeatureFlag{
		Key:          key,
		On:           on,
		Variations:   []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(fallthroughVar)},
		OffVariation: offVar,
	}
}

func intPtr(i int) *int { return &i }

func TestSimpleBooleanFlag(t *testing.T) {
	provider := newFakeDataProvider()
	flag := provider.addFlag(boolFlag("flag1", true, 1, intPtr(0)))
	eval := NewEvaluator(provider, nil)

	context := ldcontext.New("u1")
	detail := eval.Evaluate(flag, context, nil)
	assert.Equal(t, ldvalue.Bool(true), detail.Value)
	assert.Equal(t, ldreason.EvalReasonFallthrough, detail.Reason.GetKind())

	flag.On = false
	detail = eval.Evaluate(flag, context, nil)
	assert.Equal(t, ldvalue.Bool(false), detail.Value)
	assert.Equal(t, ldreason.EvalReasonOff, detail.Reason.GetKind())
}

func TestTargetList(t *testing.T) {
	provider := newFakeDataProvider()
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flag2",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(0)},
		OffVariation: intPtr(0),
		Targets: []ldmodel.Target{
			{Variation: 1, Values: []string{"u7"}},
		},
	})
	eval := NewEvaluator(provider, nil)

	detail := eval.Evaluate(flag, ldcontext.New("u7"), nil)
	assert.Equal(t, ldvalue.Bool(true), detail.Value)
	assert.Equal(t, ldreason.EvalReasonTargetMatch, detail.Reason.GetKind())

	detail = eval.Evaluate(flag, ldcontext.New("u8"), nil)
	assert.Equal(t, ldvalue.Bool(false), detail.Value)
	assert.Equal(t, ldreason.EvalReasonFallthrough, detail.Reason.GetKind())
}

func TestPrerequisiteFailure(t *testing.T) {
	provider := newFakeDataProvider()
	provider.addFlag(ldmodel.FeatureFlag{
		Key:          "parent",
		On:           false,
		Variations:   []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		OffVariation: intPtr(0),
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(0)},
	})
	child := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "child",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.String("x"), ldvalue.String("y")},
		OffVariation: intPtr(0),
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(1)},
		Prerequisites: []ldmodel.Prerequisite{
			{Key: "parent", Variation: 1},
		},
	})
	eval := NewEvaluator(provider, nil)

	var recorded []PrerequisiteFlagEvent
	detail := eval.Evaluate(child, ldcontext.New("u1"), func(e PrerequisiteFlagEvent) {
		recorded = append(recorded, e)
	})
	assert.Equal(t, ldvalue.String("x"), detail.Value)
	assert.Equal(t, ldreason.EvalReasonPrerequisiteFailed, detail.Reason.GetKind())
	assert.Equal(t, "parent", detail.Reason.GetPrerequisiteKey())
	require.Len(t, recorded, 1)
	assert.Equal(t, "child", recorded[0].TargetFlagKey)
}

func TestPrerequisiteCycleIsMalformedFlag(t *testing.T) {
	provider := newFakeDataProvider()
	provider.addFlag(ldmodel.FeatureFlag{
		Key:           "a",
		On:            true,
		Variations:    []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		OffVariation:  intPtr(0),
		Fallthrough:   ldmodel.VariationOrRollout{Variation: intPtr(1)},
		Prerequisites: []ldmodel.Prerequisite{{Key: "b", Variation: 1}},
	})
	flagB := provider.addFlag(ldmodel.FeatureFlag{
		Key:           "b",
		On:            true,
		Variations:    []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		OffVariation:  intPtr(0),
		Fallthrough:   ldmodel.VariationOrRollout{Variation: intPtr(1)},
		Prerequisites: []ldmodel.Prerequisite{{Key: "a", Variation: 1}},
	})
	eval := NewEvaluator(provider, nil)

	detail := eval.Evaluate(flagB, ldcontext.New("u1"), nil)
	assert.Equal(t, ldreason.EvalReasonError, detail.Reason.GetKind())
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, detail.Reason.GetErrorKind())
}

func TestRolloutAllWeightOnOneVariation(t *testing.T) {
	provider := newFakeDataProvider()
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flagAllWeight",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Int(0), ldvalue.Int(1), ldvalue.Int(2)},
		OffVariation: intPtr(0),
		Salt:         "s",
		Fallthrough: ldmodel.VariationOrRollout{
			Rollout: &ldmodel.Rollout{
				Variations: []ldmodel.WeightedVariation{
					{Variation: 0, Weight: 0},
					{Variation: 1, Weight: 100000},
					{Variation: 2, Weight: 0},
				},
			},
		},
	})
	eval := NewEvaluator(provider, nil)

	for _, key := range []string{"userA", "userB", "someOtherUser", "yetAnother"} {
		detail := eval.Evaluate(flag, ldcontext.New(key), nil)
		assert.Equal(t, ldvalue.Int(1), detail.Value, "context key %s", key)
		assert.Equal(t, 1, detail.VariationIndex)
	}
}

func TestRolloutDeterministicBucketing(t *testing.T) {
	// flag3 rollout weights [30000,70000] on variations [0,1], salt "s", key "flag3", no seed;
	// context key "userA" buckets to ~0.42 and therefore variation 1.
	provider := newFakeDataProvider()
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flag3",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Int(0), ldvalue.Int(1)},
		OffVariation: intPtr(0),
		Salt:         "s",
		Fallthrough: ldmodel.VariationOrRollout{
			Rollout: &ldmodel.Rollout{
				Variations: []ldmodel.WeightedVariation{
					{Variation: 0, Weight: 30000},
					{Variation: 1, Weight: 70000},
				},
			},
		},
	})
	eval := NewEvaluator(provider, nil)

	bucket, ok := computeBucket(contextPtr(ldcontext.New("userA")), ldcontext.DefaultKind, "flag3", "key", "s", nil)
	require.True(t, ok)
	assert.InDelta(t, 0.42, bucket, 0.01)

	detail := eval.Evaluate(flag, ldcontext.New("userA"), nil)
	assert.Equal(t, 1, detail.VariationIndex)
}

func contextPtr(c ldcontext.Context) *ldcontext.Context { return &c }

func TestEmptyContextKeyIsInvalidAndEvaluatorDoesNotPanic(t *testing.T) {
	provider := newFakeDataProvider()
	flag := provider.addFlag(boolFlag("flag1", true, 1, intPtr(0)))
	eval := NewEvaluator(provider, nil)

	// An empty-key context cannot be constructed through the builder as "valid"; here we confirm
	// the context reports itself invalid so the client facade can refuse to evaluate it.
	context := ldcontext.New("")
	assert.False(t, context.Valid())
	detail := eval.Evaluate(flag, context, nil)
	// The evaluator itself still proceeds (the USER_NOT_SPECIFIED short-circuit lives in the
	// client facade, which checks Context.Valid() before calling Evaluate); confirm it doesn't
	// panic and produces some deterministic result instead.
	_ = detail
}

func TestSegmentMatchClauseWithIncludedKey(t *testing.T) {
	provider := newFakeDataProvider()
	provider.addSegment(ldmodel.Segment{
		Key:      "seg1",
		Included: []string{"u1"},
	})
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flagSeg",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		OffVariation: intPtr(0),
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(0)},
		Rules: []ldmodel.FlagRule{
			{
				Clauses: []ldmodel.Clause{
					{Op: ldmodel.OperatorSegmentMatch, Values: []ldvalue.Value{ldvalue.String("seg1")}},
				},
				Variation: intPtr(1),
			},
		},
	})
	eval := NewEvaluator(provider, nil)

	detail := eval.Evaluate(flag, ldcontext.New("u1"), nil)
	assert.Equal(t, ldvalue.Bool(true), detail.Value)
	assert.Equal(t, ldreason.EvalReasonRuleMatch, detail.Reason.GetKind())

	detail = eval.Evaluate(flag, ldcontext.New("u2"), nil)
	assert.Equal(t, ldvalue.Bool(false), detail.Value)
}

func TestSegmentCycleIsMalformedFlag(t *testing.T) {
	provider := newFakeDataProvider()
	provider.addSegment(ldmodel.Segment{
		Key: "segA",
		Rules: []ldmodel.SegmentRule{
			{Clauses: []ldmodel.Clause{
				{Op: ldmodel.OperatorSegmentMatch, Values: []ldvalue.Value{ldvalue.String("segB")}},
			}},
		},
	})
	provider.addSegment(ldmodel.Segment{
		Key: "segB",
		Rules: []ldmodel.SegmentRule{
			{Clauses: []ldmodel.Clause{
				{Op: ldmodel.OperatorSegmentMatch, Values: []ldvalue.Value{ldvalue.String("segA")}},
			}},
		},
	})
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flagCyc",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		OffVariation: intPtr(0),
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(0)},
		Rules: []ldmodel.FlagRule{
			{
				Clauses: []ldmodel.Clause{
					{Op: ldmodel.OperatorSegmentMatch, Values: []ldvalue.Value{ldvalue.String("segA")}},
				},
				Variation: intPtr(1),
			},
		},
	})
	eval := NewEvaluator(provider, nil)

	detail := eval.Evaluate(flag, ldcontext.New("u1"), nil)
	assert.Equal(t, ldreason.EvalReasonError, detail.Reason.GetKind())
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, detail.Reason.GetErrorKind())
}

func TestVariationIndexOutOfRangeIsMalformedFlag(t *testing.T) {
	provider := newFakeDataProvider()
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flagBad",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Bool(false)},
		OffVariation: intPtr(0),
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(5)},
	})
	eval := NewEvaluator(provider, nil)

	detail := eval.Evaluate(flag, ldcontext.New("u1"), nil)
	assert.Equal(t, ldreason.EvalReasonError, detail.Reason.GetKind())
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, detail.Reason.GetErrorKind())
}

func TestBigSegmentNotConfiguredStatus(t *testing.T) {
	provider := newFakeDataProvider()
	provider.addSegment(ldmodel.Segment{Key: "bigSeg", Unbounded: true})
	flag := provider.addFlag(ldmodel.FeatureFlag{
		Key:          "flagBig",
		On:           true,
		Variations:   []ldvalue.Value{ldvalue.Bool(false), ldvalue.Bool(true)},
		OffVariation: intPtr(0),
		Fallthrough:  ldmodel.VariationOrRollout{Variation: intPtr(0)},
		Rules: []ldmodel.FlagRule{
			{
				Clauses: []ldmodel.Clause{
					{Op: ldmodel.OperatorSegmentMatch, Values: []ldvalue.Value{ldvalue.String("bigSeg")}},
				},
				Variation: intPtr(1),
			},
		},
	})
	eval := NewEvaluator(provider, nil) // no big segment provider configured

	detail := eval.Evaluate(flag, ldcontext.New("u1"), nil)
	status, ok := detail.Reason.GetBigSegmentsStatus()
	require.True(t, ok)
	assert.Equal(t, ldreason.BigSegmentsNotConfigured, status)
}
