package ldreason_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

func TestReasonAccessors(t *testing.T) {
	off := ldreason.NewEvalReasonOff()
	assert.Equal(t, ldreason.EvalReasonOff, off.GetKind())
	assert.Equal(t, -1, off.GetRuleIndex())

	rule := ldreason.NewEvalReasonRuleMatch(2, "rule-id")
	assert.Equal(t, ldreason.EvalReasonRuleMatch, rule.GetKind())
	assert.Equal(t, 2, rule.GetRuleIndex())
	assert.Equal(t, "rule-id", rule.GetRuleID())

	prereq := ldreason.NewEvalReasonPrerequisiteFailed("dep-flag")
	assert.Equal(t, "dep-flag", prereq.GetPrerequisiteKey())

	errReason := ldreason.NewEvalReasonError(ldreason.EvalErrorMalformedFlag)
	assert.Equal(t, ldreason.EvalErrorMalformedFlag, errReason.GetErrorKind())
}

func TestReasonWithInExperimentAndBigSegments(t *testing.T) {
	r := ldreason.NewEvalReasonFallthrough().WithInExperiment(true).WithBigSegmentsStatus(ldreason.BigSegmentsStale)
	assert.True(t, r.IsInExperiment())
	status, ok := r.GetBigSegmentsStatus()
	assert.True(t, ok)
	assert.Equal(t, ldreason.BigSegmentsStale, status)

	plain := ldreason.NewEvalReasonOff()
	_, ok = plain.GetBigSegmentsStatus()
	assert.False(t, ok)
}

func TestReasonJSONRoundTrip(t *testing.T) {
	cases := []ldreason.EvaluationReason{
		ldreason.NewEvalReasonOff(),
		ldreason.NewEvalReasonTargetMatch(),
		ldreason.NewEvalReasonRuleMatch(1, "rule1"),
		ldreason.NewEvalReasonPrerequisiteFailed("dep"),
		ldreason.NewEvalReasonFallthrough(),
		ldreason.NewEvalReasonError(ldreason.EvalErrorFlagNotFound),
		ldreason.NewEvalReasonFallthrough().WithInExperiment(true),
		ldreason.NewEvalReasonOff().WithBigSegmentsStatus(ldreason.BigSegmentsHealthy),
	}
	for _, r := range cases {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var out ldreason.EvaluationReason
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, r.GetKind(), out.GetKind())
		assert.Equal(t, r.GetRuleIndex(), out.GetRuleIndex())
		assert.Equal(t, r.GetRuleID(), out.GetRuleID())
		assert.Equal(t, r.GetPrerequisiteKey(), out.GetPrerequisiteKey())
		assert.Equal(t, r.GetErrorKind(), out.GetErrorKind())
		assert.Equal(t, r.IsInExperiment(), out.IsInExperiment())

		wantStatus, wantOK := r.GetBigSegmentsStatus()
		gotStatus, gotOK := out.GetBigSegmentsStatus()
		assert.Equal(t, wantOK, gotOK)
		if wantOK {
			assert.Equal(t, wantStatus, gotStatus)
		}
	}
}

func TestRuleMatchJSONOmitsRuleIndexForOtherKinds(t *testing.T) {
	data, err := json.Marshal(ldreason.NewEvalReasonOff())
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasRuleIndex := raw["ruleIndex"]
	assert.False(t, hasRuleIndex)
}

func TestEvaluationDetailIsDefaultValue(t *testing.T) {
	detail := ldreason.NewEvaluationDetail(ldvalue.Bool(true), 1, ldreason.NewEvalReasonFallthrough())
	assert.False(t, detail.IsDefaultValue())

	errDetail := ldreason.NewEvaluationError(ldvalue.Bool(false), ldreason.EvalErrorFlagNotFound)
	assert.True(t, errDetail.IsDefaultValue())
	assert.Equal(t, ldreason.NoVariation, errDetail.VariationIndex)
}
