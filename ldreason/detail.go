package ldreason

import "github.com/launchdarkly/go-server-sdk-sub010/ldvalue"

// NoVariation is used as the VariationIndex value in an EvaluationDetail when there is no
// variation index, e.g. because the flag was off and had no off variation.
const NoVariation = -1

// EvaluationDetail combines the result of a flag evaluation with an explanation of how it was
// reached. It is returned by LDClient.XxxVariationDetail methods.
type EvaluationDetail struct {
	// Value is the result of the flag evaluation. It is the flag's value for the matched
	// variation, or the default value passed to the evaluation method if the flag could not be
	// evaluated.
	Value ldvalue.Value
	// VariationIndex is the index of the returned value within the flag's list of variations, or
	// NoVariation if the default value was returned instead.
	VariationIndex int
	// Reason describes why the value was returned.
	Reason EvaluationReason
}

// NewEvaluationDetail constructs an EvaluationDetail.
func NewEvaluationDetail(value ldvalue.Value, variationIndex int, reason EvaluationReason) EvaluationDetail {
	return EvaluationDetail{Value: value, VariationIndex: variationIndex, Reason: reason}
}

// NewEvaluationError constructs an EvaluationDetail representing a failed evaluation: the given
// default value, NoVariation, and an ERROR reason of the given kind.
func NewEvaluationError(value ldvalue.Value, errorKind EvalErrorKind) EvaluationDetail {
	return EvaluationDetail{Value: value, VariationIndex: NoVariation, Reason: NewEvalReasonError(errorKind)}
}

// IsDefaultValue returns true if the evaluation did not produce a variation, i.e. the caller's
// default value was used.
func (d EvaluationDetail) IsDefaultValue() bool {
	return d.VariationIndex == NoVariation
}
