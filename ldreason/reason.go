// Package ldreason defines the data structures used to explain why a flag evaluation produced the
// value it did.
package ldreason

import (
	"encoding/json"
	"strconv"
)

// EvalReasonKind defines the possible values of EvaluationReason.Kind.
type EvalReasonKind string

const (
	// EvalReasonOff indicates the flag was off and therefore returned its off variation.
	EvalReasonOff EvalReasonKind = "OFF"
	// EvalReasonTargetMatch indicates the context was individually targeted.
	EvalReasonTargetMatch EvalReasonKind = "TARGET_MATCH"
	// EvalReasonRuleMatch indicates the context matched a rule.
	EvalReasonRuleMatch EvalReasonKind = "RULE_MATCH"
	// EvalReasonPrerequisiteFailed indicates a prerequisite flag did not return the required variation.
	EvalReasonPrerequisiteFailed EvalReasonKind = "PREREQUISITE_FAILED"
	// EvalReasonFallthrough indicates none of the above applied, so the fallthrough was used.
	EvalReasonFallthrough EvalReasonKind = "FALLTHROUGH"
	// EvalReasonError indicates the flag could not be evaluated, e.g. because it does not exist.
	EvalReasonError EvalReasonKind = "ERROR"
)

// EvalErrorKind defines the possible values of EvaluationReason.GetErrorKind().
type EvalErrorKind string

const (
	// EvalErrorClientNotReady means the caller tried to evaluate a flag before the client had
	// successfully initialized.
	EvalErrorClientNotReady EvalErrorKind = "CLIENT_NOT_READY"
	// EvalErrorFlagNotFound means the flag key did not match any known flag.
	EvalErrorFlagNotFound EvalErrorKind = "FLAG_NOT_FOUND"
	// EvalErrorUserNotSpecified means the context/user object or its key was invalid.
	EvalErrorUserNotSpecified EvalErrorKind = "USER_NOT_SPECIFIED"
	// EvalErrorMalformedFlag means the flag data was malformed, e.g. a rollout referenced a
	// variation index that did not exist, or a prerequisite/segment cycle was detected.
	EvalErrorMalformedFlag EvalErrorKind = "MALFORMED_FLAG"
	// EvalErrorWrongType means the result value was not of the type requested by the caller.
	EvalErrorWrongType EvalErrorKind = "WRONG_TYPE"
	// EvalErrorException means an unexpected error occurred during evaluation.
	EvalErrorException EvalErrorKind = "EXCEPTION"
)

// BigSegmentsStatus describes the validity of big segment information used during an evaluation.
type BigSegmentsStatus string

const (
	// BigSegmentsHealthy means the big segment store was available and not stale.
	BigSegmentsHealthy BigSegmentsStatus = "HEALTHY"
	// BigSegmentsStale means the big segment store's last sync time is older than the configured
	// staleness threshold.
	BigSegmentsStale BigSegmentsStatus = "STALE"
	// BigSegmentsStoreError means an error occurred while querying the big segment store.
	BigSegmentsStoreError BigSegmentsStatus = "STORE_ERROR"
	// BigSegmentsNotConfigured means a flag rule referenced a big segment, but the client was not
	// configured with a big segment store.
	BigSegmentsNotConfigured BigSegmentsStatus = "NOT_CONFIGURED"
)

// EvaluationReason describes the reason that a flag evaluation produced a particular value.
type EvaluationReason struct {
	kind              EvalReasonKind
	ruleIndex         int
	ruleID            string
	prerequisiteKey   string
	errorKind         EvalErrorKind
	inExperiment      bool
	bigSegmentsStatus BigSegmentsStatus
	hasBigSegments    bool
}

// NewEvalReasonOff returns an EvaluationReason of kind OFF.
func NewEvalReasonOff() EvaluationReason {
	return EvaluationReason{kind: EvalReasonOff}
}

// NewEvalReasonTargetMatch returns an EvaluationReason of kind TARGET_MATCH.
func NewEvalReasonTargetMatch() EvaluationReason {
	return EvaluationReason{kind: EvalReasonTargetMatch}
}

// NewEvalReasonRuleMatch returns an EvaluationReason of kind RULE_MATCH.
func NewEvalReasonRuleMatch(ruleIndex int, ruleID string) EvaluationReason {
	return EvaluationReason{kind: EvalReasonRuleMatch, ruleIndex: ruleIndex, ruleID: ruleID}
}

// NewEvalReasonPrerequisiteFailed returns an EvaluationReason of kind PREREQUISITE_FAILED.
func NewEvalReasonPrerequisiteFailed(prereqKey string) EvaluationReason {
	return EvaluationReason{kind: EvalReasonPrerequisiteFailed, prerequisiteKey: prereqKey}
}

// NewEvalReasonFallthrough returns an EvaluationReason of kind FALLTHROUGH.
func NewEvalReasonFallthrough() EvaluationReason {
	return EvaluationReason{kind: EvalReasonFallthrough}
}

// NewEvalReasonError returns an EvaluationReason of kind ERROR.
func NewEvalReasonError(errorKind EvalErrorKind) EvaluationReason {
	return EvaluationReason{kind: EvalReasonError, errorKind: errorKind}
}

// WithInExperiment returns a copy of the reason with the InExperiment flag set.
func (r EvaluationReason) WithInExperiment(inExperiment bool) EvaluationReason {
	r.inExperiment = inExperiment
	return r
}

// WithBigSegmentsStatus returns a copy of the reason annotated with a big-segments status.
func (r EvaluationReason) WithBigSegmentsStatus(status BigSegmentsStatus) EvaluationReason {
	r.bigSegmentsStatus = status
	r.hasBigSegments = true
	return r
}

// GetKind returns the reason kind.
func (r EvaluationReason) GetKind() EvalReasonKind { return r.kind }

// GetRuleIndex returns the rule index for a RULE_MATCH reason, or -1.
func (r EvaluationReason) GetRuleIndex() int {
	if r.kind != EvalReasonRuleMatch {
		return -1
	}
	return r.ruleIndex
}

// GetRuleID returns the rule ID for a RULE_MATCH reason, or "".
func (r EvaluationReason) GetRuleID() string { return r.ruleID }

// GetPrerequisiteKey returns the prerequisite flag key for a PREREQUISITE_FAILED reason, or "".
func (r EvaluationReason) GetPrerequisiteKey() string { return r.prerequisiteKey }

// GetErrorKind returns the error kind for an ERROR reason, or "".
func (r EvaluationReason) GetErrorKind() EvalErrorKind { return r.errorKind }

// IsInExperiment returns true if this evaluation should be counted as part of an experiment.
func (r EvaluationReason) IsInExperiment() bool { return r.inExperiment }

// GetBigSegmentsStatus returns the big-segments status, and whether one was set at all.
func (r EvaluationReason) GetBigSegmentsStatus() (BigSegmentsStatus, bool) {
	return r.bigSegmentsStatus, r.hasBigSegments
}

func (r EvaluationReason) String() string {
	switch r.kind {
	case EvalReasonRuleMatch:
		return string(r.kind) + "(" + strconv.Itoa(r.ruleIndex) + "," + r.ruleID + ")"
	case EvalReasonPrerequisiteFailed:
		return string(r.kind) + "(" + r.prerequisiteKey + ")"
	case EvalReasonError:
		return string(r.kind) + "(" + string(r.errorKind) + ")"
	default:
		return string(r.kind)
	}
}

type reasonJSON struct {
	Kind              EvalReasonKind    `json:"kind"`
	RuleIndex         *int              `json:"ruleIndex,omitempty"`
	RuleID            string            `json:"ruleId,omitempty"`
	PrerequisiteKey   string            `json:"prerequisiteKey,omitempty"`
	ErrorKind         EvalErrorKind     `json:"errorKind,omitempty"`
	InExperiment      bool              `json:"inExperiment,omitempty"`
	BigSegmentsStatus BigSegmentsStatus `json:"bigSegmentsStatus,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r EvaluationReason) MarshalJSON() ([]byte, error) {
	out := reasonJSON{
		Kind:            r.kind,
		RuleID:          r.ruleID,
		PrerequisiteKey: r.prerequisiteKey,
		ErrorKind:       r.errorKind,
		InExperiment:    r.inExperiment,
	}
	if r.kind == EvalReasonRuleMatch {
		idx := r.ruleIndex
		out.RuleIndex = &idx
	}
	if status, ok := r.GetBigSegmentsStatus(); ok {
		out.BigSegmentsStatus = status
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *EvaluationReason) UnmarshalJSON(data []byte) error {
	var in reasonJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = EvaluationReason{
		kind:            in.Kind,
		ruleID:          in.RuleID,
		prerequisiteKey: in.PrerequisiteKey,
		errorKind:       in.ErrorKind,
		inExperiment:    in.InExperiment,
	}
	if in.RuleIndex != nil {
		r.ruleIndex = *in.RuleIndex
	}
	if in.BigSegmentsStatus != "" {
		r.bigSegmentsStatus = in.BigSegmentsStatus
		r.hasBigSegments = true
	}
	return nil
}
