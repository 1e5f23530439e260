package ldmodel

import (
	"regexp"
	"strings"
	"time"

	"github.com/blang/semver"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// ClauseMatchesContext returns true if the given context matches the clause's attribute test.
// It does not handle OperatorSegmentMatch, which requires looking up a segment in the current
// dataset; callers must special-case that operator before calling this function.
//
// The clause and context are passed by reference for efficiency only; this function does not
// modify either.
func ClauseMatchesContext(c *Clause, context *ldcontext.Context) bool {
	single, ok := context.ContextByKind(c.EffectiveContextKind())
	if !ok {
		return false
	}
	cValue, found := single.GetValueForRef(c.Attribute)
	if !found || cValue.IsNull() {
		return false
	}
	matchFn := operatorFn(c.Op)

	if cValue.Type() == ldvalue.ArrayType {
		for i := 0; i < cValue.Count(); i++ {
			if matchAny(c.Op, matchFn, cValue.GetByIndex(i), c.Values, c.preprocessed) {
				return maybeNegate(c.Negate, true)
			}
		}
		return maybeNegate(c.Negate, false)
	}
	return maybeNegate(c.Negate, matchAny(c.Op, matchFn, cValue, c.Values, c.preprocessed))
}

func maybeNegate(negate, result bool) bool {
	if negate {
		return !result
	}
	return result
}

func matchAny(op Operator, fn opFn, value ldvalue.Value, values []ldvalue.Value, preprocessed clausePreprocessedData) bool {
	if op == OperatorIn && preprocessed.valuesMap != nil {
		if key := asPrimitiveValueKey(value); key.isValid() {
			return preprocessed.valuesMap[key]
		}
	}
	preValues := preprocessed.values
	for i, v := range values {
		var p clausePreprocessedValue
		if preValues != nil && i < len(preValues) {
			p = preValues[i]
		}
		if fn(value, v, p) {
			return true
		}
	}
	return false
}

type opFn func(contextValue ldvalue.Value, clauseValue ldvalue.Value, preprocessed clausePreprocessedValue) bool

var allOps = map[Operator]opFn{
	OperatorIn:                 operatorInFn,
	OperatorEndsWith:           operatorEndsWithFn,
	OperatorStartsWith:         operatorStartsWithFn,
	OperatorMatches:            operatorMatchesFn,
	OperatorContains:           operatorContainsFn,
	OperatorLessThan:           operatorLessThanFn,
	OperatorLessThanOrEqual:    operatorLessThanOrEqualFn,
	OperatorGreaterThan:        operatorGreaterThanFn,
	OperatorGreaterThanOrEqual: operatorGreaterThanOrEqualFn,
	OperatorBefore:             operatorBeforeFn,
	OperatorAfter:              operatorAfterFn,
	OperatorSemVerEqual:        operatorSemVerEqualFn,
	OperatorSemVerLessThan:     operatorSemVerLessThanFn,
	OperatorSemVerGreaterThan:  operatorSemVerGreaterThanFn,
}

// operatorFn returns the matching function for an operator, or operatorNoneFn if the operator is
// not recognized. An unrecognized operator must never match but must also never fail the
// overall evaluation.
func operatorFn(operator Operator) opFn {
	if op, ok := allOps[operator]; ok {
		return op
	}
	return operatorNoneFn
}

func operatorInFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return cValue.Equal(clauseValue)
}

func stringOperator(cValue, clauseValue ldvalue.Value, fn func(string, string) bool) bool {
	if cValue.Type() == ldvalue.StringType && clauseValue.Type() == ldvalue.StringType {
		return fn(cValue.StringValue(), clauseValue.StringValue())
	}
	return false
}

func operatorStartsWithFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return stringOperator(cValue, clauseValue, strings.HasPrefix)
}

func operatorEndsWithFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return stringOperator(cValue, clauseValue, strings.HasSuffix)
}

func operatorMatchesFn(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue) bool {
	if pre.computed {
		if cValue.Type() != ldvalue.StringType || !pre.valid {
			return false
		}
		return pre.parsedRegexp.MatchString(cValue.StringValue())
	}
	return stringOperator(cValue, clauseValue, func(u, c string) bool {
		matched, err := regexp.MatchString(c, u)
		return err == nil && matched
	})
}

func operatorContainsFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return stringOperator(cValue, clauseValue, strings.Contains)
}

func numericOperator(cValue, clauseValue ldvalue.Value, fn func(float64, float64) bool) bool {
	if cValue.IsNumber() && clauseValue.IsNumber() {
		return fn(cValue.Float64Value(), clauseValue.Float64Value())
	}
	return false
}

func operatorLessThanFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return numericOperator(cValue, clauseValue, func(u, c float64) bool { return u < c })
}

func operatorLessThanOrEqualFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return numericOperator(cValue, clauseValue, func(u, c float64) bool { return u <= c })
}

func operatorGreaterThanFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return numericOperator(cValue, clauseValue, func(u, c float64) bool { return u > c })
}

func operatorGreaterThanOrEqualFn(cValue, clauseValue ldvalue.Value, _ clausePreprocessedValue) bool {
	return numericOperator(cValue, clauseValue, func(u, c float64) bool { return u >= c })
}

func dateOperator(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue, fn func(time.Time, time.Time) bool) bool {
	if pre.computed {
		if !pre.valid {
			return false
		}
		if uTime, ok := parseDateTime(cValue); ok {
			return fn(uTime, pre.parsedTime)
		}
		return false
	}
	if uTime, ok := parseDateTime(cValue); ok {
		if cTime, ok := parseDateTime(clauseValue); ok {
			return fn(uTime, cTime)
		}
	}
	return false
}

func operatorBeforeFn(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue) bool {
	return dateOperator(cValue, clauseValue, pre, time.Time.Before)
}

func operatorAfterFn(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue) bool {
	return dateOperator(cValue, clauseValue, pre, time.Time.After)
}

func semVerOperator(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue, fn func(semver.Version, semver.Version) bool) bool {
	if pre.computed {
		if !pre.valid {
			return false
		}
		if uVer, ok := parseSemVer(cValue); ok {
			return fn(uVer, pre.parsedSemver)
		}
		return false
	}
	if u, ok := parseSemVer(cValue); ok {
		if c, ok := parseSemVer(clauseValue); ok {
			return fn(u, c)
		}
	}
	return false
}

func operatorSemVerEqualFn(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue) bool {
	return semVerOperator(cValue, clauseValue, pre, semver.Version.Equals)
}

func operatorSemVerLessThanFn(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue) bool {
	return semVerOperator(cValue, clauseValue, pre, semver.Version.LT)
}

func operatorSemVerGreaterThanFn(cValue, clauseValue ldvalue.Value, pre clausePreprocessedValue) bool {
	return semVerOperator(cValue, clauseValue, pre, semver.Version.GT)
}

func operatorNoneFn(_, _ ldvalue.Value, _ clausePreprocessedValue) bool {
	return false
}
