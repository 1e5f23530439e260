package ldmodel

import (
	"regexp"
	"time"

	"github.com/blang/semver"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// Operator identifies a clause comparison operator.
type Operator string

// The clause operators defined by the flag rule language. Any operator string not in this list is
// treated as an operator that never matches; unknown operators never fail evaluation.
const (
	OperatorIn                 Operator = "in"
	OperatorEndsWith           Operator = "endsWith"
	OperatorStartsWith         Operator = "startsWith"
	OperatorMatches            Operator = "matches"
	OperatorContains           Operator = "contains"
	OperatorLessThan           Operator = "lessThan"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorSemVerEqual        Operator = "semVerEqual"
	OperatorSemVerLessThan     Operator = "semVerLessThan"
	OperatorSemVerGreaterThan  Operator = "semVerGreaterThan"
	OperatorSegmentMatch       Operator = "segmentMatch"
)

// Clause is a single test condition within a FlagRule or SegmentRule.
type Clause struct {
	ContextKind ldcontext.Kind  `json:"contextKind,omitempty"`
	Attribute   string          `json:"attribute"`
	Op          Operator        `json:"op"`
	Values      []ldvalue.Value `json:"values"`
	Negate      bool            `json:"negate,omitempty"`

	preprocessed clausePreprocessedData
}

// EffectiveContextKind returns the context kind this clause tests, defaulting to
// ldcontext.DefaultKind.
func (c Clause) EffectiveContextKind() ldcontext.Kind {
	if c.ContextKind == "" {
		return ldcontext.DefaultKind
	}
	return c.ContextKind
}

type clausePreprocessedData struct {
	valuesMap map[primitiveValueKey]bool
	values    []clausePreprocessedValue
}

type clausePreprocessedValue struct {
	computed     bool
	valid        bool
	parsedRegexp *regexp.Regexp
	parsedTime   time.Time
	parsedSemver semver.Version
}

type primitiveValueKey struct {
	valid  bool
	kind   ldvalue.ValueType
	strVal string
	numVal float64
	boolV  bool
}

func (k primitiveValueKey) isValid() bool { return k.valid }

func asPrimitiveValueKey(v ldvalue.Value) primitiveValueKey {
	switch v.Type() {
	case ldvalue.StringType:
		return primitiveValueKey{valid: true, kind: ldvalue.StringType, strVal: v.StringValue()}
	case ldvalue.NumberType:
		return primitiveValueKey{valid: true, kind: ldvalue.NumberType, numVal: v.Float64Value()}
	case ldvalue.BoolType:
		return primitiveValueKey{valid: true, kind: ldvalue.BoolType, boolV: v.BoolValue()}
	default:
		return primitiveValueKey{}
	}
}

// Preprocess precomputes regexes, parsed dates, parsed semvers, and an `in`-operator lookup set
// so that repeated evaluations of the same flag/segment do not redo this work. It is called once
// by the data store/data source pipeline when a flag or segment is ingested.
func (c *Clause) Preprocess() {
	if c.Op == OperatorIn {
		m := make(map[primitiveValueKey]bool, len(c.Values))
		allPrimitive := true
		for _, v := range c.Values {
			key := asPrimitiveValueKey(v)
			if !key.isValid() {
				allPrimitive = false
				break
			}
			m[key] = true
		}
		if allPrimitive {
			c.preprocessed.valuesMap = m
		}
	}
	preValues := make([]clausePreprocessedValue, len(c.Values))
	for i, v := range c.Values {
		preValues[i] = preprocessClauseValue(c.Op, v)
	}
	c.preprocessed.values = preValues
}

func preprocessClauseValue(op Operator, v ldvalue.Value) clausePreprocessedValue {
	switch op {
	case OperatorMatches:
		if v.Type() != ldvalue.StringType {
			return clausePreprocessedValue{computed: true, valid: false}
		}
		re, err := regexp.Compile(v.StringValue())
		if err != nil {
			return clausePreprocessedValue{computed: true, valid: false}
		}
		return clausePreprocessedValue{computed: true, valid: true, parsedRegexp: re}
	case OperatorBefore, OperatorAfter:
		t, ok := parseDateTime(v)
		return clausePreprocessedValue{computed: true, valid: ok, parsedTime: t}
	case OperatorSemVerEqual, OperatorSemVerLessThan, OperatorSemVerGreaterThan:
		sv, ok := parseSemVer(v)
		return clausePreprocessedValue{computed: true, valid: ok, parsedSemver: sv}
	default:
		return clausePreprocessedValue{}
	}
}

func parseDateTime(v ldvalue.Value) (time.Time, bool) {
	switch v.Type() {
	case ldvalue.StringType:
		t, err := time.Parse(time.RFC3339Nano, v.StringValue())
		if err != nil {
			t, err = time.Parse(time.RFC3339, v.StringValue())
			if err != nil {
				return time.Time{}, false
			}
		}
		return t.UTC(), true
	case ldvalue.NumberType:
		ms := v.Float64Value()
		return time.Unix(int64(ms)/1000, (int64(ms)%1000)*int64(time.Millisecond)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// parseSemVer parses a string as a SemVer 2.0 version, padding missing minor/patch components
// with zero (so "2" and "2.1" are accepted as "2.0.0" and "2.1.0") the way the flag rule language
// allows, since strict SemVer requires all three components.
func parseSemVer(v ldvalue.Value) (semver.Version, bool) {
	if v.Type() != ldvalue.StringType {
		return semver.Version{}, false
	}
	s := v.StringValue()
	if sv, err := semver.Parse(s); err == nil {
		return sv, true
	}
	m := versionNumericComponentsRegex.FindStringSubmatch(s)
	if m == nil {
		return semver.Version{}, false
	}
	padded := m[0]
	rest := s[len(m[0]):]
	if m[1] == "" {
		padded += ".0"
	}
	if m[2] == "" {
		padded += ".0"
	}
	sv, err := semver.Parse(padded + rest)
	if err != nil {
		return semver.Version{}, false
	}
	return sv, true
}

var versionNumericComponentsRegex = regexp.MustCompile(`^\d+(\.\d+)?(\.\d+)?`)
