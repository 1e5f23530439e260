package ldmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

func contextWithAttr(attr string, value ldvalue.Value) ldcontext.Context {
	return ldcontext.Builder("u1").SetValue(attr, value).Build()
}

func clauseMatches(t *testing.T, c ldmodel.Clause, context ldcontext.Context) bool {
	t.Helper()
	c.Preprocess()
	return ldmodel.ClauseMatchesContext(&c, &context)
}

func TestInOperator(t *testing.T) {
	c := ldmodel.Clause{Attribute: "firstName", Op: ldmodel.OperatorIn, Values: []ldvalue.Value{ldvalue.String("bob"), ldvalue.String("carol")}}
	assert.True(t, clauseMatches(t, c, contextWithAttr("firstName", ldvalue.String("bob"))))
	assert.False(t, clauseMatches(t, c, contextWithAttr("firstName", ldvalue.String("dave"))))
}

func TestInOperatorOnArrayAttribute(t *testing.T) {
	c := ldmodel.Clause{Attribute: "roles", Op: ldmodel.OperatorIn, Values: []ldvalue.Value{ldvalue.String("admin")}}
	ctx := contextWithAttr("roles", ldvalue.ArrayOf(ldvalue.String("user"), ldvalue.String("admin")))
	assert.True(t, clauseMatches(t, c, ctx))
}

func TestNegateFlipsResult(t *testing.T) {
	c := ldmodel.Clause{Attribute: "firstName", Op: ldmodel.OperatorIn, Values: []ldvalue.Value{ldvalue.String("bob")}, Negate: true}
	assert.False(t, clauseMatches(t, c, contextWithAttr("firstName", ldvalue.String("bob"))))
	assert.True(t, clauseMatches(t, c, contextWithAttr("firstName", ldvalue.String("dave"))))
}

func TestStartsWithEndsWithContains(t *testing.T) {
	ctx := contextWithAttr("email", ldvalue.String("user@example.com"))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "email", Op: ldmodel.OperatorStartsWith, Values: []ldvalue.Value{ldvalue.String("user@")}}, ctx))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "email", Op: ldmodel.OperatorEndsWith, Values: []ldvalue.Value{ldvalue.String(".com")}}, ctx))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "email", Op: ldmodel.OperatorContains, Values: []ldvalue.Value{ldvalue.String("example")}}, ctx))
}

func TestMatchesRegexOperator(t *testing.T) {
	ctx := contextWithAttr("email", ldvalue.String("user@example.com"))
	c := ldmodel.Clause{Attribute: "email", Op: ldmodel.OperatorMatches, Values: []ldvalue.Value{ldvalue.String(`^\w+@example\.com$`)}}
	assert.True(t, clauseMatches(t, c, ctx))
}

func TestMatchesOperatorNeverMatchesNonString(t *testing.T) {
	ctx := contextWithAttr("age", ldvalue.Int(30))
	c := ldmodel.Clause{Attribute: "age", Op: ldmodel.OperatorMatches, Values: []ldvalue.Value{ldvalue.String(`\d+`)}}
	assert.False(t, clauseMatches(t, c, ctx))
}

func TestNumericOperators(t *testing.T) {
	ctx := contextWithAttr("age", ldvalue.Int(30))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "age", Op: ldmodel.OperatorLessThan, Values: []ldvalue.Value{ldvalue.Int(31)}}, ctx))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "age", Op: ldmodel.OperatorLessThanOrEqual, Values: []ldvalue.Value{ldvalue.Int(30)}}, ctx))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "age", Op: ldmodel.OperatorGreaterThan, Values: []ldvalue.Value{ldvalue.Int(29)}}, ctx))
	assert.True(t, clauseMatches(t, ldmodel.Clause{Attribute: "age", Op: ldmodel.OperatorGreaterThanOrEqual, Values: []ldvalue.Value{ldvalue.Int(30)}}, ctx))
	assert.False(t, clauseMatches(t, ldmodel.Clause{Attribute: "age", Op: ldmodel.OperatorLessThan, Values: []ldvalue.Value{ldvalue.Int(10)}}, ctx))
}

func TestBeforeAfterAcrossTimeZones(t *testing.T) {
	// Both are the same absolute instant in different zones; neither before nor after the other.
	ctx := contextWithAttr("joined", ldvalue.String("2020-01-01T00:00:00.000-05:00"))
	same := ldmodel.Clause{Attribute: "joined", Op: ldmodel.OperatorAfter, Values: []ldvalue.Value{ldvalue.String("2020-01-01T05:00:00.000Z")}}
	assert.False(t, clauseMatches(t, same, ctx))

	earlier := ldmodel.Clause{Attribute: "joined", Op: ldmodel.OperatorBefore, Values: []ldvalue.Value{ldvalue.String("2020-06-01T00:00:00.000Z")}}
	assert.True(t, clauseMatches(t, earlier, ctx))

	later := ldmodel.Clause{Attribute: "joined", Op: ldmodel.OperatorAfter, Values: []ldvalue.Value{ldvalue.String("2019-01-01T00:00:00.000Z")}}
	assert.True(t, clauseMatches(t, later, ctx))
}

func TestSemVerOperators(t *testing.T) {
	ctx := contextWithAttr("version", ldvalue.String("1.2.3+build"))
	eq := ldmodel.Clause{Attribute: "version", Op: ldmodel.OperatorSemVerEqual, Values: []ldvalue.Value{ldvalue.String("1.2.3")}}
	assert.True(t, clauseMatches(t, eq, ctx), "build metadata is ignored for equality")

	preCtx := contextWithAttr("version", ldvalue.String("1.2.3-pre"))
	assert.False(t, clauseMatches(t, eq, preCtx), "pre-release differs from release")

	lt := ldmodel.Clause{Attribute: "version", Op: ldmodel.OperatorSemVerLessThan, Values: []ldvalue.Value{ldvalue.String("1.3.0")}}
	assert.True(t, clauseMatches(t, lt, ctx))

	gt := ldmodel.Clause{Attribute: "version", Op: ldmodel.OperatorSemVerGreaterThan, Values: []ldvalue.Value{ldvalue.String("1.0.0")}}
	assert.True(t, clauseMatches(t, gt, ctx))
}

func TestUnknownOperatorNeverMatches(t *testing.T) {
	ctx := contextWithAttr("firstName", ldvalue.String("bob"))
	c := ldmodel.Clause{Attribute: "firstName", Op: "someFutureOperator", Values: []ldvalue.Value{ldvalue.String("bob")}}
	assert.False(t, clauseMatches(t, c, ctx))
}

func TestMissingAttributeNeverMatches(t *testing.T) {
	ctx := ldcontext.New("u1")
	c := ldmodel.Clause{Attribute: "nonexistent", Op: ldmodel.OperatorIn, Values: []ldvalue.Value{ldvalue.String("x")}}
	assert.False(t, clauseMatches(t, c, ctx))
}
