package ldcontext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

func TestSimpleContext(t *testing.T) {
	c := ldcontext.New("u1")
	assert.True(t, c.Valid())
	assert.NoError(t, c.Err())
	assert.Equal(t, ldcontext.DefaultKind, c.Kind())
	assert.Equal(t, "u1", c.Key())
	assert.Equal(t, "u1", c.FullyQualifiedKey())
}

func TestEmptyKeyIsInvalid(t *testing.T) {
	c := ldcontext.New("")
	assert.False(t, c.Valid())
	assert.Error(t, c.Err())
}

func TestBuilderAttributesAndPrivate(t *testing.T) {
	c := ldcontext.Builder("u1").
		Kind("org").
		Name("Acme").
		Anonymous(true).
		SetString("plan", "enterprise").
		SetInt("seats", 42).
		Private("plan").
		Build()

	assert.True(t, c.Valid())
	assert.Equal(t, ldcontext.Kind("org"), c.Kind())
	assert.True(t, c.IsAnonymous())
	assert.Equal(t, "Acme", c.GetName().StringValue())
	assert.Equal(t, ldvalue.String("enterprise"), c.GetValue("plan"))
	assert.Equal(t, ldvalue.Int(42), c.GetValue("seats"))
	assert.Equal(t, []string{"plan"}, c.PrivateAttributes())
	assert.Equal(t, "org:u1", c.FullyQualifiedKey())
}

func TestBuilderIgnoresBuiltInNamesViaSetValue(t *testing.T) {
	c := ldcontext.Builder("u1").SetString("key", "ignored").SetBool("anonymous", true).Build()
	assert.Equal(t, "u1", c.Key())
	assert.False(t, c.IsAnonymous())
}

func TestMultiContext(t *testing.T) {
	user := ldcontext.Builder("u1").Kind(ldcontext.DefaultKind).Build()
	org := ldcontext.Builder("o1").Kind("org").Build()
	multi := ldcontext.NewMulti(user, org)

	assert.True(t, multi.IsMulti())
	assert.Equal(t, ldcontext.MultiKind, multi.Kind())
	assert.Equal(t, 2, multi.IndividualContextCount())

	single, ok := multi.ContextByKind("org")
	assert.True(t, ok)
	assert.Equal(t, "o1", single.Key())

	_, ok = multi.ContextByKind("device")
	assert.False(t, ok)

	assert.Equal(t, "org:o1:u1", multi.FullyQualifiedKey())
}

func TestMultiContextRejectsDuplicateKinds(t *testing.T) {
	a := ldcontext.Builder("a").Build()
	b := ldcontext.Builder("b").Build()
	multi := ldcontext.NewMulti(a, b)
	assert.False(t, multi.Valid())
}

func TestMultiContextRejectsNestedMulti(t *testing.T) {
	a := ldcontext.Builder("a").Kind("x").Build()
	b := ldcontext.Builder("b").Kind("y").Build()
	inner := ldcontext.NewMulti(a, b)
	c := ldcontext.Builder("c").Kind("z").Build()
	outer := ldcontext.NewMulti(inner, c)
	assert.False(t, outer.Valid())
}

func TestGetValueForRefNestedPath(t *testing.T) {
	address := ldvalue.CopyObject(map[string]ldvalue.Value{
		"city": ldvalue.String("Springfield"),
	})
	c := ldcontext.Builder("u1").SetValue("address", address).Build()

	v, ok := c.GetValueForRef("/address/city")
	assert.True(t, ok)
	assert.Equal(t, ldvalue.String("Springfield"), v)

	_, ok = c.GetValueForRef("/address/zip")
	assert.False(t, ok)
}

func TestFullyQualifiedKeyEscaping(t *testing.T) {
	c := ldcontext.Builder("a:b%c").Kind("org").Build()
	assert.Equal(t, "org:a%3Ab%25c", c.FullyQualifiedKey())
}
