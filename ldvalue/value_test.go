package ldvalue_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

func TestValueTypesAndAccessors(t *testing.T) {
	assert.Equal(t, ldvalue.NullType, ldvalue.Null().Type())
	assert.True(t, ldvalue.Null().IsNull())

	assert.Equal(t, ldvalue.BoolType, ldvalue.Bool(true).Type())
	assert.True(t, ldvalue.Bool(true).BoolValue())
	assert.False(t, ldvalue.Bool(false).BoolValue())

	assert.Equal(t, ldvalue.NumberType, ldvalue.Int(3).Type())
	assert.True(t, ldvalue.Int(3).IsInt())
	assert.False(t, ldvalue.Float64(3.5).IsInt())
	assert.Equal(t, 3, ldvalue.Int(3).IntValue())
	assert.Equal(t, -3, ldvalue.Float64(-3.9).IntValue(), "truncates toward zero")

	assert.Equal(t, "hi", ldvalue.String("hi").StringValue())
	assert.Equal(t, "", ldvalue.Bool(true).StringValue(), "wrong-type accessor returns zero value")
}

func TestValueEquality(t *testing.T) {
	assert.True(t, ldvalue.Int(1).Equal(ldvalue.Int(1)))
	assert.False(t, ldvalue.Int(1).Equal(ldvalue.Int(2)))
	assert.True(t, ldvalue.ArrayOf(ldvalue.Int(1), ldvalue.String("a")).Equal(
		ldvalue.ArrayOf(ldvalue.Int(1), ldvalue.String("a"))))
	assert.False(t, ldvalue.ArrayOf(ldvalue.Int(1)).Equal(ldvalue.ArrayOf(ldvalue.Int(1), ldvalue.Int(2))))

	obj1 := ldvalue.CopyObject(map[string]ldvalue.Value{"a": ldvalue.Int(1), "b": ldvalue.Bool(true)})
	obj2 := ldvalue.CopyObject(map[string]ldvalue.Value{"b": ldvalue.Bool(true), "a": ldvalue.Int(1)})
	assert.True(t, obj1.Equal(obj2))
}

func TestValueArrayAndObjectAccess(t *testing.T) {
	arr := ldvalue.ArrayOf(ldvalue.Int(10), ldvalue.Int(20))
	assert.Equal(t, 2, arr.Count())
	assert.Equal(t, ldvalue.Int(10), arr.GetByIndex(0))
	assert.Equal(t, ldvalue.Null(), arr.GetByIndex(5), "out of range returns null")

	obj := ldvalue.CopyObject(map[string]ldvalue.Value{"x": ldvalue.Int(1)})
	v, ok := obj.TryGetByKey("x")
	assert.True(t, ok)
	assert.Equal(t, ldvalue.Int(1), v)
	_, ok = obj.TryGetByKey("y")
	assert.False(t, ok)
}

func TestValueJSONRoundTrip(t *testing.T) {
	cases := []string{
		`null`,
		`true`,
		`false`,
		`42`,
		`42.5`,
		`"a string"`,
		`[1,2,3]`,
		`{"a":1,"b":[true,false]}`,
	}
	for _, raw := range cases {
		var v ldvalue.Value
		require.NoError(t, json.Unmarshal([]byte(raw), &v))
		out, err := json.Marshal(v)
		require.NoError(t, err)

		var expected, actual interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &expected))
		require.NoError(t, json.Unmarshal(out, &actual))
		assert.Equal(t, expected, actual, "round trip of %s", raw)
	}
}

func TestOptionalString(t *testing.T) {
	undefined := ldvalue.OptionalString{}
	assert.False(t, undefined.IsDefined())
	assert.Equal(t, ldvalue.Null(), undefined.AsValue())

	defined := ldvalue.NewOptionalString("hi")
	assert.True(t, defined.IsDefined())
	assert.Equal(t, ldvalue.String("hi"), defined.AsValue())
	assert.Equal(t, "hi", *defined.AsPointer())
}
