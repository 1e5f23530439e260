package ldmodel_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
)

const flagJSON = `{
	"key": "my-flag",
	"version": 3,
	"on": true,
	"prerequisites": [{"key": "dep-flag", "variation": 0}],
	"targets": [{"values": ["u1"], "variation": 1}],
	"rules": [
		{
			"id": "rule1",
			"clauses": [{"attribute": "name", "op": "in", "values": ["bob"]}],
			"variation": 1
		}
	],
	"fallthrough": {"variation": 0},
	"offVariation": 0,
	"variations": [false, true],
	"salt": "abc"
}`

func TestUnmarshalFeatureFlagRoundTrip(t *testing.T) {
	flag, err := ldmodel.UnmarshalFeatureFlag([]byte(flagJSON))
	require.NoError(t, err)
	assert.Equal(t, "my-flag", flag.Key)
	assert.Equal(t, 3, flag.Version)
	assert.True(t, flag.On)
	require.Len(t, flag.Prerequisites, 1)
	assert.Equal(t, "dep-flag", flag.Prerequisites[0].Key)
	require.Len(t, flag.Rules, 1)
	assert.Equal(t, "rule1", flag.Rules[0].ID)
	require.NotNil(t, flag.OffVariation)
	assert.Equal(t, 0, *flag.OffVariation)

	out, err := ldmodel.MarshalFeatureFlag(flag)
	require.NoError(t, err)

	flag2, err := ldmodel.UnmarshalFeatureFlag(out)
	require.NoError(t, err)
	assert.Equal(t, flag.Key, flag2.Key)
	assert.Equal(t, flag.Version, flag2.Version)
	assert.Equal(t, flag.Rules[0].Clauses[0].Attribute, flag2.Rules[0].Clauses[0].Attribute)
}

const segmentJSON = `{
	"key": "my-segment",
	"version": 2,
	"included": ["u1", "u2"],
	"excluded": ["u3"],
	"rules": [
		{"clauses": [{"attribute": "country", "op": "in", "values": ["us"]}]}
	],
	"salt": "xyz"
}`

func TestUnmarshalSegmentRoundTrip(t *testing.T) {
	seg, err := ldmodel.UnmarshalSegment([]byte(segmentJSON))
	require.NoError(t, err)
	assert.Equal(t, "my-segment", seg.Key)
	assert.Equal(t, 2, seg.Version)
	assert.Equal(t, []string{"u1", "u2"}, seg.Included)
	assert.Equal(t, []string{"u3"}, seg.Excluded)
	require.Len(t, seg.Rules, 1)

	out, err := ldmodel.MarshalSegment(seg)
	require.NoError(t, err)

	seg2, err := ldmodel.UnmarshalSegment(out)
	require.NoError(t, err)
	assert.Equal(t, seg.Key, seg2.Key)
	assert.Equal(t, seg.Included, seg2.Included)
}

func TestUnmarshalAllData(t *testing.T) {
	payload := `{"flags":{"my-flag":` + flagJSON + `},"segments":{"my-segment":` + segmentJSON + `}}`
	var all ldmodel.AllData
	require.NoError(t, json.Unmarshal([]byte(payload), &all))
	assert.Contains(t, all.Flags, "my-flag")
	assert.Contains(t, all.Segments, "my-segment")
}
