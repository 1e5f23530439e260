package ldevents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

func makeFeatureEvent(key string, variation int, version int, creationDate uint64) FeatureRequestEvent {
	detail := ldreason.NewEvaluationDetail(ldvalue.Bool(true), variation, ldreason.NewEvalReasonFallthrough())
	return FeatureRequestEvent{
		BaseEvent: BaseEvent{CreationDate: ldtime.UnixMillisecondTime(creationDate)},
		Key:       key,
		Value:     ldvalue.Bool(true),
		Default:   ldvalue.Bool(false),
		Variation: detail,
		Version:   version,
	}
}

func TestSummarizerAggregatesRepeatedEvaluationsIntoOneCounter(t *testing.T) {
	s := newEventSummarizer()
	for i := 0; i < 100; i++ {
		s.summarizeEvent(makeFeatureEvent("flag1", 1, 3, 1000))
	}
	for i := 0; i < 50; i++ {
		s.summarizeEvent(makeFeatureEvent("flag1", 1, 3, 1000))
	}

	snap := s.snapshot()
	assert.Len(t, snap.counters, 1)
	for _, v := range snap.counters {
		assert.Equal(t, int64(150), v.count)
	}
}

func TestSummarizerKeepsSeparateCountersPerVariationAndVersion(t *testing.T) {
	s := newEventSummarizer()
	s.summarizeEvent(makeFeatureEvent("flag1", 0, 1, 1000))
	s.summarizeEvent(makeFeatureEvent("flag1", 1, 1, 1000))
	s.summarizeEvent(makeFeatureEvent("flag1", 0, 2, 1000))

	snap := s.snapshot()
	assert.Len(t, snap.counters, 3)
}

func TestSummarizerTracksStartAndEndDate(t *testing.T) {
	s := newEventSummarizer()
	s.summarizeEvent(makeFeatureEvent("flag1", 0, 1, 5000))
	s.summarizeEvent(makeFeatureEvent("flag1", 0, 1, 1000))
	s.summarizeEvent(makeFeatureEvent("flag1", 0, 1, 9000))

	snap := s.snapshot()
	assert.Equal(t, ldtime.UnixMillisecondTime(1000), snap.startDate)
	assert.Equal(t, ldtime.UnixMillisecondTime(9000), snap.endDate)
}

func TestSummarizerIgnoresNonFeatureEvents(t *testing.T) {
	s := newEventSummarizer()
	s.summarizeEvent(IdentifyEvent{BaseEvent: BaseEvent{CreationDate: ldtime.UnixMillisecondTime(1000)}})

	snap := s.snapshot()
	assert.Empty(t, snap.counters)
}

func TestSummarizerResetClearsState(t *testing.T) {
	s := newEventSummarizer()
	s.summarizeEvent(makeFeatureEvent("flag1", 0, 1, 1000))
	s.reset()

	snap := s.snapshot()
	assert.Empty(t, snap.counters)
	assert.Equal(t, ldtime.UnixMillisecondTime(0), snap.startDate)
}
