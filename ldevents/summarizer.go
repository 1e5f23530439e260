package ldevents

import (
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldtime"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// eventSummarizer accumulates per-flag evaluation counters for one flush interval. Its methods
// are deliberately not safe for concurrent use; the event dispatcher only ever calls them from its
// own single goroutine.
type eventSummarizer struct {
	state eventSummary
}

type eventSummary struct {
	counters     map[counterKey]*counterValue
	contextKinds map[string]map[ldcontext.Kind]struct{}
	startDate    ldtime.UnixMillisecondTime
	endDate      ldtime.UnixMillisecondTime
}

type counterKey struct {
	key       string
	variation int
	version   int
}

type counterValue struct {
	count       int64
	flagValue   ldvalue.Value
	flagDefault ldvalue.Value
	unknown     bool
}

func newEventSummarizer() eventSummarizer {
	return eventSummarizer{state: newEventSummary()}
}

func newEventSummary() eventSummary {
	return eventSummary{
		counters:     make(map[counterKey]*counterValue),
		contextKinds: make(map[string]map[ldcontext.Kind]struct{}),
	}
}

// summarizeEvent updates the counters for a feature-request event; all other event types are
// ignored by the summary.
func (s *eventSummarizer) summarizeEvent(evt Event) {
	fe, ok := evt.(FeatureRequestEvent)
	if !ok {
		return
	}

	key := counterKey{key: fe.Key, variation: fe.Variation.VariationIndex, version: fe.Version}
	if existing, ok := s.state.counters[key]; ok {
		existing.count++
	} else {
		s.state.counters[key] = &counterValue{
			count:       1,
			flagValue:   fe.Value,
			flagDefault: fe.Default,
			unknown:     fe.Variation.IsDefaultValue() && fe.Version == 0,
		}
	}

	kinds := s.state.contextKinds[fe.Key]
	if kinds == nil {
		kinds = make(map[ldcontext.Kind]struct{})
		s.state.contextKinds[fe.Key] = kinds
	}
	for i := 0; i < fe.Context.IndividualContextCount(); i++ {
		if single, ok := fe.Context.IndividualContextByIndex(i); ok && single.Kind() != "" {
			kinds[single.Kind()] = struct{}{}
		}
	}

	if s.state.startDate == 0 || fe.CreationDate < s.state.startDate {
		s.state.startDate = fe.CreationDate
	}
	if fe.CreationDate > s.state.endDate {
		s.state.endDate = fe.CreationDate
	}
}

func (s *eventSummarizer) snapshot() eventSummary {
	return s.state
}

func (s *eventSummarizer) reset() {
	s.state = newEventSummary()
}
