package ldevents

import (
	"encoding/json"
	"sort"

	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldreason"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// eventOutputFormatter converts buffered Event values (plus a final summary) into the wire
// representation the events service expects: one JSON object per event, plus a trailing "summary"
// object if any flags were evaluated during the interval.
type eventOutputFormatter struct {
	contextFilter contextFilter
	config        EventsConfiguration
}

func newEventOutputFormatter(config EventsConfiguration) eventOutputFormatter {
	return eventOutputFormatter{contextFilter: newContextFilter(config), config: config}
}

func (f *eventOutputFormatter) makeOutputEvents(events []Event, summary eventSummary) []ldvalue.Value {
	var out []ldvalue.Value
	for _, evt := range events {
		if ev, ok := f.makeOutputEvent(evt); ok {
			out = append(out, ev)
		}
	}
	if len(summary.counters) > 0 {
		out = append(out, f.makeSummaryEvent(summary))
	}
	return out
}

func (f *eventOutputFormatter) makeOutputEvent(evt Event) (ldvalue.Value, bool) {
	switch e := evt.(type) {
	case FeatureRequestEvent:
		kind := "feature"
		if e.Debug {
			kind = "debug"
		}
		b := ldvalue.ObjectBuild()
		b.Set("kind", ldvalue.String(kind))
		b.Set("creationDate", ldvalue.Float64(float64(e.CreationDate)))
		b.Set("key", ldvalue.String(e.Key))
		if e.Version > 0 {
			b.Set("version", ldvalue.Int(e.Version))
		}
		if e.Variation.VariationIndex != -1 {
			b.Set("variation", ldvalue.Int(e.Variation.VariationIndex))
		}
		b.Set("value", e.Value)
		if !e.Default.IsNull() {
			b.Set("default", e.Default)
		}
		if e.PrereqOf != "" {
			b.Set("prereqOf", ldvalue.String(e.PrereqOf))
		}
		if e.IncludeReason || e.Debug {
			b.Set("reason", reasonToValue(e.Variation.Reason))
		}
		if e.Debug {
			b.Set("context", f.contextFilter.filter(e.Context))
		} else {
			b.Set("contextKeys", f.contextKeysValue(e.Context))
		}
		return b.Build(), true

	case IdentifyEvent:
		b := ldvalue.ObjectBuild()
		b.Set("kind", ldvalue.String("identify"))
		b.Set("creationDate", ldvalue.Float64(float64(e.CreationDate)))
		b.Set("context", f.contextFilter.filter(e.Context))
		return b.Build(), true

	case IndexEvent:
		b := ldvalue.ObjectBuild()
		b.Set("kind", ldvalue.String("index"))
		b.Set("creationDate", ldvalue.Float64(float64(e.CreationDate)))
		b.Set("context", f.contextFilter.filter(e.Context))
		return b.Build(), true

	case CustomEvent:
		b := ldvalue.ObjectBuild()
		b.Set("kind", ldvalue.String("custom"))
		b.Set("creationDate", ldvalue.Float64(float64(e.CreationDate)))
		b.Set("key", ldvalue.String(e.Key))
		if !e.Data.IsNull() {
			b.Set("data", e.Data)
		}
		if e.HasMetric {
			b.Set("metricValue", ldvalue.Float64(e.MetricValue))
		}
		b.Set("contextKeys", f.contextKeysValue(e.Context))
		return b.Build(), true
	}
	return ldvalue.Null(), false
}

func (f *eventOutputFormatter) contextKeysValue(c ldcontext.Context) ldvalue.Value {
	obj := ldvalue.ObjectBuild()
	if c.IsMulti() {
		for i := 0; i < c.IndividualContextCount(); i++ {
			single, _ := c.IndividualContextByIndex(i)
			obj.Set(string(single.Kind()), ldvalue.String(single.Key()))
		}
		return obj.Build()
	}
	obj.Set(string(c.Kind()), ldvalue.String(c.Key()))
	return obj.Build()
}

func (f *eventOutputFormatter) makeSummaryEvent(summary eventSummary) ldvalue.Value {
	flagsBuilder := ldvalue.ObjectBuild()
	countersByFlag := make(map[string][]counterEntry)

	for key, counter := range summary.counters {
		countersByFlag[key.key] = append(countersByFlag[key.key], counterEntry{key, counter})
	}

	for flagKey, entries := range countersByFlag {
		countersArr := ldvalue.ArrayBuildWithCapacity(len(entries))
		var defaultVal ldvalue.Value
		for _, e := range entries {
			defaultVal = e.value.flagDefault
			cb := ldvalue.ObjectBuild()
			if e.key.version > 0 {
				cb.Set("version", ldvalue.Int(e.key.version))
			} else {
				cb.Set("unknown", ldvalue.Bool(true))
			}
			cb.Set("value", e.value.flagValue)
			if e.key.variation != -1 {
				cb.Set("variation", ldvalue.Int(e.key.variation))
			}
			cb.Set("count", ldvalue.Int(int(e.value.count)))
			countersArr.Add(cb.Build())
		}
		flagBuilder := ldvalue.ObjectBuild()
		flagBuilder.Set("default", defaultVal)
		if kinds := summary.contextKinds[flagKey]; len(kinds) > 0 {
			kindsArr := ldvalue.ArrayBuildWithCapacity(len(kinds))
			sorted := make([]string, 0, len(kinds))
			for k := range kinds {
				sorted = append(sorted, string(k))
			}
			sort.Strings(sorted)
			for _, k := range sorted {
				kindsArr.Add(ldvalue.String(k))
			}
			flagBuilder.Set("contextKinds", kindsArr.Build())
		}
		flagBuilder.Set("counters", countersArr.Build())
		flagsBuilder.Set(flagKey, flagBuilder.Build())
	}

	b := ldvalue.ObjectBuild()
	b.Set("kind", ldvalue.String("summary"))
	b.Set("startDate", ldvalue.Float64(float64(summary.startDate)))
	b.Set("endDate", ldvalue.Float64(float64(summary.endDate)))
	b.Set("features", flagsBuilder.Build())
	return b.Build()
}

type counterEntry struct {
	key   counterKey
	value *counterValue
}

// reasonToValue converts an EvaluationReason (which already knows how to marshal itself to the
// wire JSON shape) into an ldvalue.Value by round-tripping through its MarshalJSON.
func reasonToValue(r ldreason.EvaluationReason) ldvalue.Value {
	data, err := r.MarshalJSON()
	if err != nil {
		return ldvalue.Null()
	}
	var asInterface interface{}
	if err := json.Unmarshal(data, &asInterface); err != nil {
		return ldvalue.Null()
	}
	return ldvalue.FromInterface(asInterface)
}
