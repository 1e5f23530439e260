package ldevents

import (
	"github.com/launchdarkly/go-server-sdk-sub010/ldcontext"
	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// contextFilter produces the redacted context representation used in index/identify/debug event
// payloads: attributes matched by global private-attribute configuration, by the context's own
// declared private attributes, or implied by an anonymous context kind, are stripped from the
// output and their names recorded under
// "_meta.redactedAttributes" instead of the "_meta.privateAttributes" annotation contexts
// normally wear on the wire.
type contextFilter struct {
	allAttributesPrivate bool
	globalPrivateAttrs   []string
}

func newContextFilter(config EventsConfiguration) contextFilter {
	return contextFilter{
		allAttributesPrivate: config.AllAttributesPrivate,
		globalPrivateAttrs:   config.PrivateAttributeNames,
	}
}

// filter returns the event-ready JSON representation of a context, with redaction applied.
func (f *contextFilter) filter(context ldcontext.Context) ldvalue.Value {
	if context.IsMulti() {
		obj := ldvalue.ObjectBuildWithCapacity(context.IndividualContextCount() + 1)
		obj.Set("kind", ldvalue.String(string(ldcontext.MultiKind)))
		for i := 0; i < context.IndividualContextCount(); i++ {
			single, _ := context.IndividualContextByIndex(i)
			sub := f.filterSingle(single)
			obj.Set(string(single.Kind()), sub)
		}
		return obj.Build()
	}
	return f.filterSingle(context)
}

func (f *contextFilter) filterSingle(c ldcontext.Context) ldvalue.Value {
	redactAll := f.allAttributesPrivate || c.IsAnonymous()
	var redacted []string

	isPrivate := func(name string) bool {
		if redactAll {
			return true
		}
		for _, a := range c.PrivateAttributes() {
			if a == name {
				return true
			}
		}
		for _, a := range f.globalPrivateAttrs {
			if a == name {
				return true
			}
		}
		return false
	}

	obj := ldvalue.ObjectBuild()
	obj.Set("kind", ldvalue.String(string(c.Kind())))
	obj.Set("key", ldvalue.String(c.Key()))
	if c.IsAnonymous() {
		obj.Set("anonymous", ldvalue.Bool(true))
	}
	if name := c.GetName(); name.IsDefined() {
		if isPrivate("name") {
			redacted = append(redacted, "name")
		} else {
			obj.Set("name", name.AsValue())
		}
	}
	for _, attr := range c.OptionalAttributeNames() {
		if isPrivate(attr) {
			redacted = append(redacted, attr)
			continue
		}
		obj.Set(attr, c.GetValue(attr))
	}
	if len(redacted) > 0 {
		meta := ldvalue.ObjectBuild().Set(
			"redactedAttributes",
			stringsToValueArray(redacted),
		).Build()
		obj.Set("_meta", meta)
	}
	return obj.Build()
}

func stringsToValueArray(ss []string) ldvalue.Value {
	b := ldvalue.ArrayBuildWithCapacity(len(ss))
	for _, s := range ss {
		b.Add(ldvalue.String(s))
	}
	return b.Build()
}
