package ldcontext

import "github.com/launchdarkly/go-server-sdk-sub010/ldvalue"

// ContextBuilder is a mutable builder for constructing a single-kind Context.
type ContextBuilder struct {
	kind              Kind
	key               string
	name              ldvalue.OptionalString
	anonymous         bool
	attributes        map[string]ldvalue.Value
	privateAttributes []string
}

// Builder creates a ContextBuilder for a context with the given key and the default kind.
func Builder(key string) *ContextBuilder {
	return &ContextBuilder{kind: DefaultKind, key: key}
}

// Kind sets the context kind. An empty string is treated as DefaultKind.
func (b *ContextBuilder) Kind(kind Kind) *ContextBuilder {
	if kind == "" {
		kind = DefaultKind
	}
	b.kind = kind
	return b
}

// Key sets the context key.
func (b *ContextBuilder) Key(key string) *ContextBuilder {
	b.key = key
	return b
}

// Name sets the context's name attribute.
func (b *ContextBuilder) Name(name string) *ContextBuilder {
	b.name = ldvalue.NewOptionalString(name)
	return b
}

// Anonymous sets whether the context is anonymous. Anonymous contexts are not shown on the
// LaunchDarkly dashboard contact list and are excluded from the event-pipeline's index event
// emission.
func (b *ContextBuilder) Anonymous(anonymous bool) *ContextBuilder {
	b.anonymous = anonymous
	return b
}

// SetValue sets a custom attribute. Setting "kind", "key", "name", or "anonymous" this way has no
// effect; use the dedicated builder methods for those.
func (b *ContextBuilder) SetValue(attrName string, value ldvalue.Value) *ContextBuilder {
	switch attrName {
	case "kind", "key", "name", "anonymous":
		return b
	}
	if b.attributes == nil {
		b.attributes = make(map[string]ldvalue.Value)
	}
	b.attributes[attrName] = value
	return b
}

// SetString is a convenience wrapper around SetValue for string attributes.
func (b *ContextBuilder) SetString(attrName, value string) *ContextBuilder {
	return b.SetValue(attrName, ldvalue.String(value))
}

// SetBool is a convenience wrapper around SetValue for boolean attributes.
func (b *ContextBuilder) SetBool(attrName string, value bool) *ContextBuilder {
	return b.SetValue(attrName, ldvalue.Bool(value))
}

// SetInt is a convenience wrapper around SetValue for integer attributes.
func (b *ContextBuilder) SetInt(attrName string, value int) *ContextBuilder {
	return b.SetValue(attrName, ldvalue.Int(value))
}

// Private marks one or more attribute references as private to this specific context, meaning the
// event pipeline will redact them from index/identify/feature event payloads.
func (b *ContextBuilder) Private(attrRefs ...string) *ContextBuilder {
	b.privateAttributes = append(b.privateAttributes, attrRefs...)
	return b
}

// Build finalizes the Context. A Context with an empty key is still returned, but Valid() will be
// false and evaluation will fail with USER_NOT_SPECIFIED.
func (b *ContextBuilder) Build() Context {
	c := Context{
		kind:              b.kind,
		key:               b.key,
		name:              b.name,
		anonymous:         b.anonymous,
		attributes:        b.attributes,
		privateAttributes: b.privateAttributes,
	}
	if b.key == "" {
		c.err = "context key must not be empty"
	}
	return c
}
