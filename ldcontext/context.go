// Package ldcontext defines the Context type representing the subject of a flag evaluation:
// a user, device, organization, or any other kind of entity, or a composite of several such
// entities ("multi-context").
package ldcontext

import (
	"sort"
	"strings"

	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

// Kind identifies what kind of entity a single-kind Context represents.
type Kind string

// DefaultKind is used for contexts that do not explicitly specify a kind; it is also the kind
// used by flag targets and rules that do not specify a context kind, for backward compatibility
// with user-only data models.
const DefaultKind Kind = "user"

// MultiKind is the pseudo-kind reported by a Context that is actually a container for several
// single-kind contexts.
const MultiKind Kind = "multi"

// Context represents a subject of flag evaluation: either a single kind of entity (kind + key +
// attributes), or a "multi-context" wrapping one single-kind Context per kind.
//
// Context values are immutable once built; use Builder (or New/NewWithKind) to construct one.
type Context struct {
	kind              Kind
	key               string
	name              ldvalue.OptionalString
	anonymous         bool
	attributes        map[string]ldvalue.Value
	privateAttributes []string
	multi             []Context
	err               string
}

// New creates a single-kind Context of the default kind with only a key. This is the simplest
// possible valid context.
func New(key string) Context {
	return NewWithKind(DefaultKind, key)
}

// NewWithKind creates a single-kind Context with the given kind and key.
func NewWithKind(kind Kind, key string) Context {
	return Builder(key).Kind(kind).Build()
}

// NewMulti combines several single-kind Contexts into one multi-context. Each contributing
// context must have a distinct, non-empty kind; contexts that are themselves multi-contexts are
// rejected.
func NewMulti(contexts ...Context) Context {
	if len(contexts) == 0 {
		return Context{err: "multi-context must contain at least one context"}
	}
	if len(contexts) == 1 {
		return contexts[0]
	}
	seen := make(map[Kind]bool, len(contexts))
	copied := make([]Context, 0, len(contexts))
	for _, c := range contexts {
		if c.err != "" {
			return Context{err: c.err}
		}
		if c.IsMulti() {
			return Context{err: "multi-context cannot contain another multi-context"}
		}
		if seen[c.kind] {
			return Context{err: "multi-context cannot contain duplicate kind " + string(c.kind)}
		}
		seen[c.kind] = true
		copied = append(copied, c)
	}
	sort.Slice(copied, func(i, j int) bool { return copied[i].kind < copied[j].kind })
	return Context{kind: MultiKind, multi: copied}
}

// Kind returns MultiKind for a multi-context, or the single context's kind otherwise.
func (c Context) Kind() Kind { return c.kind }

// IsMulti returns true if this is a multi-context.
func (c Context) IsMulti() bool { return c.kind == MultiKind }

// Key returns the context's key. For a multi-context this returns "".
func (c Context) Key() string { return c.key }

// GetName returns the context's name attribute, if any.
func (c Context) GetName() ldvalue.OptionalString { return c.name }

// IsAnonymous returns the anonymous flag of a single-kind context.
func (c Context) IsAnonymous() bool { return c.anonymous }

// Err returns a non-nil validation error if the context (or, for a multi-context, any of its
// members) is invalid, most commonly an empty key.
func (c Context) Err() error {
	if c.err == "" {
		return nil
	}
	return contextError(c.err)
}

type contextError string

func (e contextError) Error() string { return string(e) }

// Valid returns true if Err() is nil.
func (c Context) Valid() bool { return c.err == "" }

// MultiKindContexts returns the individual contexts of a multi-context, sorted by kind, or nil
// for a single-kind context.
func (c Context) MultiKindContexts() []Context {
	if !c.IsMulti() {
		return nil
	}
	return c.multi
}

// IndividualContextCount returns the number of single-kind contexts represented, 1 for a
// single-kind context or the member count for a multi-context.
func (c Context) IndividualContextCount() int {
	if c.IsMulti() {
		return len(c.multi)
	}
	return 1
}

// IndividualContextByIndex returns the i'th single-kind context: itself if not a multi-context
// and i==0, or the i'th member of a multi-context.
func (c Context) IndividualContextByIndex(i int) (Context, bool) {
	if c.IsMulti() {
		if i < 0 || i >= len(c.multi) {
			return Context{}, false
		}
		return c.multi[i], true
	}
	if i == 0 {
		return c, true
	}
	return Context{}, false
}

// ContextByKind returns the single-kind context matching the given kind. For a non-multi Context,
// this returns itself if the kind matches.
func (c Context) ContextByKind(kind Kind) (Context, bool) {
	if c.IsMulti() {
		for _, sub := range c.multi {
			if sub.kind == kind {
				return sub, true
			}
		}
		return Context{}, false
	}
	if c.kind == kind {
		return c, true
	}
	return Context{}, false
}

// FullyQualifiedKey returns a string that uniquely identifies this context for purposes such as
// the secure mode hash and the analytics-event dedup cache. For a single context of the default
// kind it is just the key; for any other kind it is "kind:key"; for a multi-context it is the
// fully-qualified keys of its members, in kind order, joined by ":" (so a default-kind member
// contributes just its key).
func (c Context) FullyQualifiedKey() string {
	if c.IsMulti() {
		parts := make([]string, 0, len(c.multi))
		for _, sub := range c.multi {
			parts = append(parts, sub.singleFullyQualifiedKey())
		}
		return strings.Join(parts, ":")
	}
	return c.singleFullyQualifiedKey()
}

func (c Context) singleFullyQualifiedKey() string {
	if c.kind == DefaultKind || c.kind == "" {
		return c.key
	}
	return string(c.kind) + ":" + escapeKeyForFullyQualifiedKey(c.key)
}

func escapeKeyForFullyQualifiedKey(key string) string {
	if !strings.ContainsAny(key, "%:") {
		return key
	}
	r := strings.NewReplacer("%", "%25", ":", "%3A")
	return r.Replace(key)
}

// GetValue returns the value of a built-in or custom attribute by its plain (non-nested) name:
// "kind", "key", "name", "anonymous", or any custom attribute. Returns Null for a multi-context or
// for an attribute that is not set.
func (c Context) GetValue(attrName string) ldvalue.Value {
	v, _ := c.GetValueForRef(attrName)
	return v
}

// GetValueForRef resolves an attribute reference, which may be a plain attribute name or a
// "/"-delimited path into a custom attribute's nested object/array structure (e.g.
// "/address/city"). It returns the resolved value and whether the reference was found.
func (c Context) GetValueForRef(ref string) (ldvalue.Value, bool) {
	if c.IsMulti() {
		return ldvalue.Null(), false
	}
	if ref == "" {
		return ldvalue.Null(), false
	}
	if !strings.HasPrefix(ref, "/") {
		return c.getTopLevelAttribute(ref)
	}
	segments := strings.Split(strings.TrimPrefix(ref, "/"), "/")
	for i, seg := range segments {
		segments[i] = unescapeRefSegment(seg)
	}
	val, ok := c.getTopLevelAttribute(segments[0])
	if !ok {
		return ldvalue.Null(), false
	}
	for _, seg := range segments[1:] {
		next, found := val.TryGetByKey(seg)
		if !found {
			return ldvalue.Null(), false
		}
		val = next
	}
	return val, true
}

func unescapeRefSegment(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	r := strings.NewReplacer("~1", "/", "~0", "~")
	return r.Replace(seg)
}

func (c Context) getTopLevelAttribute(name string) (ldvalue.Value, bool) {
	switch name {
	case "kind":
		return ldvalue.String(string(c.kind)), true
	case "key":
		return ldvalue.String(c.key), true
	case "name":
		if !c.name.IsDefined() {
			return ldvalue.Null(), false
		}
		return c.name.AsValue(), true
	case "anonymous":
		return ldvalue.Bool(c.anonymous), true
	default:
		v, ok := c.attributes[name]
		return v, ok
	}
}

// PrivateAttributes returns the list of attribute references marked private on this specific
// context (does not include any global/SDK-wide private-attribute configuration).
func (c Context) PrivateAttributes() []string {
	return c.privateAttributes
}

// OptionalAttributeNames returns the names of all non-built-in attributes set on this
// single-kind context, for use when building index/identify event payloads.
func (c Context) OptionalAttributeNames() []string {
	names := make([]string, 0, len(c.attributes))
	for k := range c.attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
