package ldcontext

import (
	"encoding/json"

	"github.com/launchdarkly/go-server-sdk-sub010/ldvalue"
)

type contextMetaJSON struct {
	PrivateAttributes []string `json:"privateAttributes,omitempty"`
}

// MarshalJSON implements json.Marshaler using the LaunchDarkly context wire format: a single-kind
// context is a flat object with "kind"/"key"/"name"/"anonymous" plus custom attributes at the top
// level; a multi-context is {"kind":"multi", "<kind>": {...}, ...}.
func (c Context) MarshalJSON() ([]byte, error) {
	if c.IsMulti() {
		m := make(map[string]interface{}, len(c.multi)+1)
		m["kind"] = string(MultiKind)
		for _, sub := range c.multi {
			raw, err := sub.marshalSingleAsMap()
			if err != nil {
				return nil, err
			}
			delete(raw, "kind")
			m[string(sub.kind)] = raw
		}
		return json.Marshal(m)
	}
	m, err := c.marshalSingleAsMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (c Context) marshalSingleAsMap() (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(c.attributes)+4)
	for k, v := range c.attributes {
		m[k] = v.AsArbitraryValue()
	}
	m["kind"] = string(c.kind)
	m["key"] = c.key
	if c.name.IsDefined() {
		m["name"] = c.name.StringValue()
	}
	if c.anonymous {
		m["anonymous"] = true
	}
	if len(c.privateAttributes) > 0 {
		m["_meta"] = contextMetaJSON{PrivateAttributes: c.privateAttributes}
	}
	return m, nil
}

// UnmarshalJSON implements json.Unmarshaler for both single- and multi-kind context wire formats.
func (c *Context) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var kind Kind
	if kindRaw, ok := raw["kind"]; ok {
		if err := json.Unmarshal(kindRaw, &kind); err != nil {
			return err
		}
	}
	if kind == MultiKind {
		contexts := make([]Context, 0, len(raw)-1)
		for k, v := range raw {
			if k == "kind" {
				continue
			}
			var sub Context
			if err := sub.unmarshalSingleKnownKind(Kind(k), v); err != nil {
				return err
			}
			contexts = append(contexts, sub)
		}
		*c = NewMulti(contexts...)
		return nil
	}
	return c.unmarshalSingleKnownKind(kind, data)
}

func (c *Context) unmarshalSingleKnownKind(kind Kind, data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	b := Builder("")
	b.Kind(kind)
	for k, v := range m {
		switch k {
		case "kind":
			continue
		case "key":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			b.Key(s)
		case "name":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			b.Name(s)
		case "anonymous":
			var bv bool
			if err := json.Unmarshal(v, &bv); err != nil {
				return err
			}
			b.Anonymous(bv)
		case "_meta":
			var meta contextMetaJSON
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			b.Private(meta.PrivateAttributes...)
		default:
			var iv interface{}
			if err := json.Unmarshal(v, &iv); err != nil {
				return err
			}
			b.SetValue(k, ldvalue.FromInterface(iv))
		}
	}
	*c = b.Build()
	return nil
}
