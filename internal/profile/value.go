package profile

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

var kindNames = [...]string{"null", "bool", "number", "string", "sequence", "mapping"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Value is a generic document node: null, bool, number, string, sequence or mapping.
// A nil *Value means "absent" and is accepted by every accessor.
type Value struct {
	kind Kind
	b    bool
	num  float64
	lit  string // exact decimal literal for integers
	str  string
	seq  []*Value
	m    *Mapping
}

// Mapping is an ordered key/value map. Keys keep their first insertion position.
type Mapping struct {
	keys []string
	vals map[string]*Value
}

func Null() *Value { return &Value{kind: KindNull} }

func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

func String(s string) *Value { return &Value{kind: KindString, str: s} }

func Int(n int64) *Value {
	return &Value{kind: KindNumber, num: float64(n), lit: strconv.FormatInt(n, 10)}
}

func Float(f float64) *Value { return &Value{kind: KindNumber, num: f} }

func Seq(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: KindSequence, seq: items}
}

// Map wraps a mapping into a Value. A nil mapping becomes an empty one.
func Map(m *Mapping) *Value {
	if m == nil {
		m = NewMapping()
	}
	return &Value{kind: KindMapping, m: m}
}

func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]*Value)}
}

// Set stores v under key. Replacing an existing key keeps its position.
func (m *Mapping) Set(key string, v *Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	if v == nil {
		v = Null()
	}
	m.vals[key] = v
}

func (m *Mapping) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

func (m *Mapping) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Mapping) Clone() *Mapping {
	out := NewMapping()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.vals[k].Clone())
	}
	return out
}

func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsAbsent reports whether v is missing or an explicit null.
func (v *Value) IsAbsent() bool {
	return v == nil || v.kind == KindNull
}

func (v *Value) AsBool() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.b, true
}

func (v *Value) AsString() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.str, true
}

func (v *Value) AsNumber() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v *Value) Items() []*Value {
	if v.Kind() != KindSequence {
		return nil
	}
	return v.seq
}

func (v *Value) Mapping() *Mapping {
	if v.Kind() != KindMapping {
		return nil
	}
	return v.m
}

// Get returns the child under key, or nil if v is not a mapping or has no such key.
func (v *Value) Get(key string) *Value {
	child, _ := v.Mapping().Get(key)
	return child
}

// Lookup returns the first non-null child among the alias keys.
func (v *Value) Lookup(aliases ...string) *Value {
	m := v.Mapping()
	if m == nil {
		return nil
	}
	for _, key := range aliases {
		if child, ok := m.Get(key); ok && !child.IsAbsent() {
			return child
		}
	}
	return nil
}

// Path walks nested mappings.
func (v *Value) Path(keys ...string) *Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// finite reports whether a number value is usable as a decimal.
func (v *Value) finite() bool {
	return v.Kind() == KindNumber && !math.IsInf(v.num, 0) && !math.IsNaN(v.num)
}

// numberText renders a finite number in decimal notation.
func (v *Value) numberText() (string, bool) {
	if !v.finite() {
		return "", false
	}
	if v.lit != "" {
		return v.lit, true
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64), true
}

func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	out := *v
	switch v.kind {
	case KindSequence:
		out.seq = make([]*Value, len(v.seq))
		for i, item := range v.seq {
			out.seq[i] = item.Clone()
		}
	case KindMapping:
		out.m = v.m.Clone()
	}
	return &out
}

// Equal compares two values structurally. Mapping key order is significant.
func (v *Value) Equal(other *Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		if v.lit != "" || other.lit != "" {
			return v.lit == other.lit
		}
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		a, b := v.m, other.m
		if a.Len() != b.Len() {
			return false
		}
		for i, k := range a.keys {
			if b.keys[i] != k || !a.vals[k].Equal(b.vals[k]) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v into plain Go values (map[string]any, []any, ...),
// used for JSON responses.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindNumber:
		if v.lit != "" {
			if n, err := strconv.ParseInt(v.lit, 10, 64); err == nil {
				return n
			}
		}
		if !v.finite() {
			return nil
		}
		return v.num
	case KindString:
		return v.str
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.keys {
			out[k] = v.m.vals[k].Interface()
		}
		return out
	}
	return nil
}
