package profile

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes persisted profile text into a generic tree.
//
// A nil pointer, blank text or a document holding only comments/null means no
// profile exists yet and returns (nil, nil). Anything else that is not a single
// YAML mapping returns a *ParseError.
func Parse(text *string) (*Value, error) {
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil, nil
	}
	content := *text

	dec := yaml.NewDecoder(strings.NewReader(content))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, newParseError("profile YAML is malformed", content, 0, err)
	}

	// Multi-document input is rejected so the result stays deterministic.
	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, newParseError("profile must be a single YAML document", content, extra.Line, nil)
	} else if !errors.Is(err, io.EOF) {
		return nil, newParseError("profile YAML is malformed", content, 0, err)
	}

	root, err := fromNode(&doc)
	if err != nil {
		return nil, newParseError("profile YAML contains unsupported content", content, 0, err)
	}
	switch root.Kind() {
	case KindNull:
		return nil, nil
	case KindMapping:
		return root, nil
	default:
		line := 0
		if len(doc.Content) > 0 {
			line = doc.Content[0].Line
		}
		return nil, newParseError(fmt.Sprintf("profile root must be a mapping, got %s", root.Kind()), content, line, nil)
	}
}

func fromNode(n *yaml.Node) (*Value, error) {
	if n == nil {
		return Null(), nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		items := make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return Seq(items...), nil
	case yaml.MappingNode:
		return mappingFromNode(n)
	case yaml.ScalarNode:
		return scalarFromNode(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func mappingFromNode(n *yaml.Node) (*Value, error) {
	m := NewMapping()
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		if k.ShortTag() == "!!merge" {
			merges = append(merges, val)
			continue
		}
		v, err := fromNode(val)
		if err != nil {
			return nil, err
		}
		m.Set(k.Value, v)
	}

	// "<<" merge keys only fill in keys the mapping does not set itself.
	for _, src := range merges {
		if src.Kind == yaml.AliasNode {
			src = src.Alias
		}
		sources := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for _, s := range sources {
			v, err := fromNode(s)
			if err != nil {
				return nil, err
			}
			sm := v.Mapping()
			if sm == nil {
				return nil, fmt.Errorf("line %d: merge key value must be a mapping", s.Line)
			}
			for _, key := range sm.Keys() {
				if _, exists := m.Get(key); !exists {
					child, _ := sm.Get(key)
					m.Set(key, child)
				}
			}
		}
	}
	return Map(m), nil
}

func scalarFromNode(n *yaml.Node) (*Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		// Too large for int64; keep it as a float.
		var f float64
		if err := n.Decode(&f); err != nil {
			return String(n.Value), nil
		}
		v := Float(f)
		if isDecimalLiteral(n.Value) {
			v.lit = n.Value
		}
		return v, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		v := Float(f)
		// Digit runs beyond uint64 resolve as floats; keep their text.
		if isDecimalLiteral(n.Value) && literalTag(n.Value) == "!!float" {
			v.lit = n.Value
		}
		return v, nil
	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text.
		return String(n.Value), nil
	}
}

// isDecimalLiteral reports whether s is an optionally signed run of digits.
func isDecimalLiteral(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
