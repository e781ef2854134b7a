package profile

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Serialize renders a tree as YAML. String scalars are always double-quoted so
// numeric-looking text ("20", "true") survives a re-parse as text. Comments,
// blank lines and the key order of hand-edited sources are not kept.
func Serialize(v *Value) (string, error) {
	if v == nil {
		v = Map(nil)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(v)); err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return buf.String(), nil
}

func toNode(v *Value) *yaml.Node {
	switch v.Kind() {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		if v.lit != "" {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: literalTag(v.lit), Value: v.lit}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: floatLiteral(v.num)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: v.str}
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.seq {
			n.Content = append(n.Content, toNode(item))
		}
		return n
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.m.keys {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toNode(v.m.vals[k]),
			)
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// literalTag is the tag a plain integer literal resolves to: digit runs that
// fit neither int64 nor uint64 read back as floats.
func literalTag(lit string) string {
	if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return "!!int"
	}
	if _, err := strconv.ParseUint(lit, 10, 64); err == nil {
		return "!!int"
	}
	return "!!float"
}

func floatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a fractional part so the literal re-parses as a float.
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}
