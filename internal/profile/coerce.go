package profile

import (
	"errors"
	"strconv"
	"strings"
)

// Coercion never fails: a missing or malformed value resolves to the fallback.

// CoerceString returns text as-is, renders finite numbers in decimal and
// falls back for anything else.
func CoerceString(v *Value, fallback string) string {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		if s, ok := v.numberText(); ok {
			return s
		}
	}
	return fallback
}

// CoerceNumberString renders finite numbers in decimal and returns non-empty
// text trimmed. The text is not checked for being numeric.
func CoerceNumberString(v *Value, fallback string) string {
	switch v.Kind() {
	case KindNumber:
		if s, ok := v.numberText(); ok {
			return s
		}
	case KindString:
		if s := strings.TrimSpace(v.str); s != "" {
			return s
		}
	}
	return fallback
}

// CoerceBoolean accepts booleans and the words "true"/"false" in any case.
func CoerceBoolean(v *Value, fallback bool) bool {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindString:
		s := strings.TrimSpace(v.str)
		if strings.EqualFold(s, "true") {
			return true
		}
		if strings.EqualFold(s, "false") {
			return false
		}
	}
	return fallback
}

var errIntRange = errors.New("integer out of range")

// leadingInt parses an optional sign and the decimal digits at the start of s,
// ignoring whatever follows ("12 chunks" -> 12). found is false when s has no
// leading digits. err is set only when the digits overflow int.
func leadingInt(s string) (n int, found bool, err error) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false, nil
	}
	n, err = strconv.Atoi(s[:end])
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, true, errIntRange
		}
		return 0, false, nil
	}
	return n, true, nil
}
