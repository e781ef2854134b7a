package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	CodeParseError = "PROFILE_PARSE_ERROR"
	CodeBuildError = "PROFILE_BUILD_ERROR"

	stageParse = "parse_profile"
	stageBuild = "build_profile"

	maxSnippet = 200
)

// ParseError means persisted profile text exists but is not a usable document.
// It must never be treated like a missing profile.
type ParseError struct {
	Code    string
	Message string
	Stage   string
	Line    int // 1-based; 0 means unknown
	Snippet string
	Cause   error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

func newParseError(message, content string, line int, cause error) *ParseError {
	return &ParseError{
		Code:    CodeParseError,
		Message: message,
		Stage:   stageParse,
		Line:    line,
		Snippet: truncateSnippet(content, maxSnippet),
		Cause:   cause,
	}
}

// BuildError reports an internal invariant violated while generating a
// document. Callers disable the preview instead of failing hard.
type BuildError struct {
	Code    string
	Field   string
	Message string
	Stage   string
	Cause   error
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Cause }

func newBuildError(field, message string, cause error) *BuildError {
	return &BuildError{
		Code:    CodeBuildError,
		Field:   field,
		Message: message,
		Stage:   stageBuild,
		Cause:   cause,
	}
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
