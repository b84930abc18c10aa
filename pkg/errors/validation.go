package errors

import (
	"regexp"
	"unicode"
)

// MaxGraphSourceSize bounds the graph description accepted for a single task.
const MaxGraphSourceSize = 8 << 20

// colorSchemeRegex matches color scheme arguments accepted by gvmap -c:
// palette names, integers, and comma separated color lists.
var colorSchemeRegex = regexp.MustCompile(`^[A-Za-z0-9_.,#-]+$`)

// ValidateColorScheme validates a color scheme name before it is passed to
// an external tool as an argument.
func ValidateColorScheme(scheme string) error {
	if scheme == "" {
		return New(ErrCodeInvalidColorScheme, "color scheme cannot be empty")
	}
	if len(scheme) > 128 {
		return New(ErrCodeInvalidColorScheme, "color scheme too long (max 128 characters)")
	}
	if !colorSchemeRegex.MatchString(scheme) {
		return New(ErrCodeInvalidColorScheme, "invalid color scheme: %q", scheme)
	}
	return nil
}

// ValidateGraphSource performs cheap structural checks on graph source text.
// Parsing is left to the dot package.
func ValidateGraphSource(src string) error {
	if src == "" {
		return New(ErrCodeInvalidGraph, "graph source cannot be empty")
	}
	if len(src) > MaxGraphSourceSize {
		return New(ErrCodeInvalidGraph, "graph source too large (max %d bytes)", MaxGraphSourceSize)
	}
	for _, r := range src {
		if r == '\x00' {
			return New(ErrCodeInvalidGraph, "graph source contains null bytes")
		}
	}
	return nil
}

// ValidateTaskID validates an opaque task identifier taken from a request path.
func ValidateTaskID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "task id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "task id too long (max 64 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' {
			return New(ErrCodeInvalidInput, "task id contains invalid characters")
		}
	}
	return nil
}
