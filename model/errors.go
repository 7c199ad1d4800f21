package model

import (
	"fmt"
	"strings"
)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	// Path locates the owning entity, e.g. "tracks[0].clips[1].notes[2]".
	// It is empty for top-level fields.
	Path string
	// Field is the wire name of the offending field, or the entity kind
	// ("note", "clip", ...) when the value as a whole is malformed.
	Field string
	// Value is the rejected value: a Go value for locally built entities,
	// the raw JSON text for decoded ones, nil when the field is missing.
	Value any
	// Expected describes the accepted format.
	Expected string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	location := e.Location()
	if e.Value == nil {
		return fmt.Sprintf("model: %s is missing, expected %s", location, e.Expected)
	}
	return fmt.Sprintf("model: invalid %s %s, expected %s", location, formatValue(e.Value), e.Expected)
}

// Location joins Path and Field.
func (e *ValidationError) Location() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Path == "":
		return e.Field
	case e.Field == "":
		return e.Path
	default:
		return e.Path + "." + e.Field
	}
}

func invalid(path, field string, value any, expected string) *ValidationError {
	return &ValidationError{
		Path:     path,
		Field:    field,
		Value:    value,
		Expected: expected,
	}
}

func missing(path, field, expected string) *ValidationError {
	return invalid(path, field, nil, expected)
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	default:
		return prefix + "." + path
	}
}

func indexPath(path, field string, index int) string {
	return joinPath(path, fmt.Sprintf("%s[%d]", field, index))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case rawValue:
		text := strings.TrimSpace(string(val))
		if len(text) > 64 {
			text = text[:61] + "..."
		}
		return text
	default:
		return fmt.Sprintf("%v", val)
	}
}
