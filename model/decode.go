package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

const (
	expectedID  = "an integer id"
	expectedInt = "an integer"
)

// rawValue marks a rejected value as raw JSON text in error messages.
type rawValue string

// object is a decoded JSON object whose members are validated one by one.
type object struct {
	path    string
	members map[string]json.RawMessage
}

func decodeObject(data []byte, path, entity string) (object, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		return object{}, invalid(path, entity, rawValue(data), "a JSON object")
	}
	return object{path: path, members: members}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (o object) lookup(name string) (json.RawMessage, bool) {
	raw, ok := o.members[name]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func (o object) requiredString(name, expected string) (string, error) {
	raw, ok := o.lookup(name)
	if !ok {
		return "", missing(o.path, name, expected)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalid(o.path, name, rawValue(raw), expected)
	}
	return s, nil
}

func (o object) optionalString(name, expected string) (*string, error) {
	if _, ok := o.lookup(name); !ok {
		return nil, nil
	}
	s, err := o.requiredString(name, expected)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// requiredInt accepts JSON numbers with no fractional part.
func (o object) requiredInt(name, expected string) (int, error) {
	raw, ok := o.lookup(name)
	if !ok {
		return 0, missing(o.path, name, expected)
	}
	n, ok := integerValue(raw)
	if !ok {
		return 0, invalid(o.path, name, rawValue(raw), expected)
	}
	return n, nil
}

func (o object) optionalInt(name, expected string) (*int, error) {
	if _, ok := o.lookup(name); !ok {
		return nil, nil
	}
	n, err := o.requiredInt(name, expected)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// requiredID accepts an integer or a string of decimal digits; the live
// server reports ids both ways.
func (o object) requiredID(name string) (int, error) {
	const expected = expectedID
	raw, ok := o.lookup(name)
	if !ok {
		return 0, missing(o.path, name, expected)
	}
	if n, ok := integerValue(raw); ok {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && isDigits(s) {
		if n, err := strconv.Atoi(s); err == nil && inIntRange(n) {
			return n, nil
		}
	}
	return 0, invalid(o.path, name, rawValue(raw), expected)
}

func (o object) requiredFloat(name, expected string) (float64, error) {
	raw, ok := o.lookup(name)
	if !ok {
		return 0, missing(o.path, name, expected)
	}
	f, ok := numberValue(raw)
	if !ok {
		return 0, invalid(o.path, name, rawValue(raw), expected)
	}
	return f, nil
}

func (o object) array(name string, required bool) ([]json.RawMessage, error) {
	const expected = "a JSON array"
	raw, ok := o.lookup(name)
	if !ok {
		if required {
			return nil, missing(o.path, name, expected)
		}
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, invalid(o.path, name, rawValue(raw), expected)
	}
	return items, nil
}

// numberValue parses a JSON number literal. Quoted numbers are rejected.
func numberValue(raw json.RawMessage) (float64, bool) {
	text := string(bytes.TrimSpace(raw))
	if text == "" || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func integerValue(raw json.RawMessage) (int, bool) {
	f, ok := numberValue(raw)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// inIntRange reports whether n fits the 32-bit range accepted on the wire.
func inIntRange(n int) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}

func checkInt(path, field string, n *int, expected string) error {
	if n != nil && !inIntRange(*n) {
		return invalid(path, field, *n, expected)
	}
	return nil
}

func isDigits(s string) bool {
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
