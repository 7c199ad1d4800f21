package mcp

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NormalizeObjectNotation converts JavaScript object notation into JSON.
// Valid JSON passes through untouched. Otherwise unquoted member names
// are quoted, single-quoted strings become double-quoted, trailing commas
// are dropped and undefined becomes null. String contents are never
// rewritten.
func NormalizeObjectNotation(text string) (json.RawMessage, error) {
	src := strings.TrimSpace(text)
	if src == "" {
		return nil, malformed("text content is empty")
	}
	if json.Valid([]byte(src)) {
		return json.RawMessage(src), nil
	}

	var (
		out  strings.Builder
		last byte
	)
	out.Grow(len(src) + 16)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			lit, end, err := quotedString(src, i)
			if err != nil {
				return nil, err
			}
			out.WriteString(lit)
			last = '"'
			i = end
		case c == ',':
			next := skipSpace(src, i+1)
			if next < len(src) && (src[next] == '}' || src[next] == ']') {
				i++
				continue
			}
			out.WriteByte(c)
			last = c
			i++
		case isIdentStart(c):
			end := i + 1
			for end < len(src) && isIdentPart(src[end]) {
				end++
			}
			word := src[i:end]
			after := skipSpace(src, end)
			switch {
			case (last == '{' || last == ',') && after < len(src) && src[after] == ':':
				out.WriteString(strconv.Quote(word))
			case word == "undefined":
				out.WriteString("null")
			default:
				out.WriteString(word)
			}
			last = 'a'
			i = end
		case isSpace(c):
			out.WriteByte(c)
			i++
		default:
			out.WriteByte(c)
			last = c
			i++
		}
	}

	normalized := out.String()
	if !json.Valid([]byte(normalized)) {
		return nil, malformed("text content is neither JSON nor object notation")
	}
	return json.RawMessage(normalized), nil
}

// quotedString reads the string literal starting at src[start] and returns
// it as a JSON string literal plus the index just past its closing quote.
func quotedString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	b.WriteByte('"')
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\':
			if i+1 >= len(src) {
				return "", 0, malformed("unterminated string at offset %d", start)
			}
			next := src[i+1]
			if quote == '\'' && next == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(next)
			}
			i++
		case c == quote:
			b.WriteByte('"')
			return b.String(), i + 1, nil
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, malformed("unterminated string at offset %d", start)
}

func skipSpace(src string, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
