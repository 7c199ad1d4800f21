package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ToolError is a tools/call result the server flagged with isError.
type ToolError struct {
	Text string
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Text == "" {
		return "mcp: tool reported an error"
	}
	return "mcp: tool error: " + e.Text
}

// Text joins the text of every text content block.
func (r ToolsCallResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (r ToolsCallResult) firstText() (string, bool) {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}

// Payload extracts the JSON document carried by a tools/call result.
// Results flagged isError yield a *ToolError. Otherwise structuredContent
// wins, then the first text block after NormalizeObjectNotation. A result
// that is not an MCP tool result is returned unchanged.
func Payload(result json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(result)
	if !json.Valid(trimmed) {
		return nil, malformed("result is not valid JSON")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return json.RawMessage(trimmed), nil
	}
	_, hasContent := fields["content"]
	_, hasStructured := fields["structuredContent"]
	_, hasIsError := fields["isError"]
	if !hasContent && !hasStructured && !hasIsError {
		return json.RawMessage(trimmed), nil
	}

	var call ToolsCallResult
	if err := json.Unmarshal(trimmed, &call); err != nil {
		return nil, malformed("decode tool result: %v", err)
	}
	if call.IsError {
		return nil, &ToolError{Text: call.Text()}
	}
	if len(call.StructuredContent) > 0 && !isNullJSON(call.StructuredContent) {
		return call.StructuredContent, nil
	}
	if text, ok := call.firstText(); ok {
		return NormalizeObjectNotation(text)
	}
	return nil, malformed("tool result has no text or structured content")
}
