// Package mcp frames Producer Pal tool calls as JSON-RPC 2.0 "tools/call"
// requests and unwraps the responses: JSON or SSE bodies, MCP content
// blocks, and the JavaScript object notation some servers put in text
// content.
package mcp

import (
	"encoding/json"
	"fmt"
)

const (
	// JSONRPCVersion is the only accepted "jsonrpc" value.
	JSONRPCVersion = "2.0"
	// MethodToolsCall invokes a named tool.
	MethodToolsCall = "tools/call"
	// CodeMethodNotFound is the JSON-RPC error code for an unknown method.
	CodeMethodNotFound = -32601
)

// Message is a JSON-RPC 2.0 envelope.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp: rpc error %d: %s", e.Code, e.Message)
}

// ToolsCallParams is sent in the tools/call request.
type ToolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ContentBlock is an MCP content item returned by tools/call.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolsCallResult is returned by the tools/call request.
type ToolsCallResult struct {
	Content           []ContentBlock  `json:"content,omitempty"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

// NewToolsCallRequest builds a tools/call request with a string id.
func NewToolsCallRequest(id string, params ToolsCallParams) (Message, error) {
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}
	rawID, err := json.Marshal(id)
	if err != nil {
		return Message{}, fmt.Errorf("mcp: encode id: %w", err)
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return Message{}, fmt.Errorf("mcp: encode params: %w", err)
	}
	return Message{
		JSONRPC: JSONRPCVersion,
		ID:      rawID,
		Method:  MethodToolsCall,
		Params:  rawParams,
	}, nil
}
