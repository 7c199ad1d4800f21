package ppal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/ppal/model"
	"github.com/petal-labs/ppal/ppal/mcp"
)

// notFoundPhrases mark a JSON-RPC or tool error as a missing track or clip.
var notFoundPhrases = []string{"not found", "does not exist", "no such"}

// invoke performs one tools/call round trip and hands the extracted payload
// to decode. It is the only method that touches the network.
func (c *Client) invoke(ctx context.Context, tool string, args map[string]any, decode func(json.RawMessage) error) (err error) {
	requestID := uuid.NewString()
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		kind := KindOf(err)
		c.observer.ObserveInvoke(ctx, Invocation{
			Tool:      tool,
			RequestID: requestID,
			Duration:  elapsed,
			Success:   err == nil,
			ErrorKind: kind,
		})
		attrs := []slog.Attr{
			slog.String("tool", tool),
			slog.String("request_id", requestID),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error_kind", string(kind)), slog.String("error", err.Error()))
		}
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ppal invoke", attrs...)
	}()

	payload, err := c.call(ctx, tool, requestID, args)
	if err != nil {
		return err
	}
	if err := decode(payload); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return newError(KindValidation, tool, err, "invalid result: %s", trimModelPrefix(verr.Error()))
		}
		return newError(KindProtocol, tool, err, "decode result: %v", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, tool, requestID string, args map[string]any) (json.RawMessage, error) {
	request, err := mcp.NewToolsCallRequest(requestID, mcp.ToolsCallParams{Name: tool, Arguments: args})
	if err != nil {
		return nil, newError(KindProtocol, tool, err, "build request")
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, newError(KindProtocol, tool, err, "encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindConnection, tool, err, "build http request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, newError(KindConnection, tool, err, "post %s: %v", c.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, newError(KindConnection, tool, err, "read response: %v", err)
	}
	if len(data) > maxResponseSize {
		return nil, newError(KindProtocol, tool, nil, "response exceeds %d bytes", maxResponseSize)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(data))
		if len(message) > 256 {
			message = message[:256]
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, newError(KindProtocol, tool, nil, "server returned status %d: %s", resp.StatusCode, message)
	}

	reply, err := mcp.DecodeResponse(resp.Header.Get("Content-Type"), data, request.ID)
	if err != nil {
		return nil, newError(KindProtocol, tool, err, "%v", err)
	}
	if reply.Error != nil {
		if reply.Error.Code != mcp.CodeMethodNotFound && entityNotFound(tool, reply.Error.Message, string(reply.Error.Data)) {
			return nil, newError(KindNotFound, tool, reply.Error, "%s", reply.Error.Message)
		}
		return nil, newError(KindProtocol, tool, reply.Error, "%v", reply.Error)
	}

	payload, err := mcp.Payload(reply.Result)
	if err != nil {
		var toolErr *mcp.ToolError
		if errors.As(err, &toolErr) && entityNotFound(tool, toolErr.Text) {
			return nil, newError(KindNotFound, tool, err, "%s", toolErr.Text)
		}
		return nil, newError(KindProtocol, tool, err, "%v", err)
	}
	return payload, nil
}

// entityNotFound reports whether an error text says a track or clip is
// missing. A text naming the tool itself means the server lacks the tool,
// which is a protocol failure.
func entityNotFound(tool string, texts ...string) bool {
	for _, text := range texts {
		if strings.Contains(text, tool) {
			return false
		}
	}
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, phrase := range notFoundPhrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
	}
	return false
}
