package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"reflect"
	"strings"
)

// ErrMalformed is wrapped by every framing and envelope failure.
var ErrMalformed = errors.New("mcp: malformed response")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// DecodeResponse parses a response body into the JSON-RPC message that
// answers requestID. Bodies of type text/event-stream are scanned for the
// first event carrying that response; other bodies hold a single message.
func DecodeResponse(contentType string, body []byte, requestID json.RawMessage) (Message, error) {
	if !isEventStream(contentType) {
		return decodeMessage(bytes.TrimSpace(body), requestID)
	}

	events, err := eventData(body)
	if err != nil {
		return Message{}, err
	}
	var lastErr error
	for _, data := range events {
		msg, err := decodeMessage(data, requestID)
		if err != nil {
			lastErr = err
			continue
		}
		return msg, nil
	}
	if lastErr != nil {
		return Message{}, lastErr
	}
	return Message{}, malformed("event stream carried no response")
}

func decodeMessage(data []byte, requestID json.RawMessage) (Message, error) {
	if len(data) == 0 {
		return Message{}, malformed("empty body")
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: decode body: %w", ErrMalformed, err)
	}
	if err := msg.checkResponse(requestID); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// checkResponse enforces JSON-RPC 2.0 response shape: exactly one of
// result or error, and an id matching the request when one is echoed.
// A null id is only valid on an error response.
func (m Message) checkResponse(requestID json.RawMessage) error {
	if m.JSONRPC != "" && m.JSONRPC != JSONRPCVersion {
		return malformed("unsupported jsonrpc version %q", m.JSONRPC)
	}
	if m.Method != "" {
		return malformed("expected a response, got method %q", m.Method)
	}
	hasResult := len(m.Result) > 0
	hasError := m.Error != nil
	switch {
	case hasResult && hasError:
		return malformed("response has both result and error")
	case !hasResult && !hasError:
		return malformed("response has neither result nor error")
	}
	if isNullJSON(m.ID) {
		if !hasError {
			return malformed("result response has a null id")
		}
		return nil
	}
	if len(m.ID) > 0 && len(requestID) > 0 && !sameID(m.ID, requestID) {
		return malformed("response id %s does not match request id %s", m.ID, requestID)
	}
	return nil
}

func sameID(a, b json.RawMessage) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func isNullJSON(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "text/event-stream")
	}
	return mediaType == "text/event-stream"
}

// eventData returns the data payload of each server-sent event in order.
// Multiple data lines of one event are joined with "\n".
func eventData(body []byte) ([][]byte, error) {
	var (
		events  [][]byte
		current []string
		hasData bool
	)
	flush := func() {
		if hasData {
			events = append(events, []byte(strings.Join(current, "\n")))
		}
		current = nil
		hasData = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment
		case line == "data" || strings.HasPrefix(line, "data:"):
			value := strings.TrimPrefix(strings.TrimPrefix(line, "data"), ":")
			current = append(current, strings.TrimPrefix(value, " "))
			hasData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read event stream: %w", ErrMalformed, err)
	}
	flush()

	if len(events) == 0 {
		return nil, malformed("event stream has no data")
	}
	return events, nil
}
