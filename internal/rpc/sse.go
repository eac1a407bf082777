package rpc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Content types negotiated on the HTTP transport.
const (
	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"
)

// EventMarker opens every frame written by WriteEvent.
const EventMarker = "event: message\ndata: "

var (
	dataPrefix  = []byte("data:")
	eventPrefix = []byte("event:")
)

// WriteEvent writes data as a single "message" event. data must not
// contain newlines; compact JSON never does.
func WriteEvent(w io.Writer, data []byte) error {
	if bytes.ContainsAny(data, "\r\n") {
		return fmt.Errorf("rpc: event data contains a line break")
	}
	_, err := fmt.Fprintf(w, "%s%s\n\n", EventMarker, data)
	return err
}

// IsEventStream reports whether a response body should be parsed as SSE,
// either from its content type or from its framing: the body opens with an
// "event:" or "data:" field, or carries the full frame marker. Marker text
// inside a JSON string is never a frame because JSON escapes newlines.
func IsEventStream(contentType string, body []byte) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), ContentTypeEventStream) {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, eventPrefix) || bytes.HasPrefix(trimmed, dataPrefix) {
		return true
	}
	return bytes.Contains(body, []byte(EventMarker))
}

// EventData returns the payload of the first "data:" line of an SSE body.
func EventData(body []byte) ([]byte, bool) {
	for len(body) > 0 {
		line := body
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			line, body = body[:i], body[i+1:]
		} else {
			body = nil
		}
		line = bytes.TrimRight(line, "\r")
		if bytes.HasPrefix(line, dataPrefix) {
			return bytes.TrimSpace(line[len(dataPrefix):]), true
		}
	}
	return nil, false
}

// Unwrap returns the JSON payload of a response body that is either bare
// JSON or a single SSE frame.
func Unwrap(contentType string, body []byte) ([]byte, error) {
	if !IsEventStream(contentType, body) {
		return bytes.TrimSpace(body), nil
	}
	data, ok := EventData(body)
	if !ok {
		return nil, fmt.Errorf("rpc: event stream has no data line")
	}
	return data, nil
}
