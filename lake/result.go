package lake

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status values carried in every envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the transport view of a Result: something that knows whether
// it succeeded and can render itself as a status-tagged JSON object.
type Envelope interface {
	OK() bool
	Failure() *Error
	MarshalJSON() ([]byte, error)
}

// Result is a tagged union of a typed success payload and a classified
// error. The zero value is not meaningful; build one with Ok or Fail.
//
// T must marshal to a JSON object. Its fields are flattened next to the
// "status" key when the Result is serialized.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a success payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps an error. Unclassified errors are classified with Classify.
// A nil err is treated as an unknown store fault so a Result built with
// Fail is never a success.
func Fail[T any](err error) Result[T] {
	if err == nil {
		return Result[T]{err: NewError(KindStore, "unknown error", nil)}
	}
	return Result[T]{err: Classify(err)}
}

// OK reports whether r holds a success payload.
func (r Result[T]) OK() bool {
	return r.err == nil
}

// Value returns the payload and whether r is a success.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Failure returns the error, or nil for a success.
func (r Result[T]) Failure() *Error {
	return r.err
}

type errorEnvelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorKind string `json:"error_kind"`
}

// MarshalJSON renders the status-tagged envelope.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.err != nil {
		return json.Marshal(errorEnvelope{
			Status:    StatusError,
			Message:   r.err.Message,
			ErrorKind: r.err.Kind.String(),
		})
	}

	payload, err := json.Marshal(r.value)
	if err != nil {
		return nil, err
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) < 2 || payload[0] != '{' {
		return nil, fmt.Errorf("lake: payload %T does not encode as a JSON object", r.value)
	}

	var buf bytes.Buffer
	buf.Grow(len(payload) + 24)
	buf.WriteString(`{"status":"success"`)
	body := bytes.TrimSpace(payload[1 : len(payload)-1])
	if len(body) > 0 {
		buf.WriteByte(',')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Render serializes an envelope, falling back to an error envelope if the
// payload itself cannot be encoded. The returned bytes are always a JSON
// object with a "status" key.
func Render(e Envelope) []byte {
	data, err := e.MarshalJSON()
	if err == nil {
		return data
	}
	data, _ = Fail[struct{}](NewError(KindFormat, "failed to encode result: "+err.Error(), err)).MarshalJSON()
	return data
}

// RenderIndent is Render with two-space indentation, matching what the
// hosted server returns in tool text content. Key order is preserved.
func RenderIndent(e Envelope) string {
	return IndentJSON(Render(e))
}

// IndentJSON re-indents raw JSON with two spaces, preserving key order.
// Invalid input is returned unchanged.
func IndentJSON(raw []byte) string {
	var out bytes.Buffer
	if err := stdjson.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}
