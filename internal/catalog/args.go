package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/justapithecus/s3lake/lake"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Args are the arguments of one tool call.
type Args map[string]any

// ParseArgs decodes a JSON object of arguments. Empty input and null
// decode to no arguments.
func ParseArgs(raw []byte) (Args, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Args{}, nil
	}
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &lake.ArgumentError{Field: "arguments", Message: "must be a JSON object"}
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// String returns the string argument key, or "" when absent or null.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &lake.ArgumentError{Field: key, Message: "must be a string"}
	}
	return s, nil
}

// Int returns the integer argument key, or def when absent or null.
// Integral floats and numeric strings are accepted.
func (a Args) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, &lake.ArgumentError{Field: key, Message: "must be an integer"}
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, &lake.ArgumentError{Field: key, Message: "must be an integer"}
		}
		return i, nil
	default:
		return 0, &lake.ArgumentError{Field: key, Message: fmt.Sprintf("must be an integer, got %T", v)}
	}
}
