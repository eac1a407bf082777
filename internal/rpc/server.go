package rpc

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/justapithecus/s3lake/lake"
)

// Backend provides the tools a Server exposes.
//
// CallTool reports tool failures inside the CallResult. Its error return
// is for requests that cannot be dispatched at all: ErrUnknownTool or
// malformed arguments (lake.ErrArgument) map to invalid params; anything
// else maps to an internal error.
type Backend interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args []byte) (CallResult, error)
}

// Server dispatches JSON-RPC requests to a Backend.
type Server struct {
	backend Backend
	info    ServerInfo
	logger  zerolog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerInfo sets the name and version announced by initialize.
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) {
		s.info = ServerInfo{Name: name, Version: version}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server over backend.
func NewServer(backend Backend, opts ...ServerOption) *Server {
	s := &Server{
		backend: backend,
		info:    ServerInfo{Name: "s3lake", Version: "dev"},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage decodes one JSON-RPC message and handles it. It returns
// nil for notifications.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(nil, CodeParseError, "Parse error: "+err.Error())
	}
	return s.Handle(ctx, &req)
}

// Handle handles one request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != Version || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid Request")
	}

	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		s.logger.Debug().
			Str("method", req.Method).
			Int("code", rpcErr.Code).
			Msg(rpcErr.Message)
		return &Response{JSONRPC: Version, ID: req.ID, Error: rpcErr}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "failed to encode result: "+err.Error())
	}
	return &Response{JSONRPC: Version, ID: req.ID, Result: raw}
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *Error) {
	switch req.Method {
	case MethodInitialize:
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{"listChanged": false}},
			ServerInfo:      s.info,
		}, nil

	case MethodInitialized:
		return struct{}{}, nil

	case MethodPing:
		return struct{}{}, nil

	case MethodToolsList:
		tools, err := s.backend.ListTools(ctx)
		if err != nil {
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		if tools == nil {
			tools = []Tool{}
		}
		return ListResult{Tools: tools}, nil

	case MethodToolsCall:
		var params CallParams
		if len(req.Params) == 0 {
			return nil, &Error{Code: CodeInvalidParams, Message: "missing params"}
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
		}
		if params.Name == "" {
			return nil, &Error{Code: CodeInvalidParams, Message: "missing tool name"}
		}

		result, err := s.backend.CallTool(ctx, params.Name, params.Arguments)
		if err != nil {
			s.logger.Warn().Str("tool", params.Name).Err(err).Msg("tool call rejected")
			if errors.Is(err, ErrUnknownTool) || errors.Is(err, lake.ErrArgument) {
				return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
			}
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		return result, nil

	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method}
	}
}

func errorResponse(id jsoniter.RawMessage, code int, message string) *Response {
	if len(id) == 0 {
		id = jsoniter.RawMessage("null")
	}
	return &Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}
