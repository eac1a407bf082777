// Package rpc implements the JSON-RPC 2.0 tool protocol spoken by agent
// runtimes: initialize, ping, tools/list and tools/call.
//
// A Server dispatches decoded requests to a Backend. Transports feed it:
// NewHTTPHandler serves POST /mcp with plain JSON or single-frame
// Server-Sent-Event replies, and ServeStdio reads newline-delimited
// requests from a stream. The SSE helpers are shared with the relay,
// which parses the same framing from the hosted server.
package rpc
