// Package relay forwards tool-protocol calls to a hosted copy of the tool
// catalog running behind an agent runtime endpoint.
//
// Requests are signed with SigV4 for the runtime service, or carry a
// bearer token. Responses are either bare JSON or a single Server-Sent
// Event frame; both are unwrapped to the same JSON-RPC response. The tool
// list is fetched once and memoized for the life of the Client. Tool
// calls are never memoized, and failures come back as text content.
package relay
