// Package lake holds the types shared by every s3lake tool: the tagged
// result envelope, the error taxonomy, object references and the small
// formatting helpers used in tool payloads.
//
// Every tool returns a Result. A Result is either a success carrying a
// typed payload or an error carrying an ErrorKind and a human-readable
// message. Results are serialized to JSON only at the transport boundary:
//
//	{"status":"success", ...payload fields}
//	{"status":"error","message":"...","error_kind":"store"}
//
// No tool reports failure through a Go error return.
package lake
