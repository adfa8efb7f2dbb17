// File: internal/bridge/protocol.go
//
// Package bridge implements the JSON-RPC command surface of ghostbridge: the
// wire protocol types, the per-process session state, the method dispatcher
// and the stdin/stdout transport loop. One request is processed to completion
// (including its humanized sleeps) before the next line is read.
package bridge

import (
	stdjson "encoding/json"
	"fmt"
)

// JSON-RPC error codes. -32601 is reserved for unknown methods; everything
// else the bridge can fail on lands in the generic -32000 bucket, with -32700
// for lines that never parsed.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeGenericError   = -32000
)

// Request is a single command line from the parent process. ID is kept raw so
// it can be echoed verbatim whatever the caller sent, including malformed
// values; an absent ID defaults to 0 at the transport layer.
type Request struct {
	ID     stdjson.RawMessage `json:"id"`
	Method string             `json:"method"`
	Params stdjson.RawMessage `json:"params"`
}

// Error is a protocol-visible failure. It implements error so handlers can
// return it through ordinary error plumbing.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// successEnvelope and errorEnvelope are the two mutually exclusive response
// shapes. Separate types keep the "exactly one of result/error" rule in the
// type system instead of in omitempty tags.
type successEnvelope struct {
	ID     stdjson.RawMessage `json:"id"`
	Result interface{}        `json:"result"`
}

type errorEnvelope struct {
	ID    stdjson.RawMessage `json:"id"`
	Error *Error             `json:"error"`
}

// readyNotification is emitted once on startup, before any request is read.
type readyNotification struct {
	Ready bool `json:"ready"`
}

func errMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", method)}
}

func errNotInitialized() *Error {
	return &Error{Code: CodeGenericError, Message: "Browser not initialized. Call 'init' first."}
}

// errRequiredParam names the missing field, e.g. "url is required".
func errRequiredParam(field string) *Error {
	return &Error{Code: CodeGenericError, Message: fmt.Sprintf("%s is required", field)}
}

func errInvalidParams(err error) *Error {
	return &Error{Code: CodeGenericError, Message: fmt.Sprintf("invalid params: %v", err)}
}

func errTargetNotFound(selector string) *Error {
	return &Error{Code: CodeGenericError, Message: fmt.Sprintf("Element not found: %s", selector)}
}
