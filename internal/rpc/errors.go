package rpc

import "fmt"

// TransportError reports that a request never produced a usable JSON-RPC
// body: connection failure, timeout, non-2xx status or malformed JSON.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolAPIError carries an error member returned by the node. Message is
// kept verbatim.
type ProtocolAPIError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProtocolAPIError) Error() string {
	return fmt.Sprintf("%s failed (code %d): %s", e.Method, e.Code, e.Message)
}
