// Package transport defines the protocol-independent handler contracts
// of the chat service and the middleware that wraps them. The HTTP
// binding lives in the http subpackage; the chat engine implements the
// handler interfaces.
//
// The streaming contract is deliberately minimal: a TurnStreamer writes
// plain text deltas to a DeltaWriter, and the transport flushes each
// delta so clients observe progress as it happens.
package transport
