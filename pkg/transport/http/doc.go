// Package http binds the transport handler contracts to HTTP. Turn
// replies stream as chunked plain text: the response is flushed after
// every delta, so concatenating the received bytes reproduces the reply
// as it was generated.
package http
