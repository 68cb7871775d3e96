package reasoner

import (
	"context"

	"github.com/legichat/legichat/pkg/tools"
)

// Reasoner abstracts a reasoning backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Reasoner interface {
	// Name returns the backend identifier (e.g., "openai-chat").
	Name() string

	// Stream starts a generation and returns a channel of events. The
	// channel is closed by the reasoner when generation completes, fails,
	// or the context is cancelled. Every event sequence ends with either
	// a Done or an Error event.
	Stream(ctx context.Context, req *Request) (<-chan Event, error)

	// Close releases backend resources.
	Close() error
}

// Request is the backend-facing generation request.
type Request struct {
	Model    string
	Messages []Message
	Tools    []tools.ToolDef
}

// Message is one entry in the conversation sent to the backend.
type Message struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// EventType classifies a streaming event from the backend.
type EventType int

const (
	// EventFrame carries a snapshot of the accumulated reply text.
	// Successive frame texts grow by appending; each is a prefix of the
	// next.
	EventFrame EventType = iota

	// EventToolCall signals the backend requested a tool invocation.
	// Generation pauses until the engine streams again with the result.
	EventToolCall

	// EventDone signals the reply is complete. Text holds the final text.
	EventDone

	// EventError signals the stream failed. No further events follow.
	EventError
)

// Event is a single streaming event from the backend.
type Event struct {
	Type EventType

	// Text is the full accumulated reply text (Frame and Done events).
	Text string

	// ToolCalls holds the requested invocations (ToolCall events).
	ToolCalls []tools.ToolCall

	// Err is populated on Error events.
	Err error
}
