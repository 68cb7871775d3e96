package tools

import (
	"context"
	"encoding/json"
)

// ToolDef describes a tool offered to the reasoning backend.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall represents a backend's request to invoke a tool.
type ToolCall struct {
	// ID is the unique call identifier (from the backend, e.g., "call_abc123").
	ID string `json:"id"`

	// Name is the tool function name.
	Name string `json:"name"`

	// Arguments is the JSON-encoded arguments string.
	Arguments string `json:"arguments"`
}

// ToolResult represents the output of a tool execution.
type ToolResult struct {
	// CallID matches the originating ToolCall.ID.
	CallID string

	// Output is the tool output content (text).
	Output string

	// IsError indicates that the output is an error message.
	IsError bool
}

// Executor executes tool calls requested by the reasoning backend.
// Executors fail soft: lookup problems become a textual Output the
// backend can react to, not a Go error. A non-nil error aborts the
// whole generation.
type Executor interface {
	// Definitions returns the tools this executor offers.
	Definitions() []ToolDef

	// CanExecute checks if this executor handles the given tool name.
	CanExecute(toolName string) bool

	// Execute runs the tool and returns its result.
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
}
