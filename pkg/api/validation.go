package api

import "strings"

// Validate checks a StartThreadRequest. The opening message is required
// and must not be blank.
func (r *StartThreadRequest) Validate() *APIError {
	if strings.TrimSpace(r.Message) == "" {
		return NewInvalidRequestError("message", "message is required")
	}
	return nil
}

// Validate checks a StreamTurnRequest. Both the thread ID (from the URL)
// and the message are required.
func (r *StreamTurnRequest) Validate() *APIError {
	if r.ThreadID == "" {
		return NewInvalidRequestError("thread_id", "thread_id is required")
	}
	if !ValidateThreadID(r.ThreadID) {
		return NewInvalidRequestError("thread_id", "thread_id is not a valid thread identifier")
	}
	if strings.TrimSpace(r.Message) == "" {
		return NewInvalidRequestError("message", "message is required")
	}
	return nil
}
