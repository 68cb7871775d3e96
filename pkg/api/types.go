package api

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Thread is a single ongoing conversation. Threads are created by the
// start-thread operation only; generation never creates threads on demand.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one finalized message in a thread. Content is immutable once
// the turn has been appended; Seq is the position assigned by the store.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Seq     int    `json:"seq"`
}

// TranscriptMessage is a client-visible message produced by transcript
// normalization. ID is the stable post-filter position of the message.
type TranscriptMessage struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// StartThreadRequest is the body of POST /v1/threads.
type StartThreadRequest struct {
	Message string `json:"message"`
}

// StartThreadResponse is returned by POST /v1/threads.
type StartThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

// StreamTurnRequest is the body of POST /v1/threads/{id}/stream.
type StreamTurnRequest struct {
	Message string `json:"message"`

	// ThreadID is filled in by the transport layer from the URL path;
	// it is not part of the JSON body.
	ThreadID string `json:"-"`
}

// TranscriptResponse is returned by GET /v1/threads/{id}/messages.
// Messages is never nil; an empty transcript serializes as [].
type TranscriptResponse struct {
	Messages []TranscriptMessage `json:"messages"`
}

// TitleFromMessage derives a thread title from the opening message,
// truncating on rune boundaries.
func TitleFromMessage(message string) string {
	const maxTitleRunes = 80
	runes := []rune(message)
	if len(runes) <= maxTitleRunes {
		return message
	}
	return string(runes[:maxTitleRunes])
}
