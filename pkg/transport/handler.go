package transport

import (
	"context"

	"github.com/legichat/legichat/pkg/api"
)

// ThreadStarter creates new conversation threads.
type ThreadStarter interface {
	// StartThread creates a thread titled after the opening message and
	// returns it. No assistant generation happens here.
	StartThread(ctx context.Context, message string) (*api.Thread, error)
}

// TurnStreamer runs one conversational turn. It is the primary handler
// contract: the implementation appends nothing on failure and streams
// reply deltas to the DeltaWriter as they become available.
type TurnStreamer interface {
	StreamTurn(ctx context.Context, threadID, message string, w DeltaWriter) error
}

// TurnStreamerFunc is an adapter that allows using an ordinary function
// as a TurnStreamer.
type TurnStreamerFunc func(ctx context.Context, threadID, message string, w DeltaWriter) error

// StreamTurn calls f(ctx, threadID, message, w).
func (f TurnStreamerFunc) StreamTurn(ctx context.Context, threadID, message string, w DeltaWriter) error {
	return f(ctx, threadID, message, w)
}

// TranscriptReader returns the normalized transcript of a thread.
type TranscriptReader interface {
	// Transcript returns the displayable messages of a thread in order.
	// Unknown threads yield an empty list, not an error.
	Transcript(ctx context.Context, threadID string) ([]api.TranscriptMessage, error)
}

// DeltaWriter receives incremental reply text during a streaming turn.
// The transport layer creates one per request.
//
// WriteDelta must not be called after the turn handler returns. Deltas
// are raw text fragments; concatenating them in order reproduces the
// full reply.
type DeltaWriter interface {
	// WriteDelta sends one text fragment. Returns an error if the client
	// has disconnected.
	WriteDelta(ctx context.Context, delta string) error

	// Flush pushes buffered data to the client.
	Flush() error
}
