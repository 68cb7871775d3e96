package openaichat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/debug"
	"github.com/legichat/legichat/pkg/reasoner"
)

// toolCallBuffer tracks incremental tool call argument assembly across
// multiple SSE chunks for a single tool call index.
type toolCallBuffer struct {
	ID   string
	Name string
	Args strings.Builder
}

// parseSSEStream reads Chat Completions SSE chunks from the given reader
// and translates them to reasoner events on ch. Text deltas accumulate
// into a growing snapshot: each frame event carries the full reply text
// so far. The channel is NOT closed by this function; the caller is
// responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed chunks are logged and skipped. Context cancellation stops
// reading immediately.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- reasoner.Event) {
	scanner := bufio.NewScanner(body)

	var text strings.Builder
	buffers := make(map[int]*toolCallBuffer)
	finished := false

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// SSE lines that don't start with "data: " are ignored
		// (e.g., empty lines, comments starting with ":").
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		if payload == "[DONE]" {
			if !finished {
				// Backend ended the stream without a finish_reason.
				ch <- reasoner.Event{Type: reasoner.EventDone, Text: text.String()}
			}
			return
		}

		debug.Trace("streaming", "sse chunk", "data", truncate(payload, 200))

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		if translateChunk(&chunk, &text, buffers, ch) {
			finished = true
		}
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		ch <- reasoner.Event{
			Type: reasoner.EventError,
			Err:  api.NewModelError("SSE stream read error: " + err.Error()),
		}
		return
	}

	if !finished {
		// EOF before [DONE]: treat whatever accumulated as the reply.
		ch <- reasoner.Event{Type: reasoner.EventDone, Text: text.String()}
	}
}

// translateChunk folds a single chunk into the accumulated state and
// emits events. Returns true when the chunk carried a finish_reason.
func translateChunk(chunk *chatCompletionChunk, text *strings.Builder, buffers map[int]*toolCallBuffer, ch chan<- reasoner.Event) bool {
	if len(chunk.Choices) == 0 {
		return false
	}

	choice := chunk.Choices[0]
	delta := choice.Delta

	if choice.FinishReason != nil {
		reason := *choice.FinishReason

		if reason == "tool_calls" || len(buffers) > 0 {
			ch <- reasoner.Event{
				Type:      reasoner.EventToolCall,
				Text:      text.String(),
				ToolCalls: bufferedCalls(buffers),
			}
			for k := range buffers {
				delete(buffers, k)
			}
			return true
		}

		ch <- reasoner.Event{Type: reasoner.EventDone, Text: text.String()}
		return true
	}

	if len(delta.ToolCalls) > 0 {
		for _, tc := range delta.ToolCalls {
			buf, exists := buffers[tc.Index]
			if !exists {
				// First chunk for this index carries the id and name.
				buf = &toolCallBuffer{ID: tc.ID, Name: tc.Function.Name}
				buffers[tc.Index] = buf
			}
			buf.Args.WriteString(tc.Function.Arguments)
		}
		return false
	}

	if delta.Content != nil && *delta.Content != "" {
		text.WriteString(*delta.Content)
		ch <- reasoner.Event{Type: reasoner.EventFrame, Text: text.String()}
	}

	// Role-only chunks and empty deltas carry no new text. Silently skip.
	return false
}

// truncate limits a string to maxLen characters for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
