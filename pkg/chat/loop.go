package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/debug"
	"github.com/legichat/legichat/pkg/observability"
	"github.com/legichat/legichat/pkg/reasoner"
	"github.com/legichat/legichat/pkg/store"
	"github.com/legichat/legichat/pkg/tools"
	"github.com/legichat/legichat/pkg/transport"
)

// StreamTurn runs one conversational turn on a thread. Reply text is
// streamed to w as deltas while generation runs; tool calls are
// dispatched between generation rounds. The user and assistant turns
// are appended only after the reply completed, so a failed, cancelled,
// or timed-out turn leaves the thread untouched.
func (e *Engine) StreamTurn(ctx context.Context, threadID, message string, w transport.DeltaWriter) error {
	if message == "" {
		return api.NewInvalidRequestError("message", "message must not be empty")
	}

	if !e.guard.TryBegin(threadID) {
		return api.NewConflictError("a generation is already in progress for this thread")
	}
	defer e.guard.End(threadID)

	turns, err := e.store.LoadTurns(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return api.NewNotFoundError("thread not found")
	}
	if err != nil {
		return api.NewServerError(fmt.Sprintf("loading turns: %s", err.Error()))
	}

	genCtx, cancel := context.WithTimeout(ctx, e.cfg.timeout())
	defer cancel()

	messages := e.buildMessages(turns, message)

	start := time.Now()
	reply, err := e.generate(genCtx, messages, w)
	observability.GenerationDuration.WithLabelValues(e.reasoner.Name(), e.cfg.Model).
		Observe(time.Since(start).Seconds())
	if err != nil {
		observability.GenerationsTotal.WithLabelValues(e.reasoner.Name(), e.cfg.Model, "error").Inc()
		return err
	}
	observability.GenerationsTotal.WithLabelValues(e.reasoner.Name(), e.cfg.Model, "success").Inc()

	// Persist the pair only now that the reply is complete. Appends use
	// the parent context so a generation timeout that fired after the
	// reply finished does not lose the turn.
	if _, err := e.store.AppendTurn(ctx, threadID, api.Turn{Role: api.RoleUser, Content: message}); err != nil {
		return api.NewServerError(fmt.Sprintf("appending user turn: %s", err.Error()))
	}
	if _, err := e.store.AppendTurn(ctx, threadID, api.Turn{Role: api.RoleAssistant, Content: reply}); err != nil {
		return api.NewServerError(fmt.Sprintf("appending assistant turn: %s", err.Error()))
	}

	return nil
}

// buildMessages assembles the backend conversation: optional system
// prompt, stored history, then the new user message.
func (e *Engine) buildMessages(turns []api.Turn, message string) []reasoner.Message {
	messages := make([]reasoner.Message, 0, len(turns)+2)
	if e.cfg.SystemPrompt != "" {
		messages = append(messages, reasoner.Message{Role: "system", Content: e.cfg.SystemPrompt})
	}
	for _, turn := range turns {
		messages = append(messages, reasoner.Message{Role: string(turn.Role), Content: turn.Content})
	}
	return append(messages, reasoner.Message{Role: "user", Content: message})
}

// generate runs the generation loop: stream a round, execute any tool
// calls, feed results back, repeat. It returns the complete reply text.
func (e *Engine) generate(ctx context.Context, messages []reasoner.Message, w transport.DeltaWriter) (string, error) {
	emitter := NewDeltaEmitter(w, e.logger)
	defs := e.toolDefs()

	// Text produced by earlier rounds of this turn. Frames within a
	// round snapshot only that round's text, so the emitter sees
	// base+frame to keep growth monotonic across tool rounds.
	base := ""

	for round := 0; round < e.cfg.maxRounds(); round++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		debug.Log("chat", "generation round", "round", round, "messages", len(messages))

		events, err := e.reasoner.Stream(ctx, &reasoner.Request{
			Model:    e.cfg.Model,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return "", err
		}

		var (
			toolCalls []tools.ToolCall
			roundText string
			final     string
			done      bool
			roundErr  error
		)

		for ev := range events {
			if roundErr != nil {
				continue // drain so the reasoner goroutine can exit
			}
			switch ev.Type {
			case reasoner.EventFrame:
				roundErr = emitter.Emit(ctx, base+ev.Text)
			case reasoner.EventToolCall:
				roundText = ev.Text
				toolCalls = ev.ToolCalls
			case reasoner.EventDone:
				final = base + ev.Text
				roundErr = emitter.Emit(ctx, final)
				done = true
			case reasoner.EventError:
				roundErr = ev.Err
			}
		}

		if roundErr != nil {
			return "", roundErr
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if len(toolCalls) > 0 {
			debug.Log("chat", "dispatching tool calls", "round", round, "count", len(toolCalls))
			messages = append(messages, reasoner.Message{
				Role:      "assistant",
				Content:   roundText,
				ToolCalls: toolCalls,
			})
			for _, call := range toolCalls {
				result := e.executeTool(ctx, call)
				messages = append(messages, reasoner.Message{
					Role:       "tool",
					Content:    result.Output,
					ToolCallID: call.ID,
				})
			}
			base += roundText
			continue
		}

		if done {
			return final, nil
		}

		return "", api.NewModelError("reasoning stream ended without completing")
	}

	return "", api.NewModelError(fmt.Sprintf("tool round limit of %d reached without a final reply", e.cfg.maxRounds()))
}

// executeTool dispatches one call to the matching executor. Failures
// never abort the turn; they become error results the backend can react
// to in the next round.
func (e *Engine) executeTool(ctx context.Context, call tools.ToolCall) *tools.ToolResult {
	start := time.Now()
	for _, exec := range e.executors {
		if !exec.CanExecute(call.Name) {
			continue
		}
		result, err := exec.Execute(ctx, call)
		observability.ToolExecutionDuration.WithLabelValues(call.Name).
			Observe(time.Since(start).Seconds())
		if err != nil {
			e.logger.Warn("tool execution failed", "tool", call.Name, "error", err)
			observability.ToolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
			return &tools.ToolResult{
				CallID:  call.ID,
				Output:  fmt.Sprintf("Tool %s failed: %s", call.Name, err.Error()),
				IsError: true,
			}
		}
		status := "success"
		if result.IsError {
			status = "error"
		}
		observability.ToolExecutionsTotal.WithLabelValues(call.Name, status).Inc()
		return result
	}

	e.logger.Warn("no executor for tool", "tool", call.Name)
	observability.ToolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
	return &tools.ToolResult{
		CallID:  call.ID,
		Output:  fmt.Sprintf("Unknown tool: %s", call.Name),
		IsError: true,
	}
}

// toolDefs collects the definitions of all configured executors.
func (e *Engine) toolDefs() []tools.ToolDef {
	var defs []tools.ToolDef
	for _, exec := range e.executors {
		defs = append(defs, exec.Definitions()...)
	}
	return defs
}
