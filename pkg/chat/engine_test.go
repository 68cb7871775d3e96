package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/reasoner"
	"github.com/legichat/legichat/pkg/store"
	"github.com/legichat/legichat/pkg/store/memory"
	"github.com/legichat/legichat/pkg/tools"
)

// scriptedReasoner replays one event script per Stream call and records
// the requests it received.
type scriptedReasoner struct {
	scripts  [][]reasoner.Event
	requests []*reasoner.Request
	callErr  error
}

func (s *scriptedReasoner) Name() string { return "scripted" }

func (s *scriptedReasoner) Stream(ctx context.Context, req *reasoner.Request) (<-chan reasoner.Event, error) {
	if s.callErr != nil {
		return nil, s.callErr
	}
	s.requests = append(s.requests, req)
	if len(s.scripts) == 0 {
		return nil, errors.New("scripted reasoner: no scripts left")
	}
	script := s.scripts[0]
	s.scripts = s.scripts[1:]

	ch := make(chan reasoner.Event, len(script))
	for _, ev := range script {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (s *scriptedReasoner) Close() error { return nil }

// blockingReasoner signals when Stream begins and holds the stream open
// until released or the context ends.
type blockingReasoner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingReasoner) Name() string { return "blocking" }

func (b *blockingReasoner) Stream(ctx context.Context, req *reasoner.Request) (<-chan reasoner.Event, error) {
	ch := make(chan reasoner.Event, 1)
	go func() {
		defer close(ch)
		close(b.started)
		select {
		case <-b.release:
			ch <- reasoner.Event{Type: reasoner.EventDone, Text: "late reply"}
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (b *blockingReasoner) Close() error { return nil }

// echoExecutor records calls and returns a fixed output.
type echoExecutor struct {
	calls  []tools.ToolCall
	output string
	err    error
}

func (e *echoExecutor) Definitions() []tools.ToolDef {
	return []tools.ToolDef{{Name: "get_legislator_info"}}
}

func (e *echoExecutor) CanExecute(name string) bool { return name == "get_legislator_info" }

func (e *echoExecutor) Execute(ctx context.Context, call tools.ToolCall) (*tools.ToolResult, error) {
	e.calls = append(e.calls, call)
	if e.err != nil {
		return nil, e.err
	}
	return &tools.ToolResult{CallID: call.ID, Output: e.output}, nil
}

func newTestEngine(t *testing.T, r reasoner.Reasoner, executors []tools.Executor, cfg Config) (*Engine, store.ThreadStore) {
	t.Helper()
	s := memory.New()
	if cfg.Model == "" {
		cfg.Model = "test-model"
	}
	e, err := New(r, s, executors, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, s
}

func mustStartThread(t *testing.T, e *Engine) string {
	t.Helper()
	th, err := e.StartThread(context.Background(), "what bills passed?")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	return th.ID
}

func TestStartThread_EmptyMessage(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedReasoner{}, nil, Config{})

	_, err := e.StartThread(context.Background(), "   ")
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request, got %v", err)
	}
}

func TestStartThread_CreatesThreadWithoutTurns(t *testing.T) {
	e, s := newTestEngine(t, &scriptedReasoner{}, nil, Config{})

	th, err := e.StartThread(context.Background(), "who is my senator?")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if th.Title != "who is my senator?" {
		t.Errorf("Title = %q", th.Title)
	}

	stored, err := s.GetThread(context.Background(), th.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if stored.ID != th.ID {
		t.Errorf("stored ID = %q", stored.ID)
	}

	turns, err := s.LoadTurns(context.Background(), th.ID)
	if err != nil {
		t.Fatalf("LoadTurns: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("starting a thread must not append turns, got %d", len(turns))
	}
}

func TestStreamTurn_Success(t *testing.T) {
	r := &scriptedReasoner{scripts: [][]reasoner.Event{{
		{Type: reasoner.EventFrame, Text: "Hel"},
		{Type: reasoner.EventFrame, Text: "Hello"},
		{Type: reasoner.EventDone, Text: "Hello there"},
	}}}
	e, s := newTestEngine(t, r, nil, Config{})
	threadID := mustStartThread(t, e)

	w := &recordingWriter{}
	if err := e.StreamTurn(context.Background(), threadID, "hi", w); err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}

	if w.String() != "Hello there" {
		t.Errorf("streamed text = %q", w.String())
	}

	turns, _ := s.LoadTurns(context.Background(), threadID)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != api.RoleUser || turns[0].Content != "hi" {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Role != api.RoleAssistant || turns[1].Content != "Hello there" {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestStreamTurn_EmptyMessage(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedReasoner{}, nil, Config{})
	threadID := mustStartThread(t, e)

	err := e.StreamTurn(context.Background(), threadID, "", &recordingWriter{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request, got %v", err)
	}
}

func TestStreamTurn_UnknownThread(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedReasoner{}, nil, Config{})

	err := e.StreamTurn(context.Background(), "thread_missing", "hi", &recordingWriter{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestStreamTurn_FailureAppendsNothing(t *testing.T) {
	r := &scriptedReasoner{scripts: [][]reasoner.Event{{
		{Type: reasoner.EventFrame, Text: "partial"},
		{Type: reasoner.EventError, Err: errors.New("backend died")},
	}}}
	e, s := newTestEngine(t, r, nil, Config{})
	threadID := mustStartThread(t, e)

	if err := e.StreamTurn(context.Background(), threadID, "hi", &recordingWriter{}); err == nil {
		t.Fatal("expected error from failing reasoner")
	}

	turns, _ := s.LoadTurns(context.Background(), threadID)
	if len(turns) != 0 {
		t.Errorf("failed turn must leave the thread untouched, got %d turns", len(turns))
	}
}

func TestStreamTurn_HistorySentToReasoner(t *testing.T) {
	r := &scriptedReasoner{scripts: [][]reasoner.Event{
		{{Type: reasoner.EventDone, Text: "first answer"}},
		{{Type: reasoner.EventDone, Text: "second answer"}},
	}}
	e, _ := newTestEngine(t, r, nil, Config{SystemPrompt: "be helpful"})
	threadID := mustStartThread(t, e)

	e.StreamTurn(context.Background(), threadID, "first question", &recordingWriter{})
	e.StreamTurn(context.Background(), threadID, "second question", &recordingWriter{})

	if len(r.requests) != 2 {
		t.Fatalf("expected 2 reasoner calls, got %d", len(r.requests))
	}
	second := r.requests[1].Messages
	// system + first question + first answer + second question
	if len(second) != 4 {
		t.Fatalf("second request messages = %d: %+v", len(second), second)
	}
	if second[0].Role != "system" {
		t.Errorf("message 0 role = %q", second[0].Role)
	}
	if second[1].Content != "first question" || second[2].Content != "first answer" {
		t.Errorf("history out of order: %+v", second)
	}
	if second[3].Content != "second question" {
		t.Errorf("new message = %+v", second[3])
	}
}

func TestStreamTurn_ToolRound(t *testing.T) {
	call := tools.ToolCall{ID: "call_1", Name: "get_legislator_info", Arguments: `{"name":"Smith"}`}
	r := &scriptedReasoner{scripts: [][]reasoner.Event{
		{{Type: reasoner.EventToolCall, ToolCalls: []tools.ToolCall{call}}},
		{
			{Type: reasoner.EventFrame, Text: "Rep. Smith "},
			{Type: reasoner.EventDone, Text: "Rep. Smith serves district 31."},
		},
	}}
	exec := &echoExecutor{output: "Found 1 legislator matching 'Smith':"}
	e, s := newTestEngine(t, r, []tools.Executor{exec}, Config{})
	threadID := mustStartThread(t, e)

	w := &recordingWriter{}
	if err := e.StreamTurn(context.Background(), threadID, "who is Smith?", w); err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}

	if len(exec.calls) != 1 || exec.calls[0].ID != "call_1" {
		t.Fatalf("executor calls = %+v", exec.calls)
	}

	// The second round must carry the assistant tool call and the tool result.
	if len(r.requests) != 2 {
		t.Fatalf("expected 2 reasoner calls, got %d", len(r.requests))
	}
	msgs := r.requests[1].Messages
	last, prev := msgs[len(msgs)-1], msgs[len(msgs)-2]
	if prev.Role != "assistant" || len(prev.ToolCalls) != 1 {
		t.Errorf("assistant tool call message = %+v", prev)
	}
	if last.Role != "tool" || last.ToolCallID != "call_1" || last.Content != exec.output {
		t.Errorf("tool result message = %+v", last)
	}

	if w.String() != "Rep. Smith serves district 31." {
		t.Errorf("streamed text = %q", w.String())
	}

	turns, _ := s.LoadTurns(context.Background(), threadID)
	if len(turns) != 2 || turns[1].Content != "Rep. Smith serves district 31." {
		t.Errorf("turns = %+v", turns)
	}
}

func TestStreamTurn_ExecutorErrorFedBack(t *testing.T) {
	call := tools.ToolCall{ID: "call_1", Name: "get_legislator_info", Arguments: `{}`}
	r := &scriptedReasoner{scripts: [][]reasoner.Event{
		{{Type: reasoner.EventToolCall, ToolCalls: []tools.ToolCall{call}}},
		{{Type: reasoner.EventDone, Text: "I could not look that up."}},
	}}
	exec := &echoExecutor{err: errors.New("catalog offline")}
	e, _ := newTestEngine(t, r, []tools.Executor{exec}, Config{})
	threadID := mustStartThread(t, e)

	if err := e.StreamTurn(context.Background(), threadID, "who is Smith?", &recordingWriter{}); err != nil {
		t.Fatalf("executor errors must not abort the turn: %v", err)
	}

	msgs := r.requests[1].Messages
	last := msgs[len(msgs)-1]
	if last.Role != "tool" || last.Content == "" {
		t.Errorf("expected error text fed back as tool message, got %+v", last)
	}
}

func TestStreamTurn_UnknownToolFedBack(t *testing.T) {
	call := tools.ToolCall{ID: "call_1", Name: "get_bill_info", Arguments: `{}`}
	r := &scriptedReasoner{scripts: [][]reasoner.Event{
		{{Type: reasoner.EventToolCall, ToolCalls: []tools.ToolCall{call}}},
		{{Type: reasoner.EventDone, Text: "done"}},
	}}
	e, _ := newTestEngine(t, r, nil, Config{})
	threadID := mustStartThread(t, e)

	if err := e.StreamTurn(context.Background(), threadID, "hi", &recordingWriter{}); err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}

	last := r.requests[1].Messages[len(r.requests[1].Messages)-1]
	if last.Role != "tool" || last.Content != "Unknown tool: get_bill_info" {
		t.Errorf("tool message = %+v", last)
	}
}

func TestStreamTurn_RoundLimit(t *testing.T) {
	call := tools.ToolCall{ID: "call_loop", Name: "get_legislator_info", Arguments: `{}`}
	loop := []reasoner.Event{{Type: reasoner.EventToolCall, ToolCalls: []tools.ToolCall{call}}}
	r := &scriptedReasoner{scripts: [][]reasoner.Event{loop, loop, loop}}
	exec := &echoExecutor{output: "result"}
	e, s := newTestEngine(t, r, []tools.Executor{exec}, Config{MaxToolRounds: 2})
	threadID := mustStartThread(t, e)

	err := e.StreamTurn(context.Background(), threadID, "hi", &recordingWriter{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeModelError {
		t.Fatalf("expected model_error at round limit, got %v", err)
	}
	if len(r.requests) != 2 {
		t.Errorf("expected exactly 2 rounds, got %d", len(r.requests))
	}

	turns, _ := s.LoadTurns(context.Background(), threadID)
	if len(turns) != 0 {
		t.Errorf("round-limited turn must append nothing, got %d turns", len(turns))
	}
}

func TestStreamTurn_ConcurrentRejected(t *testing.T) {
	r := &blockingReasoner{started: make(chan struct{}), release: make(chan struct{})}
	e, _ := newTestEngine(t, r, nil, Config{})
	threadID := mustStartThread(t, e)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- e.StreamTurn(context.Background(), threadID, "first", &recordingWriter{})
	}()

	<-r.started

	err := e.StreamTurn(context.Background(), threadID, "second", &recordingWriter{})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeConflict {
		t.Errorf("expected conflict for concurrent turn, got %v", err)
	}

	close(r.release)
	if err := <-firstDone; err != nil {
		t.Errorf("first turn should complete: %v", err)
	}
}

func TestStreamTurn_TimeoutAppendsNothing(t *testing.T) {
	r := &blockingReasoner{started: make(chan struct{}), release: make(chan struct{})}
	e, s := newTestEngine(t, r, nil, Config{GenerationTimeout: 20 * time.Millisecond})
	threadID := mustStartThread(t, e)

	err := e.StreamTurn(context.Background(), threadID, "hi", &recordingWriter{})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	turns, _ := s.LoadTurns(context.Background(), threadID)
	if len(turns) != 0 {
		t.Errorf("timed-out turn must append nothing, got %d turns", len(turns))
	}
}

func TestStreamTurn_CancelAppendsNothing(t *testing.T) {
	r := &blockingReasoner{started: make(chan struct{}), release: make(chan struct{})}
	e, s := newTestEngine(t, r, nil, Config{})
	threadID := mustStartThread(t, e)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.StreamTurn(ctx, threadID, "hi", &recordingWriter{})
	}()

	<-r.started
	cancel()

	if err := <-done; err == nil {
		t.Fatal("expected cancellation error")
	}

	turns, _ := s.LoadTurns(context.Background(), threadID)
	if len(turns) != 0 {
		t.Errorf("cancelled turn must append nothing, got %d turns", len(turns))
	}
}

func TestTranscript_UnknownThreadEmpty(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedReasoner{}, nil, Config{})

	msgs, err := e.Transcript(context.Background(), "thread_missing")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("expected empty non-nil transcript, got %+v", msgs)
	}
}
