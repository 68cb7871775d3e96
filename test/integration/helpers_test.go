// Package integration provides end-to-end tests for the legichat API.
//
// Tests run against a real legichat HTTP server backed by a scripted
// Chat Completions backend, both started in-process using
// net/http/httptest.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/legichat/legichat/pkg/catalog"
	catalogmemory "github.com/legichat/legichat/pkg/catalog/memory"
	"github.com/legichat/legichat/pkg/chat"
	"github.com/legichat/legichat/pkg/reasoner/openaichat"
	storememory "github.com/legichat/legichat/pkg/store/memory"
	"github.com/legichat/legichat/pkg/tools"
	transporthttp "github.com/legichat/legichat/pkg/transport/http"
)

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the legichat server and mock backend for testing.
type TestEnvironment struct {
	ChatServer  *httptest.Server
	MockBackend *httptest.Server
}

// TestMain starts the mock backend and legichat server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment creates a scripted Chat Completions backend and a
// legichat server wired to it, with an in-memory store and catalog.
func setupTestEnvironment() *TestEnvironment {
	mockBackend := startMockBackend()

	r := openaichat.New(mockBackend.URL, "", 30*time.Second)

	threads := storememory.New()

	cat := catalogmemory.New([]catalogmemory.Legislator{
		{
			ID: 1, Name: "Jonathan Patterson", Type: "Senator", Party: "Republican",
			YearElected: 2018, YearsServed: 7, Active: true,
			Seats: []catalog.Seat{
				{District: "31", SessionYear: 2023, SessionCode: "2023RS"},
			},
		},
	})
	resolver := tools.NewLegislatorResolver(cat, slog.Default())

	engine, err := chat.New(r, threads, []tools.Executor{resolver}, chat.Config{
		Model: "mock-model",
	}, slog.Default())
	if err != nil {
		panic(fmt.Sprintf("creating engine: %v", err))
	}

	adapter := transporthttp.NewAdapter(engine, engine, engine, transporthttp.DefaultConfig())

	// Build mux matching production layout.
	mux := http.NewServeMux()
	mux.Handle("/", adapter.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	return &TestEnvironment{
		ChatServer:  httptest.NewServer(mux),
		MockBackend: mockBackend,
	}
}

// Teardown stops both servers.
func (env *TestEnvironment) Teardown() {
	if env.ChatServer != nil {
		env.ChatServer.Close()
	}
	if env.MockBackend != nil {
		env.MockBackend.Close()
	}
}

// BaseURL returns the legichat server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.ChatServer.URL
}

// --- HTTP helpers ---

// postJSON sends a POST request with JSON body and returns the response.
func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// getURL sends a GET request and returns the response.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// startThread creates a thread and returns its ID.
func startThread(t *testing.T, message string) string {
	t.Helper()
	resp := postJSON(t, testEnv.BaseURL()+"/v1/threads", map[string]string{"message": message})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start thread status = %d", resp.StatusCode)
	}
	var started struct {
		ThreadID string `json:"thread_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	return started.ThreadID
}

// streamTurn posts one turn and returns the full streamed reply text.
func streamTurn(t *testing.T, threadID, message string) string {
	t.Helper()
	resp := postJSON(t, testEnv.BaseURL()+"/v1/threads/"+threadID+"/stream", map[string]string{"message": message})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream turn status = %d: %s", resp.StatusCode, readBody(t, resp))
	}
	return readBody(t, resp)
}

// --- Mock backend ---

// startMockBackend creates an httptest server that mimics the streaming
// Chat Completions API. A user message that mentions a legislator yields
// a get_legislator_info tool call; once a tool result is present the
// backend streams a short answer that embeds it.
func startMockBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleMockChatCompletions)
	return httptest.NewServer(mux)
}

func handleMockChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Tools  []any `json:"tools"`
		Stream bool  `json:"stream"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	lastUser := ""
	toolResult := ""
	afterLastUser := true
	for i := len(req.Messages) - 1; i >= 0; i-- {
		msg := req.Messages[i]
		if msg.Role == "user" && lastUser == "" {
			lastUser = msg.Content
			afterLastUser = false
		}
		if msg.Role == "tool" && afterLastUser && toolResult == "" {
			toolResult = msg.Content
		}
	}

	switch {
	case toolResult != "":
		// Second round: answer from the tool result.
		writeContentChunk(w, req.Model, "According to the records: ")
		flusher.Flush()
		writeContentChunk(w, req.Model, firstLine(toolResult))
		flusher.Flush()
		writeFinishChunk(w, req.Model, "stop")
	case len(req.Tools) > 0 && mentionsLegislator(lastUser):
		writeToolCallChunk(w, req.Model, `{"name":"Patterson"}`)
		flusher.Flush()
		writeFinishChunk(w, req.Model, "tool_calls")
	case strings.Contains(strings.ToLower(lastUser), "fail please"):
		fmt.Fprintf(w, "data: {malformed\n\n")
		flusher.Flush()
		writeFinishChunk(w, req.Model, "stop")
	default:
		for _, token := range []string{"Hello", " from", " the", " assembly", " desk."} {
			writeContentChunk(w, req.Model, token)
			flusher.Flush()
		}
		writeFinishChunk(w, req.Model, "stop")
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func mentionsLegislator(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "who is") || strings.Contains(lower, "senator") ||
		strings.Contains(lower, "legislator")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func writeContentChunk(w http.ResponseWriter, model, content string) {
	data, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-mock-stream", "object": "chat.completion.chunk", "model": model,
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{"content": content}, "finish_reason": nil},
		},
	})
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeToolCallChunk(w http.ResponseWriter, model, args string) {
	data, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-mock-stream", "object": "chat.completion.chunk", "model": model,
		"choices": []map[string]any{
			{
				"index": 0,
				"delta": map[string]any{
					"tool_calls": []map[string]any{
						{
							"index": 0,
							"id":    "call_mock_1",
							"type":  "function",
							"function": map[string]any{
								"name":      "get_legislator_info",
								"arguments": args,
							},
						},
					},
				},
				"finish_reason": nil,
			},
		},
	})
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeFinishChunk(w http.ResponseWriter, model, reason string) {
	data, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-mock-stream", "object": "chat.completion.chunk", "model": model,
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{}, "finish_reason": reason},
		},
	})
	fmt.Fprintf(w, "data: %s\n\n", data)
}
