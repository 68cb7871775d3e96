// Command mock-backend runs a deterministic Chat Completions server for
// development and conformance testing. It speaks the streaming subset of
// the protocol that legichat consumes and scripts a two-round tool flow:
// a question that mentions a legislator produces a get_legislator_info
// tool call, and the follow-up request carrying the tool result produces
// a short text answer built from it.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Request types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []any         `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Handler ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	if !req.Stream {
		http.Error(w, `{"error":{"message":"this mock only supports stream=true","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	if len(req.Tools) > 0 && wantsLegislatorLookup(&req) && !hasToolResult(&req) {
		writeToolCallChunk(w, model, "get_legislator_info", legislatorQuery(&req))
		writeFinishChunk(w, model, "tool_calls")
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
		return
	}

	for _, token := range answerTokens(&req) {
		writeContentChunk(w, model, token)
		flusher.Flush()
	}
	writeFinishChunk(w, model, "stop")
	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// answerTokens scripts the streamed text reply.
func answerTokens(req *chatRequest) []string {
	if hasToolResult(req) {
		summary := lastToolResult(req)
		if strings.HasPrefix(summary, "No legislator found") {
			return []string{"I could", " not find", " that legislator", " in the records."}
		}
		return []string{"Here is", " what the", " records show:", "\n", summary}
	}

	last := strings.ToLower(lastUserMessage(req))
	if strings.Contains(last, "count from 1 to 5") {
		return []string{"1", ", 2", ", 3", ", 4", ", 5"}
	}
	return []string{"I can help", " with questions", " about state", " legislators", " and bills."}
}

// wantsLegislatorLookup is a crude classifier: any mention of a person
// or chamber triggers the tool round.
func wantsLegislatorLookup(req *chatRequest) bool {
	last := strings.ToLower(lastUserMessage(req))
	for _, kw := range []string{"who is", "legislator", "senator", "representative", "rep.", "sen.", "district"} {
		if strings.Contains(last, kw) {
			return true
		}
	}
	return false
}

// legislatorQuery extracts a name to look up from the last user message.
// It takes the capitalized tail of the message, falling back to the full
// message text.
func legislatorQuery(req *chatRequest) string {
	msg := strings.TrimRight(lastUserMessage(req), "?.! ")
	words := strings.Fields(msg)
	var name []string
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		if w[0] >= 'A' && w[0] <= 'Z' {
			name = append([]string{w}, name...)
		} else {
			break
		}
	}
	if len(name) == 0 {
		return msg
	}
	return strings.Join(name, " ")
}

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func hasToolResult(req *chatRequest) bool {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return false
		}
		if req.Messages[i].Role == "tool" {
			return true
		}
	}
	return false
}

func lastToolResult(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "tool" {
			return req.Messages[i].Content
		}
	}
	return ""
}

// --- SSE chunk writers ---

func writeContentChunk(w http.ResponseWriter, model, content string) {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"delta":         map[string]any{"content": content},
				"finish_reason": nil,
			},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeToolCallChunk(w http.ResponseWriter, model, toolName, name string) {
	args, _ := json.Marshal(map[string]string{"name": name})
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index": 0,
				"delta": map[string]any{
					"tool_calls": []any{
						map[string]any{
							"index": 0,
							"id":    "call_mock_1",
							"type":  "function",
							"function": map[string]any{
								"name":      toolName,
								"arguments": string(args),
							},
						},
					},
				},
				"finish_reason": nil,
			},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeFinishChunk(w http.ResponseWriter, model, reason string) {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"delta":         map[string]any{},
				"finish_reason": reason,
			},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// --- Models endpoint ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "legichat-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
