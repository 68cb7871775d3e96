package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/debug"
	"github.com/legichat/legichat/pkg/reasoner"
	"github.com/legichat/legichat/pkg/tools"
)

// Client is a Reasoner backed by an OpenAI-compatible Chat Completions
// endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ reasoner.Reasoner = (*Client)(nil)

// New creates a Client for the given backend.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return "openai-chat"
}

// Stream performs streaming inference against the Chat Completions
// endpoint. The returned channel is closed when the stream completes,
// errors, or the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead.
func (c *Client) Stream(ctx context.Context, req *reasoner.Request) (<-chan reasoner.Event, error) {
	chatReq := translateRequest(req)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.baseURL + "/v1/chat/completions"
	debug.Log("reasoner", "streaming chat completion",
		"url", url, "model", req.Model,
		"messages", len(req.Messages), "tools", len(req.Tools))
	debug.Raw("reasoner", string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	// Use a client without timeout for streaming. The context controls
	// the request lifetime instead.
	streamClient := &http.Client{
		Transport: c.httpClient.Transport,
	}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	ch := make(chan reasoner.Event, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// translateRequest converts a reasoner request to the Chat Completions
// wire format with streaming forced on.
func translateRequest(req *reasoner.Request) *chatCompletionRequest {
	chatReq := &chatCompletionRequest{
		Model:         req.Model,
		Messages:      make([]chatMessage, 0, len(req.Messages)),
		Stream:        true,
		StreamOptions: &chatStreamOptions{IncludeUsage: false},
	}

	for _, msg := range req.Messages {
		cm := chatMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: chatFunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		chatReq.Messages = append(chatReq.Messages, cm)
	}

	for _, def := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, chatTool{
			Type: "function",
			Function: chatFunctionDef{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}

	return chatReq
}

// convert assembled tool call buffers to the engine's tool call type.
func bufferedCalls(buffers map[int]*toolCallBuffer) []tools.ToolCall {
	if len(buffers) == 0 {
		return nil
	}
	// Order by chunk index so repeated runs see the same call order.
	// Indexes may be sparse, so sort the keys rather than counting up.
	idxs := make([]int, 0, len(buffers))
	for idx := range buffers {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	calls := make([]tools.ToolCall, 0, len(buffers))
	for _, idx := range idxs {
		buf := buffers[idx]
		calls = append(calls, tools.ToolCall{
			ID:        buf.ID,
			Name:      buf.Name,
			Arguments: buf.Args.String(),
		})
	}
	return calls
}
