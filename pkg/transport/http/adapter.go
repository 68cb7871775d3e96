package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/debug"
	"github.com/legichat/legichat/pkg/transport"
)

// Adapter serves the conversation API over HTTP. It routes requests to
// the handler contracts and serializes responses.
type Adapter struct {
	starter     transport.ThreadStarter
	streamer    transport.TurnStreamer
	transcripts transport.TranscriptReader
	mux         *http.ServeMux
	config      Config
	logger      *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr        string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter for the given handlers.
// Middleware is applied to the TurnStreamer in the given order.
func NewAdapter(starter transport.ThreadStarter, streamer transport.TurnStreamer, transcripts transport.TranscriptReader, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		streamer = transport.Chain(middlewares...)(streamer)
	}

	a := &Adapter{
		starter:     starter,
		streamer:    streamer,
		transcripts: transcripts,
		mux:         http.NewServeMux(),
		config:      cfg,
		logger:      slog.Default(),
	}

	a.mux.HandleFunc("POST /v1/threads", a.handleStartThread)
	a.mux.HandleFunc("POST /v1/threads/{id}/stream", a.handleStreamTurn)
	a.mux.HandleFunc("GET /v1/threads/{id}/messages", a.handleTranscript)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to
// integrate with an http.Server or test with httptest. The returned
// handler includes HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware propagates the X-Request-ID header. A client
// supplied ID is forwarded into the context; the ID assigned by the
// transport-level RequestID middleware is echoed back on the response
// before the first write.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleStartThread handles POST /v1/threads.
func (a *Adapter) handleStartThread(w http.ResponseWriter, r *http.Request) {
	var req api.StartThreadRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if apiErr := req.Validate(); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	thread, err := a.starter.StartThread(r.Context(), req.Message)
	if err != nil {
		transport.WriteAPIError(w, asAPIError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(api.StartThreadResponse{ThreadID: thread.ID})
}

// handleStreamTurn handles POST /v1/threads/{id}/stream.
func (a *Adapter) handleStreamTurn(w http.ResponseWriter, r *http.Request) {
	var req api.StreamTurnRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	req.ThreadID = r.PathValue("id")
	if apiErr := req.Validate(); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	debug.Log("transport", "turn stream opened", "thread_id", req.ThreadID)

	dw := newDeltaStreamWriter(w)
	if err := a.streamer.StreamTurn(r.Context(), req.ThreadID, req.Message, dw); err != nil {
		a.writeHandlerError(w, dw, err)
	}
}

// handleTranscript handles GET /v1/threads/{id}/messages.
func (a *Adapter) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateThreadID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("thread_id", "malformed thread ID"),
			http.StatusBadRequest,
		)
		return
	}

	messages, err := a.transcripts.Transcript(r.Context(), id)
	if err != nil {
		transport.WriteAPIError(w, asAPIError(err))
		return
	}
	if messages == nil {
		messages = []api.TranscriptMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.TranscriptResponse{Messages: messages})
}

// decodeBody validates the Content-Type, limits the body size, and
// decodes JSON into dst. It writes the error response itself and
// reports whether decoding succeeded.
func (a *Adapter) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}
	return true
}

// writeHandlerError reports a turn handler failure. Before the first
// delta it writes a standard JSON error response. Once streaming has
// begun the status line is already on the wire, so the handler aborts
// the connection without the terminal chunk; the client's body read
// fails instead of a partial reply ending like a complete one.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, dw *deltaStreamWriter, err error) {
	apiErr := asAPIError(err)

	if dw.hasStartedStreaming() {
		a.logger.Warn("turn failed mid-stream, aborting connection",
			slog.String("error_type", string(apiErr.Type)),
			slog.String("error", apiErr.Message))
		panic(http.ErrAbortHandler)
	}

	transport.WriteAPIError(w, apiErr)
}

func asAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return api.NewServerError(err.Error())
}
