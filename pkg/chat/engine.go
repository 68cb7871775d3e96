package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/reasoner"
	"github.com/legichat/legichat/pkg/store"
	"github.com/legichat/legichat/pkg/tools"
	"github.com/legichat/legichat/pkg/transport"
)

// Engine orchestrates turns between the transport layer, the reasoning
// backend, the tool executors, and the thread store.
type Engine struct {
	reasoner  reasoner.Reasoner
	store     store.ThreadStore
	executors []tools.Executor
	cfg       Config
	guard     *threadGuard
	logger    *slog.Logger
}

// Ensure Engine implements the transport contracts at compile time.
var (
	_ transport.ThreadStarter    = (*Engine)(nil)
	_ transport.TurnStreamer     = (*Engine)(nil)
	_ transport.TranscriptReader = (*Engine)(nil)
)

// New creates an Engine. The reasoner and store must not be nil;
// executors may be empty for a tool-less deployment.
func New(r reasoner.Reasoner, s store.ThreadStore, executors []tools.Executor, cfg Config, logger *slog.Logger) (*Engine, error) {
	if r == nil {
		return nil, fmt.Errorf("chat: reasoner must not be nil")
	}
	if s == nil {
		return nil, fmt.Errorf("chat: store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		reasoner:  r,
		store:     s,
		executors: executors,
		cfg:       cfg,
		guard:     newThreadGuard(),
		logger:    logger,
	}, nil
}

// StartThread creates a thread titled after the opening message. The
// message itself is not appended and nothing is generated; the client
// sends it again as the first streamed turn.
func (e *Engine) StartThread(ctx context.Context, message string) (*api.Thread, error) {
	if strings.TrimSpace(message) == "" {
		return nil, api.NewInvalidRequestError("message", "message must not be empty")
	}

	thread := &api.Thread{
		ID:        api.NewThreadID(),
		Title:     api.TitleFromMessage(message),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateThread(ctx, thread); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("creating thread: %s", err.Error()))
	}

	e.logger.Info("thread started", "thread_id", thread.ID)
	return thread, nil
}

// Transcript returns the displayable messages of a thread. Assistant
// turns with empty content are dropped; IDs are post-filter positions.
// Unknown threads yield an empty transcript.
func (e *Engine) Transcript(ctx context.Context, threadID string) ([]api.TranscriptMessage, error) {
	turns, err := e.store.LoadTurns(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return []api.TranscriptMessage{}, nil
	}
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("loading turns: %s", err.Error()))
	}
	return NormalizeTranscript(turns), nil
}

// HealthCheck verifies the engine's dependencies are reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.store.HealthCheck(ctx)
}
