package store

import (
	"context"

	"github.com/legichat/legichat/pkg/api"
)

// ThreadStore persists threads and their ordered turns. Turn order is
// insertion order and is never rewritten; appended turns are immutable.
//
// Implementations must be safe for concurrent use. AppendTurn must be
// atomic with respect to concurrent appends on the same thread: two
// concurrent appends may interleave in either order but must receive
// distinct, gapless sequence numbers.
type ThreadStore interface {
	// CreateThread persists a new thread. Returns ErrConflict if a
	// thread with the same ID already exists.
	CreateThread(ctx context.Context, thread *api.Thread) error

	// GetThread retrieves thread metadata. Returns ErrNotFound if the
	// thread does not exist.
	GetThread(ctx context.Context, id string) (*api.Thread, error)

	// LoadTurns returns all turns of a thread in sequence order.
	// A brand-new thread yields an empty (non-nil) slice; an unknown
	// thread yields ErrNotFound.
	LoadTurns(ctx context.Context, threadID string) ([]api.Turn, error)

	// AppendTurn adds a turn to the end of the thread's log and returns
	// the sequence number it was assigned. Returns ErrNotFound if the
	// thread does not exist.
	AppendTurn(ctx context.Context, threadID string, turn api.Turn) (int, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
