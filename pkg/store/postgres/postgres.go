// Package postgres provides a PostgreSQL implementation of store.ThreadStore.
// It uses pgx/v5 for connection pooling. Turns are rows keyed by
// (thread_id, seq); sequence numbers are assigned inside a transaction with
// the thread row locked, so concurrent appends on the same thread serialize
// in the database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/legichat/legichat/pkg/api"
	"github.com/legichat/legichat/pkg/store"
)

// Store is a PostgreSQL-backed ThreadStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements store.ThreadStore at compile time.
var _ store.ThreadStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// NewWithPool wraps an existing connection pool. Used when the thread store
// and the entity catalog share one database.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateThread persists a new thread row.
func (s *Store) CreateThread(ctx context.Context, thread *api.Thread) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO threads (id, title, created_at) VALUES ($1, $2, $3)",
		thread.ID, thread.Title, thread.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("inserting thread: %w", err)
	}
	return nil
}

// GetThread retrieves thread metadata by ID.
func (s *Store) GetThread(ctx context.Context, id string) (*api.Thread, error) {
	var th api.Thread
	err := s.pool.QueryRow(ctx,
		"SELECT id, title, created_at FROM threads WHERE id = $1",
		id,
	).Scan(&th.ID, &th.Title, &th.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}
	return &th, nil
}

// LoadTurns returns all turns of a thread in sequence order.
func (s *Store) LoadTurns(ctx context.Context, threadID string) ([]api.Turn, error) {
	// Existence check first: an unknown thread is ErrNotFound, not an
	// empty result.
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM threads WHERE id = $1)",
		threadID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking thread existence: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		"SELECT role, content, seq FROM turns WHERE thread_id = $1 ORDER BY seq ASC",
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []api.Turn{}
	for rows.Next() {
		var turn api.Turn
		var role string
		if err := rows.Scan(&role, &turn.Content, &turn.Seq); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Role = api.Role(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading turns: %w", err)
	}

	return turns, nil
}

// AppendTurn adds a turn at the next sequence position. The thread row is
// locked FOR UPDATE for the duration of the transaction, so two concurrent
// appends on the same thread cannot compute the same sequence number. The
// (thread_id, seq) primary key is the backstop.
func (s *Store) AppendTurn(ctx context.Context, threadID string, turn api.Turn) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		"SELECT id FROM threads WHERE id = $1 FOR UPDATE",
		threadID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("locking thread: %w", err)
	}

	var seq int
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM turns WHERE thread_id = $1",
		threadID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("computing sequence: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO turns (thread_id, seq, role, content) VALUES ($1, $2, $3, $4)",
		threadID, seq, string(turn.Role), turn.Content,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing append: %w", err)
	}
	return seq, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
