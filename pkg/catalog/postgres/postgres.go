// Package postgres provides a PostgreSQL catalog backed by the pg_trgm
// extension. Name search pushes scoring into the database with
// similarity() and a GIN trigram index, so the Go side never loads the
// full legislator table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/legichat/legichat/pkg/catalog"
	"github.com/legichat/legichat/pkg/debug"
)

// Catalog is a PostgreSQL-backed legislator catalog.
type Catalog struct {
	pool *pgxpool.Pool
}

var _ catalog.Catalog = (*Catalog)(nil)

// New creates a catalog with the given configuration. If MigrateOnStart
// is set, schema migrations (including CREATE EXTENSION pg_trgm) are
// applied first.
func New(ctx context.Context, cfg Config) (*Catalog, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	c := &Catalog{pool: pool}

	if cfg.MigrateOnStart {
		if err := c.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return c, nil
}

// NewWithPool wraps an existing connection pool.
func NewWithPool(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// SearchByName scores legislator names against the query with pg_trgm
// similarity() and returns those strictly above the threshold.
func (c *Catalog) SearchByName(ctx context.Context, query string, threshold float64, limit int) ([]catalog.Candidate, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, type, party, year_elected, years_served, active,
		       similarity(name, $1) AS score
		FROM legislators
		WHERE similarity(name, $1) > $2
		ORDER BY score DESC, name ASC
		LIMIT $3`,
		query, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching legislators: %w", err)
	}
	defer rows.Close()

	candidates := []catalog.Candidate{}
	for rows.Next() {
		var cand catalog.Candidate
		var score float32
		if err := rows.Scan(&cand.ID, &cand.Name, &cand.Type, &cand.Party,
			&cand.YearElected, &cand.YearsServed, &cand.Active, &score); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		cand.Score = float64(score)
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}
	debug.Trace("catalog", "similarity search", "query", query, "candidates", len(candidates))
	return candidates, nil
}

// LatestSeat returns the seat from the most recent session year on record.
func (c *Catalog) LatestSeat(ctx context.Context, legislatorID int64) (*catalog.Seat, error) {
	var seat catalog.Seat
	err := c.pool.QueryRow(ctx, `
		SELECT district, session_year, session_code
		FROM legislator_seats
		WHERE legislator_id = $1
		ORDER BY session_year DESC
		LIMIT 1`,
		legislatorID,
	).Scan(&seat.District, &seat.SessionYear, &seat.SessionCode)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNoSeat
	}
	if err != nil {
		return nil, fmt.Errorf("querying seat: %w", err)
	}
	return &seat, nil
}

// HealthCheck verifies the database connection.
func (c *Catalog) HealthCheck(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close releases the connection pool.
func (c *Catalog) Close() error {
	c.pool.Close()
	return nil
}
