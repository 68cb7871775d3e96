// Package catalog defines the legislator catalog interface used by the
// entity resolution tool. Implementations score candidate legislators
// against a free-text name query using trigram similarity and expose
// per-legislator session seat history.
package catalog

import (
	"context"
	"errors"
)

// ErrNoSeat indicates a legislator has no recorded session seat.
var ErrNoSeat = errors.New("no seat recorded for legislator")

// Candidate is a legislator matched against a name query, with its
// similarity score.
type Candidate struct {
	ID          int64
	Name        string
	Type        string // "Senator" or "Representative"
	Party       string
	YearElected int
	YearsServed int
	Active      bool
	Score       float64
}

// Seat is a legislator's district assignment for one legislative session.
type Seat struct {
	District    string
	SessionYear int
	SessionCode string
}

// Catalog resolves free-text legislator names to structured records.
type Catalog interface {
	// SearchByName returns candidates whose name similarity to query is
	// strictly greater than threshold, ordered by descending score and
	// capped at limit. An empty result is not an error.
	SearchByName(ctx context.Context, query string, threshold float64, limit int) ([]Candidate, error)

	// LatestSeat returns the legislator's seat in the most recent session
	// on record. Returns ErrNoSeat if the legislator has no seat history.
	LatestSeat(ctx context.Context, legislatorID int64) (*Seat, error)

	// HealthCheck verifies the catalog backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
