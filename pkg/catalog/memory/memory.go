// Package memory provides an in-memory catalog backed by a seeded
// legislator list. It is used for tests and for running without a
// database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/legichat/legichat/pkg/catalog"
)

// Legislator is a seed record: one legislator plus their session seat
// history.
type Legislator struct {
	ID          int64
	Name        string
	Type        string
	Party       string
	YearElected int
	YearsServed int
	Active      bool
	Seats       []catalog.Seat
}

// Store is an in-memory catalog.
type Store struct {
	mu          sync.RWMutex
	legislators []Legislator
}

var _ catalog.Catalog = (*Store)(nil)

// New creates a catalog from the given seed records.
func New(legislators []Legislator) *Store {
	return &Store{legislators: legislators}
}

// SearchByName scores every legislator against the query with trigram
// similarity and returns those above the threshold, best first.
func (s *Store) SearchByName(ctx context.Context, query string, threshold float64, limit int) ([]catalog.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := []catalog.Candidate{}
	for _, leg := range s.legislators {
		score := catalog.Similarity(query, leg.Name)
		if score <= threshold {
			continue
		}
		candidates = append(candidates, catalog.Candidate{
			ID:          leg.ID,
			Name:        leg.Name,
			Type:        leg.Type,
			Party:       leg.Party,
			YearElected: leg.YearElected,
			YearsServed: leg.YearsServed,
			Active:      leg.Active,
			Score:       score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// LatestSeat returns the seat from the most recent session year.
func (s *Store) LatestSeat(ctx context.Context, legislatorID int64) (*catalog.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, leg := range s.legislators {
		if leg.ID != legislatorID {
			continue
		}
		if len(leg.Seats) == 0 {
			return nil, catalog.ErrNoSeat
		}
		latest := leg.Seats[0]
		for _, seat := range leg.Seats[1:] {
			if seat.SessionYear > latest.SessionYear {
				latest = seat
			}
		}
		return &latest, nil
	}
	return nil, catalog.ErrNoSeat
}

// HealthCheck always succeeds for the in-memory catalog.
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
