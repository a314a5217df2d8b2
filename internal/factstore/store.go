// Package factstore is the append-only ledger of external events. It is
// the only source of truth other governance components read from. The
// public surface has no update or delete: callers correct history by
// appending a compensating fact.
package factstore

import (
	"sync"
	"time"

	"github.com/ppiankov/decisiongate/internal/model"
)

// Store holds facts in insertion order.
type Store struct {
	mu    sync.RWMutex
	facts []model.Fact
}

// New creates an empty fact store.
func New() *Store {
	return &Store{}
}

// Append validates and records one fact. Facts missing a required field
// are rejected with a *model.ValidationError and nothing is stored.
func (s *Store) Append(f model.Fact) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = append(s.facts, f)
	return nil
}

// Query returns facts for a subject within [from, until] in insertion
// order. Zero from/until mean unbounded on that side. Empty subjectID
// matches all subjects.
func (s *Store) Query(subjectID string, from, until time.Time) []model.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Fact
	for _, f := range s.facts {
		if subjectID != "" && f.SubjectID != subjectID {
			continue
		}
		if !from.IsZero() && f.Timestamp.Before(from) {
			continue
		}
		if !until.IsZero() && f.Timestamp.After(until) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Len returns the number of facts in the ledger.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}
