package recstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a process-lifetime recommendation store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// FindSimilar returns the most recent records for the same destination
// country, newest first.
func (s *InMemoryStore) FindSimilar(_ context.Context, details map[string]any) ([]Record, error) {
	dest := destinationOf(details)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for i := len(s.records) - 1; i >= 0 && len(out) < findSimilarLimit; i-- {
		r := s.records[i]
		if dest == "" || strings.EqualFold(destinationOf(r.StudentDetails), dest) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Store(_ context.Context, details map[string]any, recommendation string, metadata map[string]string) error {
	rec := Record{
		ID:             uuid.NewString(),
		UserID:         metadata["user_id"],
		StudentDetails: details,
		Recommendation: recommendation,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// Len reports how many records are stored. Used by tests and health reporting.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
