package lender

import (
	"context"
	"strings"
	"sync"
)

// Store is a searchable directory of lenders. Entries are indexed once at
// startup; Search does a simple token match against the indexed fields, which
// is all the counseling pipeline depends on.
type Store struct {
	mu      sync.RWMutex
	lenders []Lender
}

func NewStore() *Store {
	return &Store{}
}

// Index replaces the store contents with the given lenders.
func (s *Store) Index(_ context.Context, lenders []Lender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lenders = append([]Lender(nil), lenders...)
	return nil
}

// Search returns lenders whose indexed fields match any token of the query.
// An empty query matches nothing.
func (s *Store) Search(ctx context.Context, query string) ([]Lender, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Lender
	for _, l := range s.lenders {
		if matchesAny(l, tokens) {
			matches = append(matches, l)
		}
	}
	return matches, nil
}

func matchesAny(l Lender, tokens []string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		l.Name,
		l.Country,
		l.UniversityCountry,
		l.Currency,
		l.MaximumAmount,
	}, " "))
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	// Lenders open to any corridor always remain candidates.
	return strings.Contains(haystack, "any")
}

// Digest renders search results as the short text block fed to the prompt.
func Digest(lenders []Lender) string {
	if len(lenders) == 0 {
		return "No matching lenders found."
	}
	lines := make([]string, 0, len(lenders))
	for _, l := range lenders {
		lines = append(lines, l.Name+" (max "+l.MaximumAmount+", "+l.InterestRate+")")
	}
	return strings.Join(lines, "\n")
}
