// Package chatlog keeps a process-lifetime archive of completed chat
// exchanges, separate from the live conversation memory the orchestrator
// mutates. It exists for inspection (history endpoint) and keyword lookup.
package chatlog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Exchange is one completed student/counselor round trip.
type Exchange struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type Log struct {
	mu     sync.RWMutex
	byUser map[string][]Exchange
}

func New() *Log {
	return &Log{byUser: make(map[string][]Exchange)}
}

// Add appends a completed exchange to the user's archive.
func (l *Log) Add(userID, message, response string) {
	e := Exchange{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byUser[userID] = append(l.byUser[userID], e)
}

// ByUser returns the user's archived exchanges in append order.
func (l *Log) ByUser(userID string) []Exchange {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Exchange(nil), l.byUser[userID]...)
}

// Find returns archived exchanges whose message or response contains the
// query, case-insensitive, across all users.
func (l *Log) Find(query string) []Exchange {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Exchange
	for _, exchanges := range l.byUser {
		for _, e := range exchanges {
			if strings.Contains(strings.ToLower(e.Message), q) ||
				strings.Contains(strings.ToLower(e.Response), q) {
				out = append(out, e)
			}
		}
	}
	return out
}
