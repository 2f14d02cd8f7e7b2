package recstore

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Record is one stored loan recommendation with the student snapshot it was
// generated from. Records are append-only and read back through FindSimilar,
// never by key.
type Record struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	StudentDetails map[string]any    `json:"student_details"`
	Recommendation string            `json:"recommendation"`
	Metadata       map[string]string `json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Store persists and retrieves past loan recommendations.
type Store interface {
	FindSimilar(ctx context.Context, details map[string]any) ([]Record, error)
	Store(ctx context.Context, details map[string]any, recommendation string, metadata map[string]string) error
	Close() error
}

// findSimilarLimit bounds how many past cases feed one prompt.
const findSimilarLimit = 5

// destinationOf extracts the similarity key from a student snapshot.
func destinationOf(details map[string]any) string {
	v, ok := details["destination_country"]
	if !ok {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Digest renders similar records as the short text block fed to the prompt.
func Digest(records []Record) string {
	if len(records) == 0 {
		return "No similar past recommendations."
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("- destination %s: %s", destinationOf(r.StudentDetails), truncate(r.Recommendation, 280)))
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
