// Package cache provides the response cache for the chat pipeline.
//
// The contract is deliberately narrow: entries are keyed by
// "rec:<user_id>:<digest>" where the digest covers the student message and a
// canonical JSON encoding of the student details, entries expire after a
// configured TTL, and resetting a conversation drops every entry under the
// user's prefix.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Cache stores rendered chat results keyed by request identity.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key builds the cache key for one chat request.
func Key(userID, message string, details map[string]any) string {
	// json.Marshal sorts map keys, so equal detail maps hash equally.
	canonical, err := json.Marshal(details)
	if err != nil {
		canonical = []byte(message)
	}

	h := sha256.New()
	h.Write([]byte(message))
	h.Write([]byte{'\n'})
	h.Write(canonical)
	digest := hex.EncodeToString(h.Sum(nil))[:16]

	return UserPrefix(userID) + digest
}

// UserPrefix is the key prefix shared by all of one user's cached responses.
func UserPrefix(userID string) string {
	return "rec:" + userID + ":"
}
