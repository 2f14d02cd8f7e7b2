package model

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no provider is
// configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	first := prompt
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return fmt.Sprintf("mock counselor reply (%d chars of prompt, starting %q)", len(prompt), strings.TrimSpace(first)), nil
}
