package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client is the single call the counseling pipeline makes against a language
// model: one prompt in, one completed text out.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode        string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
}

// NewClient builds the model client for the configured mode.
//
// "auto" picks openai when credentials are present and falls back to the mock,
// "openai" requires credentials and fails fast without them.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" && strings.TrimSpace(cfg.Model) != "" {
			return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature), nil
		}
		return NewMockClient(), nil
	case "openai":
		if strings.TrimSpace(cfg.Model) == "" || strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("model and API key must be provided")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported model provider mode %q", cfg.Mode)
	}
}
