// Package provider abstracts text-generation vendors behind a single Client
// interface. The decomposition and coaching pipelines depend only on this
// package; no vendor request/response shape leaks past it.
package provider

import "context"

// Client is the interface every text-generation provider implements.
type Client interface {
	// Generate sends a prompt and returns a complete response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Health performs a health check on the provider.
	// Returns nil if healthy, error describing the problem otherwise.
	Health(ctx context.Context) error

	// Close cleans up any resources used by the provider.
	Close() error
}

// Info contains metadata about a provider
type Info struct {
	// Name is the provider identifier (e.g., "openai", "gemini")
	Name string

	// Model is the default model the provider generates with
	Model string
}
