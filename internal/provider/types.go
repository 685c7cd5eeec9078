package provider

import "time"

// GenerateRequest contains all parameters for generating a response
type GenerateRequest struct {
	// Prompt is the main input text for the model
	Prompt string `json:"prompt"`

	// SystemPrompt sets the system-level instructions
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens limits the maximum response length
	// Set to 0 to use provider default
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 = deterministic, 1.0+ = creative)
	Temperature float64 `json:"temperature,omitempty"`

	// TopP controls nucleus sampling (alternative to temperature)
	TopP float64 `json:"top_p,omitempty"`
}

// GenerateResponse contains the model's response
type GenerateResponse struct {
	// Content is the generated text
	Content string `json:"content"`

	// TokensUsed is the total tokens consumed (input + output)
	TokensUsed int `json:"tokens_used"`

	// Model is the actual model that generated the response
	Model string `json:"model"`

	// Latency is how long the generation took
	Latency time.Duration `json:"latency"`

	// FinishReason explains why generation stopped
	FinishReason string `json:"finish_reason,omitempty"`

	// Provider is the name of the provider that handled this request
	Provider string `json:"provider"`
}

// Config describes how to construct a provider.
type Config struct {
	// Name is the provider identifier ("openai", "gemini")
	Name string `yaml:"name" json:"name"`

	// APIKey authenticates against the vendor API
	APIKey string `yaml:"apiKey" json:"api_key"`

	// BaseURL overrides the vendor endpoint (used by tests)
	BaseURL string `yaml:"baseUrl,omitempty" json:"base_url,omitempty"`

	// Model overrides the default model
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// MaxTokens caps response length when the request does not set one
	MaxTokens int `yaml:"maxTokens,omitempty" json:"max_tokens,omitempty"`

	// Timeout bounds each HTTP round trip (default 60s)
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}
