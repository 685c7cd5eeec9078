package provider

import (
	"sync"

	"github.com/felixgeelhaar/stride/internal/errors"
)

// Factory constructs a provider client from its configuration.
type Factory func(cfg *Config) (Client, error)

// Registry manages available provider factories and constructed clients.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	clients   map[string]Client
}

// NewRegistry creates a registry with the built-in providers registered.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		clients:   make(map[string]Client),
	}
	r.RegisterFactory("openai", func(cfg *Config) (Client, error) { return NewOpenAIClient(cfg) })
	r.RegisterFactory("gemini", func(cfg *Config) (Client, error) { return NewGeminiClient(cfg) })
	return r
}

// RegisterFactory adds a named provider constructor.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Register adds an already-constructed client under a name.
func (r *Registry) Register(name string, client Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; exists {
		return errors.New(errors.ErrCodeProviderConfig, "provider "+name+" already registered")
	}
	r.clients[name] = client
	return nil
}

// Get returns the client registered under name, constructing it from its
// factory and config on first use.
func (r *Registry) Get(name string, cfg *Config) (Client, error) {
	r.mu.RLock()
	if client, ok := r.clients[name]; ok {
		r.mu.RUnlock()
		return client, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[name]; ok {
		return client, nil
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeProviderNotFound, "unknown provider "+name).
			WithSuggestion("supported providers: openai, gemini")
	}

	client, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderConfig, "construct provider "+name, err)
	}

	r.clients[name] = client
	return client, nil
}

// List returns all registered factory names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// CloseAll closes every constructed client.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, client := range r.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(errors.ErrCodeProviderConfig, "close provider "+name, err)
		}
		delete(r.clients, name)
	}
	return firstErr
}
