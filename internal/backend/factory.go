package backend

import (
	"fmt"

	"grounds/internal/config"
)

// NewAdapter constructs the adapter for a backend id from its config.
func NewAdapter(id string, cfg config.BackendConfig) (Adapter, error) {
	switch id {
	case "gemini":
		return NewGeminiAdapter(cfg), nil
	case "glm":
		return NewGLMAdapter(cfg), nil
	case "anthropic":
		return NewAnthropicAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", id)
	}
}

// NewCallerFor builds a fully wired Caller (adapter plus default model
// table) for a backend id.
func NewCallerFor(id string, cfg config.BackendConfig) (*Caller, error) {
	adapter, err := NewAdapter(id, cfg)
	if err != nil {
		return nil, err
	}
	return NewCaller(id, adapter, ModelsFor(id)), nil
}
