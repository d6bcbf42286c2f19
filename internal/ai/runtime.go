package ai

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Runtime is implemented by LLM backends such as OpenRouter and Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamRuntime is an optional extension that supports streaming output.
// Implementors call onDelta with each partial content chunk.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// Provider identifiers accepted by --provider and the config file.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OpenRouter
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// NewRuntime creates the Runtime registered for provider.
func NewRuntime(provider string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", provider, Providers())
	}
	return f(cfg), nil
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Complete runs req and returns the first choice's text, failing on an
// empty answer.
func Complete(ctx context.Context, rt Runtime, req GenerateRequest) (string, error) {
	resp, err := rt.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Stream uses the runtime's streaming support when present and otherwise
// delivers the whole completion as a single chunk.
func Stream(ctx context.Context, rt Runtime, req GenerateRequest, onDelta func(string)) error {
	if s, ok := rt.(StreamRuntime); ok {
		return s.GenerateStream(ctx, req, onDelta)
	}
	resp, err := rt.Generate(ctx, req)
	if err != nil {
		return err
	}
	if text := resp.Text(); text != "" {
		onDelta(text)
	}
	return nil
}

func init() {
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) Runtime {
		return NewOpenRouter(c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay).WithBaseURL(c.BaseURL)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) Runtime {
		return NewOllama(c.Host, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
}
