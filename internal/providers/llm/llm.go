package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request is one generation call. System is sent as a system instruction
// where the backend supports it and prepended to the prompt otherwise.
type Request struct {
	System      string
	Prompt      string
	JSON        bool
	Temperature float32
}

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental). errs
	// receives at most one error and is closed after chunks.
	StreamAnswer(ctx context.Context, req Request) (chunks <-chan string, errs <-chan error)
	Name() string
	Close() error
}

// Collect drains a stream into a single string.
func Collect(ctx context.Context, p Provider, req Request) (string, error) {
	chunks, errs := p.StreamAnswer(ctx, req)

	var b strings.Builder
	for c := range chunks {
		b.WriteString(c)
	}
	if err := <-errs; err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

const (
	ErrCodeAuth        = "invalid_credentials"
	ErrCodeServiceDown = "service_unavailable"
	ErrCodeEmpty       = "empty_response"
)

type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Config carries what any registered backend may need.
type Config struct {
	ProjectID string
	Location  string
	Model     string
	APIKey    string
}

type Factory func(ctx context.Context, cfg Config) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New builds the provider registered under name.
func New(ctx context.Context, name string, cfg Config) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider: %s", name)
	}
	return f(ctx, cfg)
}

func fullPrompt(req Request) string {
	if req.System == "" {
		return req.Prompt
	}
	return req.System + "\n\n" + req.Prompt
}
