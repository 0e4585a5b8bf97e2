package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	chunks []string
	err    error
}

func (s scriptedProvider) StreamAnswer(context.Context, Request) (<-chan string, <-chan error) {
	out := make(chan string, len(s.chunks))
	errs := make(chan error, 1)
	for _, c := range s.chunks {
		out <- c
	}
	close(out)
	if s.err != nil {
		errs <- s.err
	}
	close(errs)
	return out, errs
}
func (scriptedProvider) Name() string { return "scripted" }
func (scriptedProvider) Close() error { return nil }

func TestCollect(t *testing.T) {
	got, err := Collect(context.Background(), scriptedProvider{chunks: []string{`{"a":`, `1}`}}, Request{})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)

	boom := errors.New("quota")
	_, err = Collect(context.Background(), scriptedProvider{chunks: []string{"x"}, err: boom}, Request{})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry(t *testing.T) {
	Register("scripted", func(context.Context, Config) (Provider, error) { return scriptedProvider{}, nil })
	defer func() {
		registryMu.Lock()
		delete(registry, "scripted")
		registryMu.Unlock()
	}()

	p, err := New(context.Background(), "scripted", Config{})
	require.NoError(t, err)
	assert.Equal(t, "scripted", p.Name())

	_, err = New(context.Background(), "missing", Config{})
	assert.Error(t, err)
}

func TestBuiltinProvidersRegistered(t *testing.T) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	assert.Contains(t, registry, "vertex")
	assert.Contains(t, registry, "gemini")
}

func TestProviderError(t *testing.T) {
	cause := errors.New("detail")
	err := &ProviderError{Provider: "gemini", Message: "failed", Err: cause}
	assert.Equal(t, "gemini error: failed (detail)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "vertex error: down", (&ProviderError{Provider: "vertex", Message: "down"}).Error())
}

func TestFullPrompt(t *testing.T) {
	assert.Equal(t, "p", fullPrompt(Request{Prompt: "p"}))
	assert.Equal(t, "s\n\np", fullPrompt(Request{System: "s", Prompt: "p"}))
}
