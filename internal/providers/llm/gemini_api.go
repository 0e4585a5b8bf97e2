package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

func init() {
	Register("gemini", func(ctx context.Context, cfg Config) (Provider, error) {
		return NewGeminiAPI(ctx, cfg.APIKey, cfg.Model)
	})
}

// GeminiAPI talks to the Gemini developer API with an API key. It returns
// the whole answer as a single chunk.
type GeminiAPI struct {
	client *genai.Client
	model  string
}

func NewGeminiAPI(ctx context.Context, apiKey, model string) (*GeminiAPI, error) {
	if apiKey == "" {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeAuth, Message: "api key is required"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeAuth, Message: "failed to create client", Err: err}
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiAPI{client: client, model: model}, nil
}

func (g *GeminiAPI) Name() string { return "gemini" }

func (g *GeminiAPI) Close() error { return nil }

func (g *GeminiAPI) StreamAnswer(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		prompt := fullPrompt(req)
		if req.JSON {
			prompt += "\n\nRespond with a single JSON object and nothing else."
		}

		result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			errs <- &ProviderError{Provider: "gemini", Code: ErrCodeServiceDown, Message: "generate failed", Err: err}
			return
		}
		if result == nil {
			errs <- &ProviderError{Provider: "gemini", Code: ErrCodeEmpty, Message: "no response generated"}
			return
		}
		text, err := result.Text()
		if err != nil {
			errs <- &ProviderError{Provider: "gemini", Code: ErrCodeEmpty, Message: "failed to extract response text", Err: err}
			return
		}
		if text == "" {
			errs <- &ProviderError{Provider: "gemini", Code: ErrCodeEmpty, Message: "empty response", Err: errors.New("empty text")}
			return
		}
		out <- text
	}()

	return out, errs
}
