// Package llm dispatches prompts to named language-model backends over
// any OpenAI-compatible chat completion API. The default configuration
// points every backend at a local Ollama instance.
package llm

import (
	"context"
	"net/http"
	"os"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"edurag/internal/domain"
)

// BackendConfig describes one chat completion backend.
type BackendConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

type backend struct {
	client *openai.Client
	model  string
}

// Registry implements the ModelGateway port over a fixed set of
// configured backends.
type Registry struct {
	backends map[string]backend
}

// NewRegistry builds a gateway from named backend configurations.
func NewRegistry(configs map[string]BackendConfig) *Registry {
	backends := make(map[string]backend, len(configs))
	for name, cfg := range configs {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			// Ollama ignores authorization but go-openai requires a token.
			key = "unused"
		}
		clientCfg := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		clientCfg.HTTPClient = &http.Client{Timeout: timeout}
		backends[name] = backend{
			client: openai.NewClientWithConfig(clientCfg),
			model:  cfg.Model,
		}
	}
	return &Registry{backends: backends}
}

// Generate sends the prompt to the named backend and returns the
// completion text. Failures, including an unknown backend id, come back
// as a GenerationError so fan-out callers can record them per backend.
func (r *Registry) Generate(ctx context.Context, backendID, prompt string, opts domain.GenerateOptions) (string, error) {
	b, ok := r.backends[backendID]
	if !ok {
		return "", &domain.GenerationError{Backend: backendID, Reason: "unknown backend"}
	}
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &domain.GenerationError{Backend: backendID, Reason: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Backend: backendID, Reason: "no completion returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Backends returns the configured backend ids, sorted.
func (r *Registry) Backends() []string {
	ids := make([]string, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Probe reports whether the backend answers a minimal one-token
// generation. Used by status surfaces, not by the answering path.
func (r *Registry) Probe(ctx context.Context, backendID string) bool {
	_, err := r.Generate(ctx, backendID, "ping", domain.GenerateOptions{MaxTokens: 1})
	return err == nil
}
