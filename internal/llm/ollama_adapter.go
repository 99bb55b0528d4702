package llm

import (
	"context"
	"fmt"

	"jiva/internal/chat"
	"jiva/internal/middleware"

	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaAdapter is for local development without any cloud key.
type OllamaAdapter struct {
	client *ollama.LLM
	model  string
}

func NewOllamaAdapter(model, baseURL string) (chat.Adapter, error) {
	if model == "" {
		model = "llama3.2"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return &OllamaAdapter{client: client, model: model}, nil
}

func (a *OllamaAdapter) ReplyStream(ctx context.Context, history []chat.Message, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	messages := convertHistory(history, false)
	opts := callOptions(a.model, params, streamFn)

	resp, err := a.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from Ollama model")
	}
	return resp.Choices[0].Content, nil
}
