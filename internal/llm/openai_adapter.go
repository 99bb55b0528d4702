package llm

import (
	"context"
	"fmt"
	"os"

	"jiva/internal/chat"
	"jiva/internal/middleware"

	"github.com/tmc/langchaingo/llms/openai"
)

type OpenAIAdapter struct {
	client *openai.LLM
	model  string
}

func NewOpenAIAdapter(model, baseURL string) (chat.Adapter, error) {
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []openai.Option{
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if token := os.Getenv("OPENAI_API_KEY"); token != "" {
		opts = append(opts, openai.WithToken(token))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &OpenAIAdapter{client: client, model: model}, nil
}

func (a *OpenAIAdapter) ReplyStream(ctx context.Context, history []chat.Message, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	messages := convertHistory(history, false)
	opts := callOptions(a.model, params, streamFn)

	resp, err := a.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI model")
	}
	return resp.Choices[0].Content, nil
}
