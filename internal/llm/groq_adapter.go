package llm

import (
	"context"
	"fmt"
	"os"

	"jiva/internal/chat"
	"jiva/internal/middleware"

	"github.com/tmc/langchaingo/llms/openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqAdapter serves as the fallback when Gemini is rate limited. Groq
// exposes an OpenAI-compatible API, so this rides the openai client with
// a different base URL. Text-only: attachments are dropped.
type GroqAdapter struct {
	client *openai.LLM
	model  string
}

func NewGroqAdapter(model string) (chat.Adapter, error) {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithBaseURL(groqBaseURL),
	}
	if token := os.Getenv("GROQ_API_KEY"); token != "" {
		opts = append(opts, openai.WithToken(token))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &GroqAdapter{client: client, model: model}, nil
}

func (a *GroqAdapter) ReplyStream(ctx context.Context, history []chat.Message, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	messages := convertHistory(history, false)
	opts := callOptions(a.model, params, streamFn)

	resp, err := a.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from Groq model")
	}
	return resp.Choices[0].Content, nil
}
