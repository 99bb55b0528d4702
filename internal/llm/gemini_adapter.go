package llm

import (
	"context"
	"fmt"
	"os"

	"jiva/internal/chat"
	"jiva/internal/middleware"

	"github.com/tmc/langchaingo/llms/googleai"
)

// GeminiAdapter is the primary provider. It is the only adapter that
// receives media attachments (prescription photos, voice notes).
type GeminiAdapter struct {
	client *googleai.GoogleAI
	model  string
}

func NewGeminiAdapter(model string) (chat.Adapter, error) {
	effectiveModel := model
	if effectiveModel == "" {
		effectiveModel = "gemini-2.0-flash"
	}

	opts := []googleai.Option{
		googleai.WithDefaultModel(effectiveModel),
	}
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key != "" {
		opts = append(opts, googleai.WithAPIKey(key))
	}

	client, err := googleai.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	return &GeminiAdapter{
		client: client,
		model:  effectiveModel,
	}, nil
}

func (a *GeminiAdapter) ReplyStream(ctx context.Context, history []chat.Message, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	messages := convertHistory(history, true)
	opts := callOptions(a.model, params, streamFn)

	resp, err := a.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from Gemini model")
	}
	return resp.Choices[0].Content, nil
}
