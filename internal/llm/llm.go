package llm

import (
	"context"
	"fmt"

	"jiva/internal/chat"
	"jiva/internal/middleware"

	"github.com/tmc/langchaingo/llms"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

func NewAdapter(provider Provider, model, baseURL string) (chat.Adapter, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiAdapter(model)
	case ProviderGroq:
		return NewGroqAdapter(model)
	case ProviderOpenAI:
		return NewOpenAIAdapter(model, baseURL)
	case ProviderOllama:
		return NewOllamaAdapter(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// convertHistory maps the chat history onto langchaingo message contents.
// Binary attachments are forwarded only when withMedia is set; text-only
// backends (Groq, Ollama) see just the text.
func convertHistory(history []chat.Message, withMedia bool) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case chat.RoleSystem:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case chat.RoleUser:
			if withMedia && m.Media != nil {
				parts := []llms.ContentPart{
					llms.BinaryPart(m.Media.MIME, m.Media.Data),
				}
				if m.Content != "" {
					parts = append(parts, llms.TextPart(m.Content))
				}
				messages = append(messages, llms.MessageContent{
					Role:  llms.ChatMessageTypeHuman,
					Parts: parts,
				})
				continue
			}
			content := m.Content
			if content == "" {
				content = " "
			}
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, content))
		case chat.RoleAssistant:
			content := m.Content
			if content == "" {
				content = " "
			}
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, content))
		}
	}
	return messages
}

func callOptions(model string, params *middleware.LLMParams, streamFn func(string)) []llms.CallOption {
	opts := make([]llms.CallOption, 0, 8)
	opts = append(opts, llms.WithModel(model))
	if params != nil {
		if params.Model != "" {
			opts = append(opts, llms.WithModel(params.Model))
		}
		if params.Temperature != 0 {
			opts = append(opts, llms.WithTemperature(params.Temperature))
		}
		if params.TopP != 0 {
			opts = append(opts, llms.WithTopP(params.TopP))
		}
		if params.MaxTokens != 0 {
			opts = append(opts, llms.WithMaxTokens(params.MaxTokens))
		}
		if len(params.Stop) > 0 {
			opts = append(opts, llms.WithStopWords(params.Stop))
		}
	}
	if streamFn != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			streamFn(string(chunk))
			return nil
		}))
	}
	return opts
}
