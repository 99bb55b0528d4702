package chat

import (
	"context"

	"jiva/internal/middleware"
)

// Adapter abstracts chat completion providers.
type Adapter interface {
	// ReplyStream should stream assistant text chunks to streamFn (if
	// non-nil) and return the full assistant text.
	ReplyStream(ctx context.Context, history []Message, params *middleware.LLMParams, streamFn func(string)) (string, error)
}
