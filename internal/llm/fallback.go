package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jiva/internal/chat"
	"jiva/internal/middleware"

	"go.uber.org/zap"

	"jiva/internal/logging"
)

// ErrAllProvidersFailed reports that every adapter in the fallback chain
// errored out. Callers send a static overload reply instead of silence.
var ErrAllProvidersFailed = errors.New("all providers failed")

// Entry pairs an adapter with a name for logs.
type Entry struct {
	Name    string
	Adapter chat.Adapter
}

// Fallback tries adapters in order until one answers. Rate limits and
// server-side errors advance the chain; so does anything else, since a
// reply from a secondary provider beats no reply at all.
type Fallback struct {
	entries []Entry
	log     *zap.Logger
}

func NewFallback(entries ...Entry) (*Fallback, error) {
	if len(entries) == 0 {
		return nil, errors.New("fallback needs at least one adapter")
	}
	return &Fallback{entries: entries, log: logging.Named("llm")}, nil
}

func (f *Fallback) ReplyStream(ctx context.Context, history []chat.Message, params *middleware.LLMParams, streamFn func(string)) (string, error) {
	var lastErr error
	for _, e := range f.entries {
		text, err := e.Adapter.ReplyStream(ctx, history, params, streamFn)
		if err == nil {
			f.log.Debug("provider answered", zap.String("provider", e.Name))
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if isRetryable(err) {
			f.log.Warn("provider unavailable, trying next",
				zap.String("provider", e.Name), zap.Error(err))
		} else {
			f.log.Error("provider error, trying next",
				zap.String("provider", e.Name), zap.Error(err))
		}
	}
	return "", fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
}

// isRetryable classifies quota and server-side failures. Provider SDKs
// surface these as opaque strings, so matching on the status markers is
// the only portable check.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "exhausted", "rate limit", "500", "503", "overloaded", "unavailable"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
