package llm

import (
	"context"
	"errors"
	"testing"

	"jiva/internal/chat"
	"jiva/internal/middleware"
)

type stubAdapter struct {
	reply string
	err   error
	calls int
}

func (s *stubAdapter) ReplyStream(_ context.Context, _ []chat.Message, _ *middleware.LLMParams, _ func(string)) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestFallbackFirstSuccessWins(t *testing.T) {
	primary := &stubAdapter{reply: "from gemini"}
	secondary := &stubAdapter{reply: "from groq"}
	f, err := NewFallback(Entry{"gemini", primary}, Entry{"groq", secondary})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.ReplyStream(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from gemini" {
		t.Fatalf("expected primary reply, got %q", got)
	}
	if secondary.calls != 0 {
		t.Fatal("secondary must not be called when primary succeeds")
	}
}

func TestFallbackAdvancesOnRateLimit(t *testing.T) {
	primary := &stubAdapter{err: errors.New("googleapi: Error 429: quota exceeded")}
	secondary := &stubAdapter{reply: "from groq"}
	f, _ := NewFallback(Entry{"gemini", primary}, Entry{"groq", secondary})

	got, err := f.ReplyStream(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from groq" {
		t.Fatalf("expected fallback reply, got %q", got)
	}
}

func TestFallbackAllFail(t *testing.T) {
	a := &stubAdapter{err: errors.New("429 resource exhausted")}
	b := &stubAdapter{err: errors.New("503 service unavailable")}
	f, _ := NewFallback(Entry{"gemini", a}, Entry{"groq", b})

	_, err := f.ReplyStream(context.Background(), nil, nil, nil)
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestFallbackStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &stubAdapter{err: errors.New("429")}
	secondary := &stubAdapter{reply: "late"}
	f, _ := NewFallback(Entry{"gemini", primary}, Entry{"groq", secondary})

	cancel()
	if _, err := f.ReplyStream(ctx, nil, nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if secondary.calls != 0 {
		t.Fatal("must not advance after cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  string
		want bool
	}{
		{"googleapi: Error 429: RESOURCE_EXHAUSTED", true},
		{"rate limit reached for llama-3.3-70b-versatile", true},
		{"API returned unexpected status code: 503", true},
		{"invalid api key", false},
		{"content blocked by safety filter", false},
	}
	for _, c := range cases {
		if got := isRetryable(errors.New(c.err)); got != c.want {
			t.Fatalf("isRetryable(%q) = %v, want %v", c.err, got, c.want)
		}
	}
}
