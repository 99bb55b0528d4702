package middleware

import "context"

type EventName string

const (
	EventBeforeLLMRequest EventName = "before_llm_request"
	EventAfterLLMResponse EventName = "after_llm_response"
)

// LLMParams lets middlewares steer the next model call without knowing
// which provider serves it.
type LLMParams struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Stop        []string
}

type Decision struct {
	Cancel      bool   // stop the pipeline for this event
	Reason      string // for logs
	ReplaceText *string

	// Optional: change request parameters + continue.
	OverrideParams *LLMParams
}

type Event struct {
	Name     EventName
	UserText string         // for before_llm_request
	LLMText  string         // for after_llm_response
	Params   *LLMParams     // mutable
	Context  map[string]any // sender phone, profile, local time, etc.
}

type Middleware interface {
	ID() string
	Priority() int
	OnEvent(ctx context.Context, e *Event) (Decision, error)
}

// ConditionalMiddleware is an optional extension that allows a middleware
// to be enabled/disabled per event.
//
// If a middleware implements this interface and returns false, it will be
// skipped during dispatch (but still recorded in results with a "skipped"
// reason).
type ConditionalMiddleware interface {
	ShouldLoad(ctx context.Context, e *Event) bool
}
