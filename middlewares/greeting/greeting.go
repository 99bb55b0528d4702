package greeting

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	mw "jiva/internal/middleware"
)

func init() {
	mw.Register(Greeting{})
}

// Greeting answers bare salutations immediately with a time-of-day
// appropriate Namaste, skipping the model.
type Greeting struct{}

func (Greeting) ID() string    { return "greeting" }
func (Greeting) Priority() int { return 110 } // run early

func (Greeting) ShouldLoad(_ context.Context, e *mw.Event) bool {
	if e == nil || e.Context == nil {
		return true
	}
	if v, ok := e.Context["greeting"].(bool); ok {
		return v
	}
	return true
}

func (Greeting) OnEvent(_ context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest {
		return mw.Decision{}, nil
	}
	user := strings.TrimSpace(e.UserText)
	if user == "" || !isGreetingOnly(user) {
		return mw.Decision{}, nil
	}

	reply := canned(e.Context)
	return mw.Decision{
		Cancel:      true,
		ReplaceText: &reply,
		Reason:      "greeting",
	}, nil
}

func canned(ctx map[string]any) string {
	hour := -1
	name := ""
	if ctx != nil {
		if h, ok := ctx["hour"].(int); ok {
			hour = h
		}
		if n, ok := ctx["name"].(string); ok {
			name = n
		}
	}

	salutation := "Namaste"
	switch {
	case hour >= 6 && hour < 12:
		salutation = "Good morning"
	case hour >= 12 && hour < 17:
		salutation = "Good afternoon"
	case hour >= 17 && hour < 21:
		salutation = "Good evening"
	}

	if name != "" {
		return fmt.Sprintf("%s, %s! This is Jiva. How is your health today?", salutation, name)
	}
	return fmt.Sprintf("%s! This is Jiva. How is your health today?", salutation)
}

var greetWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "namaste": {}, "namaskar": {},
	"good": {}, "morning": {}, "afternoon": {}, "evening": {}, "night": {},
	"greetings": {}, "jiva": {},
}

// isGreetingOnly reports whether the message is nothing but salutation
// words. Anything with real content goes to the model.
func isGreetingOnly(s string) bool {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 || len(fields) > 4 {
		return false
	}
	for _, f := range fields {
		f = strings.TrimFunc(f, unicode.IsPunct)
		if _, ok := greetWords[f]; !ok {
			return false
		}
	}
	return true
}
