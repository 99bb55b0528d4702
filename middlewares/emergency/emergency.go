package emergency

import (
	"context"
	"strings"

	mw "jiva/internal/middleware"
)

func init() {
	mw.Register(Emergency{})
}

// Emergency short-circuits the model for messages describing a medical
// crisis. The canned reply carries the [[SOS]] tag so the pipeline
// alerts the saved emergency contact.
type Emergency struct{}

func (Emergency) ID() string    { return "emergency" }
func (Emergency) Priority() int { return 200 } // must outrank everything

func (Emergency) OnEvent(_ context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest {
		return mw.Decision{}, nil
	}
	if !isCrisis(e.UserText) {
		return mw.Decision{}, nil
	}

	reply := "CRITICAL MEDICAL ALERT. Do not wait for me: call 102 or 108 for an ambulance RIGHT NOW. " +
		"Stay on the line with them, unlock your door, and do not take any medicine unless they tell you to. [[SOS]]"
	return mw.Decision{
		Cancel:      true,
		ReplaceText: &reply,
		Reason:      "medical emergency detected",
	}, nil
}

// Phrases that indicate a life-threatening situation. Matching is
// substring based so "severe chest pain since morning" still trips it.
var crisisPhrases = []string{
	"chest pain",
	"can't breathe",
	"cannot breathe",
	"not breathing",
	"heart attack",
	"stroke",
	"unconscious",
	"fainted",
	"seizure",
	"severe bleeding",
	"bleeding heavily",
	"overdose",
	"poisoned",
	"suicide",
	"kill myself",
	"end my life",
}

func isCrisis(s string) bool {
	s = strings.ToLower(s)
	for _, p := range crisisPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
