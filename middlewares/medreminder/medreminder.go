package medreminder

import (
	"context"
	"fmt"
	"strings"

	mw "jiva/internal/middleware"
	"jiva/internal/nlu"
)

func init() {
	eng := nlu.GetEngine()
	eng.RegisterIntent("medreminder.schedule",
		"remind me to take {med} at {time}",
		"remind me to take {med} {time}",
		"set a reminder for {med} at {time}",
		"set reminder to take {med} at {time}",
		"reminder for my {med} at {time}",
	)
	mw.Register(MedReminder{engine: eng})
}

// MedReminder recognizes direct medication reminder requests and
// schedules them without a model round trip. The confirmation carries a
// [[SCHEDULE_REMINDERS]] tag the pipeline persists.
type MedReminder struct {
	engine *nlu.Engine
}

func (MedReminder) ID() string    { return "medreminder" }
func (MedReminder) Priority() int { return 150 } // after emergency, before greeting

func (m MedReminder) OnEvent(_ context.Context, e *mw.Event) (mw.Decision, error) {
	if e == nil || e.Name != mw.EventBeforeLLMRequest {
		return mw.Decision{}, nil
	}

	res := m.engine.Parse(e.UserText)
	if res.Intent != "medreminder.schedule" {
		return mw.Decision{}, nil
	}
	med := strings.TrimSpace(res.Slots["med"])
	when := strings.TrimSpace(res.Slots["time"])
	if med == "" || when == "" {
		return mw.Decision{}, nil
	}

	reply := fmt.Sprintf(
		`Done! I will remind you to take %s at %s. [[SCHEDULE_REMINDERS: [{"message": "Take %s", "time": "%s"}]]]`,
		med, when, med, when)
	return mw.Decision{
		Cancel:      true,
		ReplaceText: &reply,
		Reason:      "deterministic reminder request",
	}, nil
}
