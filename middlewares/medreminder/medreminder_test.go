package medreminder

import (
	"context"
	"strings"
	"testing"

	mw "jiva/internal/middleware"
	"jiva/internal/nlu"
)

func newTestMiddleware() MedReminder {
	eng := nlu.NewEngine()
	eng.RegisterIntent("medreminder.schedule",
		"remind me to take {med} at {time}",
		"set a reminder for {med} at {time}",
	)
	return MedReminder{engine: eng}
}

func TestReminderRequestCancelsWithTag(t *testing.T) {
	m := newTestMiddleware()
	e := &mw.Event{Name: mw.EventBeforeLLMRequest, UserText: "Remind me to take Metformin at 9am"}

	d, err := m.OnEvent(context.Background(), e)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Cancel || d.ReplaceText == nil {
		t.Fatalf("decision = %+v, want cancel with reply", d)
	}
	reply := *d.ReplaceText
	if !strings.Contains(reply, "[[SCHEDULE_REMINDERS:") {
		t.Errorf("reply missing schedule tag: %q", reply)
	}
	if !strings.Contains(reply, `"Take Metformin"`) || !strings.Contains(reply, `"9am"`) {
		t.Errorf("reply = %q", reply)
	}
}

func TestUnrelatedTextPassesThrough(t *testing.T) {
	m := newTestMiddleware()
	for _, text := range []string{
		"what is Metformin used for?",
		"I forgot to take my medicine today",
	} {
		e := &mw.Event{Name: mw.EventBeforeLLMRequest, UserText: text}
		d, _ := m.OnEvent(context.Background(), e)
		if d.Cancel {
			t.Errorf("%q was treated as a reminder request", text)
		}
	}
}
