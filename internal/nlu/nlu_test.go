package nlu

import "testing"

func TestParseSingleSlot(t *testing.T) {
	e := NewEngine()
	e.RegisterIntent("set_reminder", "remind me to {action}")

	r := e.Parse("Remind me to drink water")
	if r.Intent != "set_reminder" {
		t.Fatalf("expected set_reminder, got %q", r.Intent)
	}
	if r.Slots["action"] != "drink water" {
		t.Fatalf("unexpected slot: %v", r.Slots)
	}
}

func TestParseMultipleSlots(t *testing.T) {
	e := NewEngine()
	e.RegisterIntent("med_reminder", "remind me to take {med} at {time}")

	r := e.Parse("remind me to take Metformin at 9am")
	if r.Intent != "med_reminder" {
		t.Fatalf("expected med_reminder, got %q", r.Intent)
	}
	if r.Slots["med"] != "Metformin" || r.Slots["time"] != "9am" {
		t.Fatalf("unexpected slots: %v", r.Slots)
	}
}

func TestParseCaseAndWhitespaceInsensitive(t *testing.T) {
	e := NewEngine()
	e.RegisterIntent("med_reminder", "remind me to take {med} at {time}")

	r := e.Parse("  REMIND ME   to take  Dolo 650 at 10:30 pm ")
	if r.Intent != "med_reminder" {
		t.Fatalf("expected match, got %+v", r)
	}
	if r.Slots["med"] != "Dolo 650" {
		t.Fatalf("unexpected med slot: %v", r.Slots)
	}
}

func TestParseNoMatch(t *testing.T) {
	e := NewEngine()
	e.RegisterIntent("med_reminder", "remind me to take {med} at {time}")

	if r := e.Parse("I have a headache"); r.Intent != "" || r.Confidence != 0 {
		t.Fatalf("expected zero result, got %+v", r)
	}
}

func TestUnclosedBraceTemplateDropped(t *testing.T) {
	e := NewEngine()
	e.RegisterIntent("broken", "remind me to take {med")

	if r := e.Parse("remind me to take pills"); r.Intent != "" {
		t.Fatalf("broken template must not match, got %+v", r)
	}
}
