package bot

import (
	"encoding/json"
	"strings"
	"time"
)

// The model signals side effects with inline tags instead of function
// calling:
//
//	[[UPDATE_PROFILE: {"age": 34, "allergies": "penicillin"}]]
//	[[SCHEDULE_REMINDERS: [{"message": "Take Metformin", "time": "2026-01-05T09:00:00"}]]]
//	[[SOS]]
//
// Tags are stripped from the text before it reaches the user.

const (
	tagProfile   = "[[UPDATE_PROFILE:"
	tagReminders = "[[SCHEDULE_REMINDERS:"
	tagSOS       = "[[SOS]]"
)

type reminderTag struct {
	Message string `json:"message"`
	Time    string `json:"time"`
}

// extractTag cuts the first occurrence of `[[<prefix> <payload>]]` out
// of text, returning the raw payload and the cleaned text.
func extractTag(text, prefix string) (payload string, cleaned string, found bool) {
	start := strings.Index(text, prefix)
	if start < 0 {
		return "", text, false
	}
	end := strings.Index(text[start:], "]]")
	if end < 0 {
		// Malformed tag: drop everything from the opener to be safe.
		return "", strings.TrimSpace(text[:start]), false
	}
	end += start
	// A JSON array payload ends in ']', so the real closer is the
	// rightmost "]]" in the bracket run.
	for end+2 < len(text) && text[end+2] == ']' {
		end++
	}
	payload = strings.TrimSpace(text[start+len(prefix) : end])
	cleaned = strings.TrimSpace(text[:start] + text[end+2:])
	return payload, cleaned, true
}

func extractProfileTag(text string) (map[string]any, string) {
	payload, cleaned, found := extractTag(text, tagProfile)
	if !found {
		return nil, cleaned
	}
	var updates map[string]any
	if err := json.Unmarshal([]byte(payload), &updates); err != nil {
		return nil, cleaned
	}
	return updates, cleaned
}

func extractReminderTags(text string) ([]reminderTag, string) {
	payload, cleaned, found := extractTag(text, tagReminders)
	if !found {
		return nil, cleaned
	}
	var tags []reminderTag
	if err := json.Unmarshal([]byte(payload), &tags); err != nil {
		return nil, cleaned
	}
	return tags, cleaned
}

func extractSOS(text string) (bool, string) {
	if !strings.Contains(text, tagSOS) {
		return false, text
	}
	return true, strings.TrimSpace(strings.ReplaceAll(text, tagSOS, ""))
}

// parseReminderTime accepts the formats models actually produce: RFC3339,
// the same without zone, and a bare clock time meaning "today, or
// tomorrow if already past".
func parseReminderTime(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}
	for _, layout := range []string{"15:04", "3:04pm", "3pm"} {
		if t, err := time.ParseInLocation(layout, strings.ToLower(s), now.Location()); err == nil {
			at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
			if !at.After(now) {
				at = at.Add(24 * time.Hour)
			}
			return at, true
		}
	}
	return time.Time{}, false
}
