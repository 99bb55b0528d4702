package middleware

import (
	"encoding/json"
	"io"
	"time"
	"unicode/utf8"
)

type debugEntry struct {
	Timestamp    string `json:"ts"`
	Event        string `json:"event"`
	MiddlewareID string `json:"middleware"`
	Priority     int    `json:"priority"`
	Skipped      bool   `json:"skipped,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Cancel       bool   `json:"cancel,omitempty"`

	InputChars  int `json:"in_chars"`
	OutputChars int `json:"out_chars"`
}

func (c *Chain) debugLog(e *Event, id string, priority int, skipped bool, inText, outText string, dec Decision) {
	c.debugMu.Lock()
	w := c.debugW
	c.debugMu.Unlock()
	if w == nil {
		return
	}

	entry := debugEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Event:        string(e.Name),
		MiddlewareID: id,
		Priority:     priority,
		Skipped:      skipped,
		Reason:       dec.Reason,
		Cancel:       dec.Cancel,
		InputChars:   utf8.RuneCountInString(inText),
		OutputChars:  utf8.RuneCountInString(outText),
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = io.WriteString(w, string(b)+"\n")
}
