// Package nlu matches user utterances against registered intent
// templates. Templates are plain phrases with {slot} captures, e.g.
// "remind me to take {med} at {time}".
package nlu

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

type Result struct {
	Intent     string
	Confidence float64
	Slots      map[string]string
}

type matcher struct {
	intent string
	re     *regexp.Regexp
	slots  []string
}

type Engine struct {
	mu       sync.RWMutex
	matchers []*matcher
}

var (
	global *Engine
	once   sync.Once
)

// GetEngine returns the shared engine middlewares register into.
func GetEngine() *Engine {
	once.Do(func() {
		global = NewEngine()
	})
	return global
}

func NewEngine() *Engine {
	return &Engine{}
}

// RegisterIntent adds an intent with a list of template utterances.
// Templates that fail to compile are dropped; an intent is only as good
// as its remaining templates.
func (e *Engine) RegisterIntent(intent string, utterances ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range utterances {
		m, err := compile(intent, u)
		if err != nil {
			continue
		}
		e.matchers = append(e.matchers, m)
	}
}

// Parse returns the first matching intent with its captured slots, or a
// zero Result when nothing matches.
func (e *Engine) Parse(input string) Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	input = strings.TrimSpace(input)
	for _, m := range e.matchers {
		groups := m.re.FindStringSubmatch(input)
		if groups == nil {
			continue
		}
		slots := make(map[string]string, len(m.slots))
		for i, name := range m.slots {
			if i+1 < len(groups) {
				slots[name] = strings.TrimSpace(groups[i+1])
			}
		}
		return Result{Intent: m.intent, Confidence: 1.0, Slots: slots}
	}
	return Result{}
}

// compile turns "remind me to take {med} at {time}" into
// `(?i)^remind\s+me\s+to\s+take\s+(.*?)\s+at\s+(.*?)$` style matchers.
func compile(intent, utterance string) (*matcher, error) {
	utterance = strings.Join(strings.Fields(utterance), " ")

	var (
		pattern strings.Builder
		slots   []string
	)
	pattern.WriteString(`(?i)^`)

	rest := utterance
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			pattern.WriteString(literal(rest))
			break
		}
		close := strings.Index(rest[open:], "}")
		if close < 0 {
			return nil, fmt.Errorf("unclosed brace in utterance %q", utterance)
		}
		pattern.WriteString(literal(rest[:open]))
		slots = append(slots, strings.TrimSpace(rest[open+1:open+close]))
		// Non-greedy so multiple slots split sensibly.
		pattern.WriteString(`(.*?)`)
		rest = rest[open+close+1:]
	}
	pattern.WriteString(`$`)

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, err
	}
	return &matcher{intent: intent, re: re, slots: slots}, nil
}

// literal escapes static template text, with flexible whitespace.
func literal(s string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(s), " ", `\s+`)
}
