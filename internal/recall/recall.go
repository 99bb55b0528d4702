// Package recall surfaces relevant lines from a user's older chat
// history, beyond the short window the model sees directly. Ranking is
// a plain lexical overlap score, cheap enough to run on every message.
package recall

import (
	"sort"
	"strings"

	"jiva/internal/store"
)

// Relevant returns up to k older user messages ranked against the
// current question. Messages already inside the live context window
// should not be passed in.
func Relevant(older []store.Message, question string, k int) []string {
	if len(older) == 0 || strings.TrimSpace(question) == "" || k <= 0 {
		return nil
	}

	qset := tokenSet(question)
	type scored struct {
		text  string
		score int
	}
	var sc []scored
	seen := make(map[string]struct{})
	for _, m := range older {
		if m.Role != "user" {
			continue
		}
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		score := overlap(qset, tokenSet(text))
		if score > 0 {
			sc = append(sc, scored{text: text, score: score})
		}
	}
	if len(sc) == 0 {
		return nil
	}
	sort.SliceStable(sc, func(i, j int) bool {
		if sc[i].score == sc[j].score {
			return len(sc[i].text) < len(sc[j].text)
		}
		return sc[i].score > sc[j].score
	})
	if len(sc) > k {
		sc = sc[:k]
	}
	out := make([]string, 0, len(sc))
	for _, s := range sc {
		out = append(out, s.text)
	}
	return out
}

// ContextBlock formats recalled snippets for the system prompt. Empty
// input yields an empty string so the prompt stays clean.
func ContextBlock(snippets []string) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("The patient previously mentioned:\n")
	for _, s := range snippets {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

func tokenSet(s string) map[string]struct{} {
	parts := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, ".,;:!?()[]{}\"'")
		if len(p) < 3 {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	count := 0
	for k := range a {
		if _, ok := b[k]; ok {
			count++
		}
	}
	return count
}
