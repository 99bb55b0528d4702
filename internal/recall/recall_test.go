package recall

import (
	"strings"
	"testing"

	"jiva/internal/store"
)

func msgs(pairs ...string) []store.Message {
	out := make([]store.Message, 0, len(pairs))
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, store.Message{Role: pairs[i], Content: pairs[i+1]})
	}
	return out
}

func TestRelevantRanksByOverlap(t *testing.T) {
	older := msgs(
		"user", "my blood sugar was 210 this morning",
		"assistant", "that is high, please watch your diet",
		"user", "I twisted my ankle playing cricket",
		"user", "doctor increased my metformin dose to 1000mg",
	)

	got := Relevant(older, "what was my blood sugar reading?", 2)
	if len(got) == 0 {
		t.Fatal("expected at least one recalled snippet")
	}
	if got[0] != "my blood sugar was 210 this morning" {
		t.Errorf("top snippet = %q", got[0])
	}
	for _, s := range got {
		if strings.Contains(s, "watch your diet") {
			t.Error("assistant lines must not be recalled")
		}
	}
}

func TestRelevantNoOverlap(t *testing.T) {
	older := msgs("user", "my blood sugar was 210 this morning")
	if got := Relevant(older, "completely unrelated query", 3); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestRelevantDeduplicates(t *testing.T) {
	older := msgs(
		"user", "ankle still hurts",
		"user", "ankle still hurts",
	)
	got := Relevant(older, "how is my ankle?", 5)
	if len(got) != 1 {
		t.Errorf("got %d snippets, want 1", len(got))
	}
}

func TestContextBlock(t *testing.T) {
	if ContextBlock(nil) != "" {
		t.Error("empty snippets must yield empty block")
	}
	block := ContextBlock([]string{"a", "b"})
	if !strings.HasPrefix(block, "The patient previously mentioned:") {
		t.Errorf("block = %q", block)
	}
	if !strings.Contains(block, "- a\n") || !strings.Contains(block, "- b\n") {
		t.Errorf("block = %q", block)
	}
}
