package search

import (
	"context"
	"strings"
	"testing"
)

func TestSuggestShortPartial(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	// "é" is one character across two bytes; length is counted in runes
	for _, partial := range []string{"", "p", "é"} {
		got, err := engine.Suggest(context.Background(), "owner1", partial)
		if err != nil {
			t.Fatalf("Suggest(%q): %v", partial, err)
		}
		if len(got) != 0 {
			t.Errorf("Suggest(%q) = %v, want empty", partial, got)
		}
	}
}

func TestSuggestSubjectWords(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	got, err := engine.Suggest(context.Background(), "owner1", "pr")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if !contains(got, "project") {
		t.Errorf("suggestions %v missing \"project\"", got)
	}
	for _, s := range got {
		if !strings.Contains(strings.ToLower(s), "pr") {
			t.Errorf("suggestion %q does not contain the partial", s)
		}
	}
}

func TestSuggestSenders(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	got, err := engine.Suggest(context.Background(), "owner1", "sarah")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if !contains(got, "Sarah Johnson") {
		t.Errorf("suggestions %v missing sender name", got)
	}
	if !contains(got, "sarah.johnson@company.com") {
		t.Errorf("suggestions %v missing sender address", got)
	}
}

func TestSuggestCapAndDedup(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	// "e" is common enough to hit the cap across subjects and snippets
	got, err := engine.Suggest(context.Background(), "owner1", "te")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) > maxSuggestions {
		t.Errorf("got %d suggestions, want at most %d", len(got), maxSuggestions)
	}
	seen := make(map[string]bool)
	for _, s := range got {
		if seen[s] {
			t.Errorf("duplicate suggestion %q", s)
		}
		seen[s] = true
	}
}

func TestSuggestDeterministic(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	first, err := engine.Suggest(context.Background(), "owner1", "me")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	second, err := engine.Suggest(context.Background(), "owner1", "me")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs at %d: %q vs %q", i, first[i], second[i])
		}
	}
}
