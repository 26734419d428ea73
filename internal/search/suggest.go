package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxSuggestions = 10

var nonWord = regexp.MustCompile(`\W`)

// Suggest returns autocomplete candidates containing the partial query:
// subject tokens, sender names and addresses, and adjacent two-word phrases
// from body snippets. Partials shorter than two characters return nothing
// without touching storage. Order is first-encountered over the corpus, so
// results are deterministic for unchanged data.
func (e *Engine) Suggest(ctx context.Context, ownerID, partial string) ([]string, error) {
	if utf8.RuneCountInString(partial) < 2 {
		return []string{}, nil
	}

	threads, err := e.threads.ThreadsForOwner(ctx, ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	q := strings.ToLower(partial)
	words := make([]string, 0)
	phrases := make([]string, 0)
	seen := make(map[string]struct{})

	add := func(dst *[]string, s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		*dst = append(*dst, s)
	}

	for i := range threads {
		t := &threads[i]

		for _, word := range strings.Fields(t.Subject) {
			clean := nonWord.ReplaceAllString(strings.ToLower(word), "")
			if len(clean) > 2 && strings.Contains(clean, q) {
				add(&words, clean)
			}
		}

		for j := range t.Emails {
			email := &t.Emails[j]
			if email.From.Name != "" && strings.Contains(strings.ToLower(email.From.Name), q) {
				add(&phrases, email.From.Name)
			}
			if strings.Contains(strings.ToLower(email.From.Address), q) {
				add(&phrases, email.From.Address)
			}
		}

		for j := range t.Emails {
			snippet := strings.ToLower(t.Emails[j].BodySnippet)
			if snippet == "" {
				continue
			}
			tokens := strings.Fields(snippet)
			for k := 0; k+1 < len(tokens); k++ {
				phrase := tokens[k] + " " + tokens[k+1]
				if strings.Contains(phrase, q) {
					add(&phrases, phrase)
				}
			}
		}
	}

	suggestions := append(words, phrases...)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}
