package search

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/smartinbox/smartinbox/internal/mail"
)

// This file is the local mirror of the search semantics: pure, synchronous
// functions over an already-fetched thread list, intended for instant
// keystroke-level narrowing in an embedding UI before the authoritative
// server round trip. None of the functions touch storage or shared state;
// callers are responsible for debouncing. The relevance weights here are
// deliberately NOT the server table - the mirror ranks as a cheap preview
// while Engine.Search stays authoritative.

// FilterThreads returns the subset of threads matching the free-text query
// and the filter set. Folder checks the thread status flags; the remaining
// fields mirror Filter semantics except the date range, which is inclusive on
// each email's sentAt rather than the thread's lastMessageDate.
func FilterThreads(threads []mail.Thread, query string, filter Filter) []mail.Thread {
	if strings.TrimSpace(query) == "" && filterEmpty(filter) {
		return threads
	}

	q := strings.ToLower(query)
	out := make([]mail.Thread, 0, len(threads))

	for i := range threads {
		t := &threads[i]

		if filter.Folder != nil && !t.InFolder(*filter.Folder) {
			continue
		}

		if threadHasMatchingEmail(t, q, filter) {
			out = append(out, threads[i])
		}
	}
	return out
}

func filterEmpty(f Filter) bool {
	return f.Folder == nil && f.Sender == "" && f.HasAttachments == nil &&
		f.Sensitivity == nil && f.DateRange == nil
}

func threadHasMatchingEmail(t *mail.Thread, q string, filter Filter) bool {
	sender := strings.ToLower(filter.Sender)

	for i := range t.Emails {
		e := &t.Emails[i]

		matchesText := strings.TrimSpace(q) == "" || emailContains(e, q)

		matchesSender := sender == "" ||
			strings.Contains(strings.ToLower(e.From.Name), sender) ||
			strings.Contains(strings.ToLower(e.From.Address), sender)

		matchesAttachments := filter.HasAttachments == nil ||
			e.HasAttachments == *filter.HasAttachments

		matchesSensitivity := filter.Sensitivity == nil ||
			e.Sensitivity == *filter.Sensitivity

		matchesDateRange := filter.DateRange == nil ||
			(!e.SentAt.Before(filter.DateRange.Start) && !e.SentAt.After(filter.DateRange.End))

		if matchesText && matchesSender && matchesAttachments && matchesSensitivity && matchesDateRange {
			return true
		}
	}
	return false
}

func emailContains(e *mail.Email, q string) bool {
	if strings.Contains(strings.ToLower(e.Subject), q) ||
		(e.BodySnippet != "" && strings.Contains(strings.ToLower(e.BodySnippet), q)) ||
		(e.Body != "" && strings.Contains(strings.ToLower(e.Body), q)) ||
		(e.From.Name != "" && strings.Contains(strings.ToLower(e.From.Name), q)) ||
		strings.Contains(strings.ToLower(e.From.Address), q) {
		return true
	}
	for _, r := range e.To {
		if (r.Name != "" && strings.Contains(strings.ToLower(r.Name), q)) ||
			strings.Contains(strings.ToLower(r.Address), q) {
			return true
		}
	}
	return false
}

// LocalRelevance scores one thread against a query with the preview weight
// table, plus a flat recency bonus for threads active within the last week.
// A blank query scores zero.
func LocalRelevance(t *mail.Thread, query string, now time.Time) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	var score float64
	for i := range t.Emails {
		e := &t.Emails[i]

		if strings.Contains(strings.ToLower(e.Subject), q) {
			score += 10
		}
		if e.From.Name != "" && strings.Contains(strings.ToLower(e.From.Name), q) {
			score += 8
		}
		if strings.Contains(strings.ToLower(e.From.Address), q) {
			score += 6
		}
		if e.BodySnippet != "" && strings.Contains(strings.ToLower(e.BodySnippet), q) {
			score += 4
		}
		if e.Body != "" && strings.Contains(strings.ToLower(e.Body), q) {
			score += 3
		}
		for _, r := range e.To {
			if r.Name != "" && strings.Contains(strings.ToLower(r.Name), q) {
				score += 5
			}
			if strings.Contains(strings.ToLower(r.Address), q) {
				score += 4
			}
		}
	}

	if now.Sub(t.LastMessageDate) <= recencyWindow {
		score += 2
	}

	return score
}

// SortByRelevance orders threads by LocalRelevance descending, dropping
// zero-scoring threads. The input slice is not modified. A blank query
// returns the input unchanged.
func SortByRelevance(threads []mail.Thread, query string, now time.Time) []mail.Thread {
	if strings.TrimSpace(query) == "" {
		return threads
	}

	type scored struct {
		thread    mail.Thread
		relevance float64
	}
	items := make([]scored, 0, len(threads))
	for i := range threads {
		r := LocalRelevance(&threads[i], query, now)
		if r > 0 {
			items = append(items, scored{thread: threads[i], relevance: r})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].relevance > items[j].relevance
	})

	out := make([]mail.Thread, len(items))
	for i, it := range items {
		out[i] = it.thread
	}
	return out
}

// LocalSuggestions builds autocomplete candidates from an in-memory thread
// list: whole subjects, sender names and addresses, and snippet words all
// containing the partial query. Unlike the server-side Suggest it keeps
// subjects intact rather than tokenizing them. Partials shorter than two
// characters return nothing; results cap at 10 in first-encountered order.
func LocalSuggestions(threads []mail.Thread, partial string) []string {
	if utf8.RuneCountInString(partial) < 2 {
		return []string{}
	}

	q := strings.ToLower(partial)
	out := make([]string, 0, maxSuggestions)
	seen := make(map[string]struct{})

	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for i := range threads {
		t := &threads[i]

		if strings.Contains(strings.ToLower(t.Subject), q) {
			add(t.Subject)
		}

		for j := range t.Emails {
			e := &t.Emails[j]
			if e.From.Name != "" && strings.Contains(strings.ToLower(e.From.Name), q) {
				add(e.From.Name)
			}
			if strings.Contains(strings.ToLower(e.From.Address), q) {
				add(e.From.Address)
			}
		}

		for j := range t.Emails {
			if t.Emails[j].BodySnippet == "" {
				continue
			}
			for _, word := range strings.Fields(strings.ToLower(t.Emails[j].BodySnippet)) {
				if len(word) > 2 && strings.Contains(word, q) {
					add(word)
				}
			}
		}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Highlight wraps case-insensitive occurrences of query in a <mark> span for
// display. The query is treated literally, not as a pattern.
func Highlight(text, query string) string {
	if strings.TrimSpace(query) == "" {
		return text
	}
	re, err := regexp.Compile("(?i)(" + regexp.QuoteMeta(query) + ")")
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, "<mark>$1</mark>")
}
