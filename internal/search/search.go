// Package search implements the relevance-ranked email search engine: three
// match strategies (exact, semantic category, fuzzy prefix), a conjunctive
// filter evaluator, importance and recency boosts, plus companion suggestion
// and analytics generators. Scoring is recomputed from the owner's corpus on
// every request; there is no persisted index.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/smartinbox/smartinbox/internal/mail"
)

const (
	maxResults    = 50
	maxHighlights = 3

	exactWeight    = 1.0
	semanticWeight = 0.8
	fuzzyWeight    = 0.6

	filterPassBonus = 0.1
	recencyBonus    = 0.2
	recencyWindow   = 7 * 24 * time.Hour
)

// Result is one ranked search hit.
type Result struct {
	Thread        mail.Thread `json:"thread"`
	Relevance     float64     `json:"relevance"`
	MatchedFields []string    `json:"matchedFields"`
	Highlights    []string    `json:"highlights"`
}

// ThreadSource loads the folder-scoped corpus for one owner. A nil folder
// means the full corpus.
type ThreadSource interface {
	ThreadsForOwner(ctx context.Context, ownerID string, folder *mail.Folder) ([]mail.Thread, error)
}

// Engine runs searches over a ThreadSource. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	threads ThreadSource
	now     func() time.Time
}

// NewEngine creates a search engine backed by src.
func NewEngine(src ThreadSource) *Engine {
	return &Engine{threads: src, now: time.Now}
}

// Search scores every thread in the owner's folder-scoped corpus and returns
// up to 50 results sorted by descending relevance. Threads rejected by the
// filter or scoring zero are excluded. Ties keep corpus order (most recent
// thread first), so repeated identical calls return identical rankings.
//
// A blank query still runs the whole pipeline; only filters and flat bonuses
// then determine inclusion. Callers wanting a plain listing should use the
// store's listing path instead.
func (e *Engine) Search(ctx context.Context, ownerID, query string, filter *Filter) ([]Result, error) {
	if filter == nil {
		filter = &Filter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	threads, err := e.threads.ThreadsForOwner(ctx, ownerID, filter.Folder)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	now := e.now()
	results := make([]Result, 0)

	for i := range threads {
		t := &threads[i]

		exact := exactMatch(t, query)
		semantic := semanticMatch(t, query)
		fuzzy := fuzzyMatch(t, query)

		relevance := exact.score*exactWeight +
			semantic.score*semanticWeight +
			fuzzy.score*fuzzyWeight

		// A thread failing any present filter is dropped no matter how
		// well its text matched.
		if !filter.Matches(t) {
			continue
		}
		relevance += filterPassBonus

		if now.Sub(t.LastMessageDate) <= recencyWindow {
			relevance += recencyBonus
		}

		relevance += importanceScore(t)

		if relevance <= 0 {
			continue
		}

		fields := make([]string, 0, len(exact.fields)+len(semantic.fields)+len(fuzzy.fields))
		fields = append(fields, exact.fields...)
		fields = append(fields, semantic.fields...)
		fields = append(fields, fuzzy.fields...)

		highlights := make([]string, 0, len(exact.highlights)+len(semantic.highlights)+len(fuzzy.highlights))
		highlights = append(highlights, exact.highlights...)
		highlights = append(highlights, semantic.highlights...)
		highlights = append(highlights, fuzzy.highlights...)

		results = append(results, Result{
			Thread:        threads[i],
			Relevance:     relevance,
			MatchedFields: dedupe(fields),
			Highlights:    dedupeCap(highlights, maxHighlights),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// strategyMatch is the partial score and provenance one strategy contributes
// for a single thread.
type strategyMatch struct {
	score      float64
	fields     []string
	highlights []string
}

// exactMatch performs the weighted case-insensitive substring checks. All
// matching fields across all emails accumulate; nothing is mutually
// exclusive. A blank query contributes nothing.
func exactMatch(t *mail.Thread, query string) strategyMatch {
	var m strategyMatch
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return m
	}

	if strings.Contains(strings.ToLower(t.Subject), q) {
		m.score += 10
		m.fields = append(m.fields, "subject")
		m.highlights = append(m.highlights, "Subject: "+t.Subject)
	}

	for i := range t.Emails {
		e := &t.Emails[i]

		if strings.Contains(strings.ToLower(e.Subject), q) {
			m.score += 8
			m.fields = append(m.fields, "email_subject")
			m.highlights = append(m.highlights, "Email: "+e.Subject)
		}

		if e.BodySnippet != "" && strings.Contains(strings.ToLower(e.BodySnippet), q) {
			m.score += 6
			m.fields = append(m.fields, "email_body")
			m.highlights = append(m.highlights, "Content: "+truncate(e.BodySnippet, 100)+"...")
		}

		if e.Body != "" && strings.Contains(strings.ToLower(e.Body), q) {
			m.score += 5
			m.fields = append(m.fields, "email_body_full")
		}

		if e.From.Name != "" && strings.Contains(strings.ToLower(e.From.Name), q) {
			m.score += 7
			m.fields = append(m.fields, "sender_name")
			m.highlights = append(m.highlights, "From: "+e.From.Name)
		}

		if strings.Contains(strings.ToLower(e.From.Address), q) {
			m.score += 6
			m.fields = append(m.fields, "sender_email")
			m.highlights = append(m.highlights, "From: "+e.From.Address)
		}

		for _, r := range e.To {
			if r.Name != "" && strings.Contains(strings.ToLower(r.Name), q) {
				m.score += 5
				m.fields = append(m.fields, "recipient_name")
				m.highlights = append(m.highlights, "To: "+r.Name)
			}
			if strings.Contains(strings.ToLower(r.Address), q) {
				m.score += 4
				m.fields = append(m.fields, "recipient_email")
				m.highlights = append(m.highlights, "To: "+r.Address)
			}
		}
	}

	return m
}

// semanticCategories maps category names to their keyword sets. The slice is
// ordered so category evaluation is deterministic.
var semanticCategories = []struct {
	name     string
	keywords []string
}{
	{"meeting", []string{"meeting", "schedule", "appointment", "call", "conference"}},
	{"project", []string{"project", "task", "work", "assignment", "deliverable"}},
	{"report", []string{"report", "analysis", "summary", "review", "assessment"}},
	{"urgent", []string{"urgent", "important", "critical", "priority", "asap"}},
	{"deadline", []string{"deadline", "due", "timeline", "schedule"}},
	{"budget", []string{"budget", "cost", "expense", "financial", "money"}},
	{"team", []string{"team", "collaboration", "group", "department", "staff"}},
}

// semanticMatch fires a category when its keyword set intersects both the
// query and the thread text. Categories are independent; each adds 3.
func semanticMatch(t *mail.Thread, query string) strategyMatch {
	var m strategyMatch
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return m
	}

	text := threadText(t)
	for _, cat := range semanticCategories {
		inQuery := false
		for _, kw := range cat.keywords {
			if strings.Contains(q, kw) {
				inQuery = true
				break
			}
		}
		if !inQuery {
			continue
		}
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				m.score += 3
				m.fields = append(m.fields, "semantic_"+cat.name)
				m.highlights = append(m.highlights, "Related to: "+cat.name)
				break
			}
		}
	}

	return m
}

// fuzzyMatch tolerates suffix typos by testing the first 70% of each query
// token against the thread text. This is deliberately crude prefix
// containment, not edit distance.
func fuzzyMatch(t *mail.Thread, query string) strategyMatch {
	var m strategyMatch
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return m
	}

	text := threadText(t)
	for _, token := range strings.Fields(q) {
		runes := []rune(token)
		if len(runes) <= 2 {
			continue
		}
		prefix := string(runes[:len(runes)*7/10])
		if strings.Contains(text, prefix) {
			m.score += 2
			m.fields = append(m.fields, "fuzzy_match")
			m.highlights = append(m.highlights, "Partial match: "+token)
		}
	}

	return m
}

var (
	roleKeywords    = []string{"ceo", "manager", "director", "hr", "finance"}
	urgencyKeywords = []string{"urgent", "important", "critical", "priority", "asap", "deadline"}
)

// importanceScore is the stateless, query-independent boost: sender role
// keywords, urgency vocabulary, confidential sensitivity and attachment
// presence. Applied to every thread considered, even with a blank query, so
// permissive filters still surface important mail.
func importanceScore(t *mail.Thread) float64 {
	var score float64

	for i := range t.Emails {
		e := &t.Emails[i]
		name := strings.ToLower(e.From.Name)
		address := strings.ToLower(e.From.Address)
		matched := false
		for _, role := range roleKeywords {
			if strings.Contains(name, role) || strings.Contains(address, role) {
				matched = true
				break
			}
		}
		if matched {
			score += 0.3
			break
		}
	}

	text := threadText(t)
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			score += 0.2
			break
		}
	}

	for i := range t.Emails {
		if t.Emails[i].Sensitivity == mail.SensitivityConfidential {
			score += 0.3
			break
		}
	}

	for i := range t.Emails {
		if t.Emails[i].HasAttachments {
			score += 0.1
			break
		}
	}

	return score
}

// threadText is the lowercased concatenation of subject and body snippets
// used by the semantic, fuzzy and importance scorers.
func threadText(t *mail.Thread) string {
	var b strings.Builder
	b.WriteString(t.Subject)
	for i := range t.Emails {
		b.WriteByte(' ')
		b.WriteString(t.Emails[i].BodySnippet)
	}
	return strings.ToLower(b.String())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// dedupe removes duplicates preserving first-encountered order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func dedupeCap(items []string, n int) []string {
	out := dedupe(items)
	if len(out) > n {
		out = out[:n]
	}
	return out
}
