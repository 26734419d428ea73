package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smartinbox/smartinbox/internal/mail"
)

// testNow anchors all recency math in the tests.
var testNow = time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC)

// fakeSource serves a fixed thread list, optionally narrowed by folder the
// way the store does it.
type fakeSource struct {
	threads []mail.Thread
	err     error
}

func (f *fakeSource) ThreadsForOwner(_ context.Context, _ string, folder *mail.Folder) ([]mail.Thread, error) {
	if f.err != nil {
		return nil, f.err
	}
	if folder == nil {
		return append([]mail.Thread(nil), f.threads...), nil
	}
	out := make([]mail.Thread, 0, len(f.threads))
	for _, t := range f.threads {
		if t.InFolder(*folder) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTestEngine(threads []mail.Thread) *Engine {
	e := NewEngine(&fakeSource{threads: threads})
	e.now = func() time.Time { return testNow }
	return e
}

func inboxThread(id, subject string, lastMessage time.Time, emails ...mail.Email) mail.Thread {
	return mail.Thread{
		ID:              id,
		Subject:         subject,
		LastMessageDate: lastMessage,
		InboxStatus:     true,
		Emails:          emails,
	}
}

// sampleCorpus mirrors the demo mailbox closely enough to exercise every
// scoring strategy.
func sampleCorpus() []mail.Thread {
	old := testNow.AddDate(0, -2, 0)
	return []mail.Thread{
		inboxThread("t1", "Q4 Project Update - Major Milestones Achieved", testNow.Add(-26*time.Hour),
			mail.Email{
				ID:             "e1",
				Subject:        "Q4 Project Update - Major Milestones Achieved",
				BodySnippet:    "Hi team, I wanted to share our progress on the Q4 goals before the deadline...",
				SentAt:         testNow.Add(-26 * time.Hour),
				HasAttachments: true,
				Label:          mail.FolderInbox,
				Sensitivity:    mail.SensitivityConfidential,
				From:           mail.Address{Name: "John Smith", Address: "john.smith@company.com"},
				To:             []mail.Address{{Name: "Test User", Address: "test@example.com"}},
			}),
		inboxThread("t2", "Meeting Tomorrow at 2 PM", testNow.Add(-28*time.Hour),
			mail.Email{
				ID:          "e2",
				Subject:     "Meeting Tomorrow at 2 PM",
				BodySnippet: "Just a reminder about our scheduled meeting...",
				SentAt:      testNow.Add(-28 * time.Hour),
				Label:       mail.FolderInbox,
				Sensitivity: mail.SensitivityNormal,
				From:        mail.Address{Name: "Sarah Johnson", Address: "sarah.johnson@company.com"},
				To:          []mail.Address{{Name: "Test User", Address: "test@example.com"}},
			}),
		inboxThread("t3", "Lunch plans", old,
			mail.Email{
				ID:          "e3",
				Subject:     "Lunch plans",
				BodySnippet: "Want to grab lunch on Friday?",
				SentAt:      old,
				Label:       mail.FolderInbox,
				Sensitivity: mail.SensitivityNormal,
				From:        mail.Address{Name: "Alex Doe", Address: "alex@example.com"},
				To:          []mail.Address{{Name: "Test User", Address: "test@example.com"}},
			}),
	}
}

func TestSearchEmptyQueryStrategiesContributeNothing(t *testing.T) {
	thread := sampleCorpus()[0]

	for _, query := range []string{"", "   ", "\t"} {
		if m := exactMatch(&thread, query); m.score != 0 {
			t.Errorf("exactMatch(%q) score = %v, want 0", query, m.score)
		}
		if m := semanticMatch(&thread, query); m.score != 0 {
			t.Errorf("semanticMatch(%q) score = %v, want 0", query, m.score)
		}
		if m := fuzzyMatch(&thread, query); m.score != 0 {
			t.Errorf("fuzzyMatch(%q) score = %v, want 0", query, m.score)
		}
	}
}

func TestSearchSubjectMatch(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	results, err := engine.Search(context.Background(), "owner1", "meeting", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results for query \"meeting\"")
	}

	top := results[0]
	if top.Thread.ID != "t2" {
		t.Errorf("top result = %s, want t2", top.Thread.ID)
	}
	if top.Relevance < 10 {
		t.Errorf("relevance = %v, want >= 10 for a subject match", top.Relevance)
	}
	if !contains(top.MatchedFields, "subject") {
		t.Errorf("matched fields %v missing \"subject\"", top.MatchedFields)
	}
	if !contains(top.MatchedFields, "semantic_meeting") {
		t.Errorf("matched fields %v missing \"semantic_meeting\"", top.MatchedFields)
	}
}

func TestSearchProjectScenario(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	results, err := engine.Search(context.Background(), "owner1", "project", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results for query \"project\"")
	}

	top := results[0]
	if top.Thread.ID != "t1" {
		t.Fatalf("top result = %s, want t1", top.Thread.ID)
	}
	// subject 10 + email subject 8 + semantic 2.4 + fuzzy 1.2 + filter pass
	// 0.1 + recency 0.2 + urgency 0.2 + confidential 0.3 + attachments 0.1
	if top.Relevance < 13.4 {
		t.Errorf("relevance = %v, want >= 13.4", top.Relevance)
	}
	if !contains(top.MatchedFields, "subject") || !contains(top.MatchedFields, "semantic_project") {
		t.Errorf("matched fields = %v, want subject and semantic_project", top.MatchedFields)
	}
	if len(top.Highlights) > 3 {
		t.Errorf("got %d highlights, want at most 3", len(top.Highlights))
	}
}

func TestSearchNoMatches(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	results, err := engine.Search(context.Background(), "owner1", "xyznomatch", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Flat bonuses alone keep threads above zero, so the scenarios that must
	// vanish are those failing a filter; a matchless query still ranks by the
	// importance boosts. The thread with no boosts at all is dropped.
	for _, r := range results {
		if r.Relevance <= 0 {
			t.Errorf("result %s has non-positive relevance %v", r.Thread.ID, r.Relevance)
		}
	}
}

func TestSearchFilterRejectionDropsTextMatches(t *testing.T) {
	engine := newTestEngine(sampleCorpus())
	sensitivity := mail.SensitivityConfidential

	results, err := engine.Search(context.Background(), "owner1", "meeting", &Filter{Sensitivity: &sensitivity})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.Thread.ID == "t2" {
			t.Error("t2 matched the query but fails the sensitivity filter, should be dropped")
		}
	}
}

func TestSearchConjunctiveFilters(t *testing.T) {
	engine := newTestEngine(sampleCorpus())
	attachments := true
	sensitivity := mail.SensitivityConfidential

	results, err := engine.Search(context.Background(), "owner1", "project", &Filter{
		Sender:         "john",
		HasAttachments: &attachments,
		Sensitivity:    &sensitivity,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Thread.ID != "t1" {
		t.Fatalf("results = %v, want exactly t1", resultIDs(results))
	}
}

func TestSearchInvalidFilter(t *testing.T) {
	engine := newTestEngine(sampleCorpus())
	bad := mail.Folder("archive")

	_, err := engine.Search(context.Background(), "owner1", "meeting", &Filter{Folder: &bad})
	var invalid *InvalidFilterError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *InvalidFilterError", err)
	}
}

func TestSearchSourceErrorPropagates(t *testing.T) {
	e := NewEngine(&fakeSource{err: errors.New("disk gone")})
	e.now = func() time.Time { return testNow }

	if _, err := e.Search(context.Background(), "owner1", "meeting", nil); err == nil {
		t.Fatal("expected storage error to propagate")
	}
}

func TestSearchOrderingAndCap(t *testing.T) {
	threads := make([]mail.Thread, 0, 60)
	for i := 0; i < 60; i++ {
		// All score identically, so ranking must keep corpus order
		threads = append(threads, inboxThread(
			fmt.Sprintf("t%02d", i),
			"Status report",
			testNow.Add(-time.Duration(i)*time.Hour),
			mail.Email{
				ID:          fmt.Sprintf("e%02d", i),
				Subject:     "Status report",
				BodySnippet: "The weekly report is attached below.",
				SentAt:      testNow.Add(-time.Duration(i) * time.Hour),
				Label:       mail.FolderInbox,
				Sensitivity: mail.SensitivityNormal,
				From:        mail.Address{Name: "Reporter", Address: "reporter@example.com"},
			},
		))
	}
	engine := newTestEngine(threads)

	results, err := engine.Search(context.Background(), "owner1", "report", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != maxResults {
		t.Fatalf("got %d results, want %d", len(results), maxResults)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Relevance > results[i-1].Relevance {
			t.Fatalf("results not sorted: %v before %v", results[i-1].Relevance, results[i].Relevance)
		}
	}
	// Equal scores keep corpus order
	if results[0].Thread.ID != "t00" || results[1].Thread.ID != "t01" {
		t.Errorf("tie-break order broken: %s, %s", results[0].Thread.ID, results[1].Thread.ID)
	}

	again, err := engine.Search(context.Background(), "owner1", "report", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := range results {
		if results[i].Thread.ID != again[i].Thread.ID {
			t.Fatalf("ranking not deterministic at position %d", i)
		}
	}
}

func TestFuzzyMatchPrefix(t *testing.T) {
	thread := inboxThread("t1", "Budget spreadsheet", testNow,
		mail.Email{Subject: "Budget spreadsheet", BodySnippet: "numbers inside"})

	tests := []struct {
		query     string
		wantScore float64
	}{
		{"budgets", 2}, // prefix "budge" appears
		{"budget", 2},
		{"bu", 0}, // too short for fuzzy
		{"zzzzz", 0},
	}
	for _, tt := range tests {
		if m := fuzzyMatch(&thread, tt.query); m.score != tt.wantScore {
			t.Errorf("fuzzyMatch(%q) score = %v, want %v", tt.query, m.score, tt.wantScore)
		}
	}
}

func TestImportanceScore(t *testing.T) {
	tests := []struct {
		name   string
		thread mail.Thread
		want   float64
	}{
		{
			name:   "plain thread",
			thread: inboxThread("t", "Hello", testNow, mail.Email{Subject: "Hello", From: mail.Address{Address: "a@b.com"}}),
			want:   0,
		},
		{
			name: "role sender",
			thread: inboxThread("t", "Hello", testNow,
				mail.Email{From: mail.Address{Name: "The Manager", Address: "a@b.com"}}),
			want: 0.3,
		},
		{
			name: "urgent confidential with attachment",
			thread: inboxThread("t", "Urgent contract", testNow,
				mail.Email{
					BodySnippet:    "please sign asap",
					HasAttachments: true,
					Sensitivity:    mail.SensitivityConfidential,
					From:           mail.Address{Address: "a@b.com"},
				}),
			want: 0.6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := importanceScore(&tt.thread)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("importanceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupe = %v, want %v", got, want)
		}
	}
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}

func resultIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Thread.ID
	}
	return ids
}
