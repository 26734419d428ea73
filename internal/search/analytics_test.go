package search

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smartinbox/smartinbox/internal/mail"
)

func TestAnalyticsEmptyCorpus(t *testing.T) {
	engine := newTestEngine(nil)

	got, err := engine.Analytics(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}

	want := &Summary{
		TopSenders:   []SenderCount{},
		CommonTopics: []TopicCount{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analytics mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsCounts(t *testing.T) {
	engine := newTestEngine(sampleCorpus())

	got, err := engine.Analytics(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}

	if got.TotalThreads != 3 {
		t.Errorf("TotalThreads = %d, want 3", got.TotalThreads)
	}
	if got.TotalEmails != 3 {
		t.Errorf("TotalEmails = %d, want 3", got.TotalEmails)
	}
	// t1 and t2 are within the window, t3 is two months old
	if got.RecentActivity != 2 {
		t.Errorf("RecentActivity = %d, want 2", got.RecentActivity)
	}
}

func TestAnalyticsTopSendersOrdering(t *testing.T) {
	alice := mail.Address{Name: "Alice", Address: "alice@x.com"}
	bob := mail.Address{Name: "Bob", Address: "bob@x.com"}
	carol := mail.Address{Name: "Carol", Address: "carol@x.com"}

	threads := []mail.Thread{
		inboxThread("t1", "a", testNow,
			mail.Email{From: alice}, mail.Email{From: alice}, mail.Email{From: bob}),
		inboxThread("t2", "b", testNow,
			mail.Email{From: carol}, mail.Email{From: bob}),
	}
	engine := newTestEngine(threads)

	got, err := engine.Analytics(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}

	want := []SenderCount{
		{Sender: "Alice", Count: 2},
		{Sender: "Bob", Count: 2},
		{Sender: "Carol", Count: 1},
	}
	if diff := cmp.Diff(want, got.TopSenders); diff != "" {
		t.Errorf("TopSenders mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsCommonTopics(t *testing.T) {
	threads := []mail.Thread{
		inboxThread("t1", "Project meeting", testNow, mail.Email{BodySnippet: "about the budget"}),
		inboxThread("t2", "Project review", testNow, mail.Email{BodySnippet: "the report is out"}),
	}
	engine := newTestEngine(threads)

	got, err := engine.Analytics(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}

	want := []TopicCount{
		{Topic: "project", Count: 2},
		{Topic: "budget", Count: 1},
		{Topic: "meeting", Count: 1},
		{Topic: "report", Count: 1},
		{Topic: "review", Count: 1},
	}
	if diff := cmp.Diff(want, got.CommonTopics); diff != "" {
		t.Errorf("CommonTopics mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsCapsTopLists(t *testing.T) {
	threads := make([]mail.Thread, 0, 8)
	for i := 0; i < 8; i++ {
		addr := mail.Address{Address: string(rune('a'+i)) + "@x.com"}
		threads = append(threads, inboxThread(string(rune('a'+i)), "x", testNow, mail.Email{From: addr}))
	}
	engine := newTestEngine(threads)

	got, err := engine.Analytics(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if len(got.TopSenders) != 5 {
		t.Errorf("TopSenders length = %d, want 5", len(got.TopSenders))
	}
}
