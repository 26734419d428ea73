package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// topicVocabulary is the fixed word list common topics are counted from.
var topicVocabulary = []string{
	"meeting", "project", "report", "update", "review", "deadline", "budget", "team",
}

// SenderCount is one entry of the top-senders ranking.
type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// TopicCount is one entry of the common-topics ranking.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Summary holds corpus-wide counts for one owner.
type Summary struct {
	TotalEmails    int           `json:"totalEmails"`
	TotalThreads   int           `json:"totalThreads"`
	RecentActivity int           `json:"recentActivity"`
	TopSenders     []SenderCount `json:"topSenders"`
	CommonTopics   []TopicCount  `json:"commonTopics"`
}

// Analytics computes counts over the owner's full corpus, unfiltered by
// folder. An empty corpus yields zero values, never an error.
func (e *Engine) Analytics(ctx context.Context, ownerID string) (*Summary, error) {
	threads, err := e.threads.ThreadsForOwner(ctx, ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	now := e.now()
	summary := &Summary{
		TotalThreads: len(threads),
		TopSenders:   []SenderCount{},
		CommonTopics: []TopicCount{},
	}

	senderCounts := make(map[string]int)
	topicCounts := make(map[string]int)

	for i := range threads {
		t := &threads[i]
		summary.TotalEmails += len(t.Emails)

		if now.Sub(t.LastMessageDate) < recencyWindow {
			summary.RecentActivity++
		}

		for j := range t.Emails {
			senderCounts[t.Emails[j].From.Display()]++
		}

		text := threadText(t)
		for _, word := range topicVocabulary {
			if strings.Contains(text, word) {
				topicCounts[word]++
			}
		}
	}

	for sender, count := range senderCounts {
		summary.TopSenders = append(summary.TopSenders, SenderCount{Sender: sender, Count: count})
	}
	sort.Slice(summary.TopSenders, func(i, j int) bool {
		if summary.TopSenders[i].Count != summary.TopSenders[j].Count {
			return summary.TopSenders[i].Count > summary.TopSenders[j].Count
		}
		return summary.TopSenders[i].Sender < summary.TopSenders[j].Sender
	})
	if len(summary.TopSenders) > 5 {
		summary.TopSenders = summary.TopSenders[:5]
	}

	for topic, count := range topicCounts {
		summary.CommonTopics = append(summary.CommonTopics, TopicCount{Topic: topic, Count: count})
	}
	sort.Slice(summary.CommonTopics, func(i, j int) bool {
		if summary.CommonTopics[i].Count != summary.CommonTopics[j].Count {
			return summary.CommonTopics[i].Count > summary.CommonTopics[j].Count
		}
		return summary.CommonTopics[i].Topic < summary.CommonTopics[j].Topic
	})
	if len(summary.CommonTopics) > 5 {
		summary.CommonTopics = summary.CommonTopics[:5]
	}

	return summary, nil
}
