// Package assistant answers natural-language questions about a mailbox by
// handing a compact summary of the owner's threads to a chat completion
// model. The assistant holds no conversation state of its own; callers pass
// the running history with every request.
package assistant

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/store"
)

const (
	// maxContextThreads bounds how much of the mailbox goes into the prompt.
	maxContextThreads = 50
	// maxSnippetLen keeps individual emails from dominating the context.
	maxSnippetLen = 200
	// maxHistory caps how many prior turns are replayed to the model.
	maxHistory = 20
)

// Message is one turn of an assistant conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assistant answers mailbox questions through a chat completion API.
type Assistant struct {
	store  *store.Store
	client *openai.Client
	model  string
}

// New builds an Assistant. With an empty API key the assistant is
// deliberately unconfigured and Reply must not be called.
func New(st *store.Store, apiKey, model string) *Assistant {
	a := &Assistant{store: st, model: model}
	if apiKey != "" {
		a.client = openai.NewClient(apiKey)
	}
	return a
}

// Configured reports whether an API key was provided.
func (a *Assistant) Configured() bool {
	return a.client != nil
}

// Reply answers one question about the owner's mailbox. It returns the
// model's reply and the number of emails that were summarized into the
// prompt.
func (a *Assistant) Reply(ctx context.Context, ownerID string, history []Message, message string) (string, int, error) {
	if a.client == nil {
		return "", 0, fmt.Errorf("assistant: no API key configured")
	}

	threads, err := a.store.ThreadsForOwner(ctx, ownerID, nil)
	if err != nil {
		return "", 0, fmt.Errorf("assistant: loading mailbox: %w", err)
	}
	if len(threads) > maxContextThreads {
		threads = threads[:maxContextThreads]
	}

	emailContext, emailsLoaded := buildContext(threads)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(emailContext),
	})
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		return "", 0, fmt.Errorf("assistant: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("assistant: empty completion")
	}

	return resp.Choices[0].Message.Content, emailsLoaded, nil
}

// buildContext renders the threads into the plain-text digest the system
// prompt embeds, newest thread first.
func buildContext(threads []mail.Thread) (string, int) {
	var b strings.Builder
	emails := 0
	for _, t := range threads {
		fmt.Fprintf(&b, "Thread: %s (last activity %s)\n", t.Subject, t.LastMessageDate.Format("2006-01-02"))
		for _, e := range t.Emails {
			snippet := e.BodySnippet
			if len(snippet) > maxSnippetLen {
				snippet = snippet[:maxSnippetLen]
			}
			fmt.Fprintf(&b, "  From %s on %s: %s\n    %s\n",
				e.From.Display(), e.SentAt.Format("2006-01-02"), e.Subject, snippet)
			emails++
		}
		b.WriteString("\n")
	}
	return b.String(), emails
}

func systemPrompt(emailContext string) string {
	return "You are an email assistant. Answer questions about the user's mailbox " +
		"using only the emails below. If the answer is not in the emails, say so " +
		"plainly. Be concise.\n\n" + emailContext
}
