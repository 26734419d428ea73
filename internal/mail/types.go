package mail

import (
	"fmt"
	"time"
)

// Folder identifies one of the three mailbox views. Each folder is an
// independent boolean flag on the thread rather than an exclusive assignment.
type Folder string

const (
	FolderInbox Folder = "inbox"
	FolderSent  Folder = "sent"
	FolderDraft Folder = "draft"
)

// ParseFolder validates a folder name from user input.
func ParseFolder(s string) (Folder, error) {
	switch Folder(s) {
	case FolderInbox, FolderSent, FolderDraft:
		return Folder(s), nil
	}
	return "", fmt.Errorf("unknown folder %q", s)
}

// Sensitivity is the privacy classification label on an email.
type Sensitivity string

const (
	SensitivityNormal       Sensitivity = "normal"
	SensitivityPrivate      Sensitivity = "private"
	SensitivityPersonal     Sensitivity = "personal"
	SensitivityConfidential Sensitivity = "confidential"
)

// ParseSensitivity validates a sensitivity value from user input.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch Sensitivity(s) {
	case SensitivityNormal, SensitivityPrivate, SensitivityPersonal, SensitivityConfidential:
		return Sensitivity(s), nil
	}
	return "", fmt.Errorf("unknown sensitivity %q", s)
}

// Address is a mailbox address with an optional display name.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Display returns the name if present, the raw address otherwise.
func (a Address) Display() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Address
}

// Attachment describes a file attached to an email.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Inline   bool   `json:"inline"`
}

// Email is a single message inside a thread. Emails are immutable once
// stored; search never mutates them.
type Email struct {
	ID             string       `json:"id"`
	ThreadID       string       `json:"threadId"`
	Subject        string       `json:"subject"`
	BodySnippet    string       `json:"bodySnippet,omitempty"`
	Body           string       `json:"body,omitempty"`
	SentAt         time.Time    `json:"sentAt"`
	ReceivedAt     time.Time    `json:"receivedAt"`
	HasAttachments bool         `json:"hasAttachments"`
	Label          Folder       `json:"emailLabel"`
	Sensitivity    Sensitivity  `json:"sensitivity"`
	From           Address      `json:"from"`
	To             []Address    `json:"to"`
	Cc             []Address    `json:"cc,omitempty"`
	Bcc            []Address    `json:"bcc,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Thread groups the emails of one conversation. A thread belongs to exactly
// one account; emails are newest-first for listing and oldest-first when a
// single conversation is reconstructed.
type Thread struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId"`
	Subject         string    `json:"subject"`
	LastMessageDate time.Time `json:"lastMessageDate"`
	ParticipantIDs  []string  `json:"participantIds"`
	InboxStatus     bool      `json:"inboxStatus"`
	DraftStatus     bool      `json:"draftStatus"`
	SentStatus      bool      `json:"sentStatus"`
	Emails          []Email   `json:"emails"`
}

// InFolder reports whether the matching status flag for f is set.
func (t *Thread) InFolder(f Folder) bool {
	switch f {
	case FolderInbox:
		return t.InboxStatus
	case FolderSent:
		return t.SentStatus
	case FolderDraft:
		return t.DraftStatus
	}
	return false
}
