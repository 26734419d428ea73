package search

import (
	"strings"
	"time"

	"github.com/smartinbox/smartinbox/internal/mail"
)

// DateRange bounds a search by the thread's last message date. Both ends are
// inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Filter is the request-scoped filter set for a search. Pointer fields
// distinguish "no constraint" from a constraint on the zero value; notably
// HasAttachments supports both must-be-true and must-be-false.
type Filter struct {
	// Folder narrows the corpus read itself; it is applied when loading
	// threads, not re-checked by Matches.
	Folder         *mail.Folder      `json:"folder,omitempty"`
	Sender         string            `json:"sender,omitempty"`
	HasAttachments *bool             `json:"hasAttachments,omitempty"`
	Sensitivity    *mail.Sensitivity `json:"sensitivity,omitempty"`
	DateRange      *DateRange        `json:"dateRange,omitempty"`
}

// Validate rejects malformed filters before any storage access.
func (f *Filter) Validate() error {
	if f.Folder != nil {
		if _, err := mail.ParseFolder(string(*f.Folder)); err != nil {
			return &InvalidFilterError{Field: "folder", Reason: err.Error()}
		}
	}
	if f.Sensitivity != nil {
		if _, err := mail.ParseSensitivity(string(*f.Sensitivity)); err != nil {
			return &InvalidFilterError{Field: "sensitivity", Reason: err.Error()}
		}
	}
	if f.DateRange != nil && f.DateRange.Start.After(f.DateRange.End) {
		return &InvalidFilterError{Field: "dateRange", Reason: "start is after end"}
	}
	return nil
}

// InvalidFilterError reports a malformed filter component.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return "invalid filter " + e.Field + ": " + e.Reason
}

// Matches evaluates the conjunction of all present filter components against
// one thread. Folder is deliberately absent here: the corpus load is the
// authoritative folder layer.
func (f *Filter) Matches(t *mail.Thread) bool {
	if f.Sender != "" {
		sender := strings.ToLower(f.Sender)
		found := false
		for i := range t.Emails {
			e := &t.Emails[i]
			if strings.Contains(strings.ToLower(e.From.Name), sender) ||
				strings.Contains(strings.ToLower(e.From.Address), sender) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.HasAttachments != nil {
		found := false
		for i := range t.Emails {
			if t.Emails[i].HasAttachments == *f.HasAttachments {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Sensitivity != nil {
		found := false
		for i := range t.Emails {
			if t.Emails[i].Sensitivity == *f.Sensitivity {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.DateRange != nil {
		d := t.LastMessageDate
		if d.Before(f.DateRange.Start) || d.After(f.DateRange.End) {
			return false
		}
	}

	return true
}
