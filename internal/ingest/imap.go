// Package ingest pulls recent mail from an IMAP mailbox into the local
// store, one owner at a time. It is run on demand from the command line
// rather than as a background daemon.
package ingest

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/store"
)

// fetchLimit caps how many messages one run pulls from the mailbox.
const fetchLimit = 100

// replyPrefix strips reply and forward markers when grouping messages into
// threads by subject.
var replyPrefix = regexp.MustCompile(`(?i)^\s*((re|fwd?|aw)\s*:\s*)+`)

// Options describe the mailbox to import from.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string // defaults to INBOX
}

// Importer copies messages from an IMAP server into the store.
type Importer struct {
	store     *store.Store
	sanitizer *mail.Sanitizer
}

func NewImporter(st *store.Store) *Importer {
	return &Importer{store: st, sanitizer: mail.NewSanitizer()}
}

// Run imports the most recent messages for one owner. The IMAP password is
// stored encrypted on the owner's account so later runs can reuse it.
func (im *Importer) Run(ctx context.Context, ownerID string, opts Options) error {
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}

	accountID, err := im.store.UpsertAccount(ctx, store.AccountParams{
		OwnerID:      ownerID,
		Provider:     "imap",
		EmailAddress: opts.Username,
		Token:        opts.Password,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	c, err := client.DialTLS(addr, &tls.Config{
		ServerName: opts.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer c.Logout() //nolint:errcheck

	if err := c.Login(opts.Username, opts.Password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}

	mbox, err := c.Select(opts.Mailbox, true)
	if err != nil {
		return fmt.Errorf("select %s: %w", opts.Mailbox, err)
	}
	if mbox.Messages == 0 {
		log.Info().Str("mailbox", opts.Mailbox).Msg("mailbox is empty, nothing to import")
		return nil
	}

	start := uint32(1)
	if mbox.Messages > fetchLimit {
		start = mbox.Messages - fetchLimit + 1
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddRange(start, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	threads := make(map[string]string) // normalized subject -> thread id
	imported := 0
	for msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		email, err := im.parseMessage(msg, section)
		if err != nil {
			log.Warn().Err(err).Msg("skipping unparseable message")
			continue
		}
		if err := im.storeEmail(ctx, accountID, threads, email); err != nil {
			return err
		}
		imported++
	}
	if err := <-done; err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}

	log.Info().Int("imported", imported).Str("mailbox", opts.Mailbox).Msg("import finished")
	return nil
}

// parseMessage converts one fetched message into the local email model. The
// body is MIME-decoded and the snippet is derived from the sanitized text.
func (im *Importer) parseMessage(msg *imap.Message, section *imap.BodySectionName) (*mail.Email, error) {
	if msg.Envelope == nil {
		return nil, fmt.Errorf("message %d has no envelope", msg.SeqNum)
	}

	email := &mail.Email{
		Subject:     msg.Envelope.Subject,
		SentAt:      msg.Envelope.Date,
		ReceivedAt:  msg.InternalDate,
		Label:       mail.FolderInbox,
		Sensitivity: mail.SensitivityNormal,
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = email.SentAt
	}

	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		email.From = mail.Address{Name: from.PersonalName, Address: from.Address()}
	}
	for _, to := range msg.Envelope.To {
		email.To = append(email.To, mail.Address{Name: to.PersonalName, Address: to.Address()})
	}
	for _, cc := range msg.Envelope.Cc {
		email.Cc = append(email.Cc, mail.Address{Name: cc.PersonalName, Address: cc.Address()})
	}

	literal := msg.GetBody(section)
	if literal == nil {
		return email, nil
	}
	raw, err := io.ReadAll(literal)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		// Undecodable MIME still yields a usable snippet from the raw text
		email.BodySnippet = im.sanitizer.Snippet(string(raw), 150)
		return email, nil
	}

	if env.HTML != "" {
		email.Body = env.HTML
		email.BodySnippet = im.sanitizer.Snippet(env.HTML, 150)
	} else {
		email.Body = env.Text
		email.BodySnippet = im.sanitizer.Snippet(env.Text, 150)
	}
	for _, att := range env.Attachments {
		email.HasAttachments = true
		email.Attachments = append(email.Attachments, mail.Attachment{
			Name:     att.FileName,
			MimeType: att.ContentType,
			Size:     int64(len(att.Content)),
		})
	}
	return email, nil
}

// storeEmail files the email under the thread matching its normalized
// subject, creating the thread on first sight.
func (im *Importer) storeEmail(ctx context.Context, accountID string, threads map[string]string, email *mail.Email) error {
	key := normalizeSubject(email.Subject)
	threadID, ok := threads[key]
	if !ok {
		thread := &mail.Thread{
			AccountID:       accountID,
			Subject:         email.Subject,
			LastMessageDate: email.SentAt,
			InboxStatus:     true,
		}
		if err := im.store.InsertThread(ctx, thread); err != nil {
			return err
		}
		threadID = thread.ID
		threads[key] = threadID
	}

	email.ThreadID = threadID
	return im.store.InsertEmail(ctx, accountID, email)
}

// normalizeSubject lowers the subject and strips reply markers so replies
// land in the same thread as the original message.
func normalizeSubject(subject string) string {
	s := replyPrefix.ReplaceAllString(subject, "")
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "(no subject)"
	}
	return s
}
