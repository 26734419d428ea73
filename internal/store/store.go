package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smartinbox/smartinbox/internal/crypto"
	"github.com/smartinbox/smartinbox/internal/database"
	"github.com/smartinbox/smartinbox/internal/mail"
)

// ErrNotFound is returned when a requested record does not exist or does not
// belong to the requesting owner. The two cases are indistinguishable on
// purpose.
var ErrNotFound = errors.New("not found")

// Store is the corpus accessor. All reads are scoped by owner identity; no
// method accepts a pre-resolved account or thread without re-checking
// ownership in the query itself.
type Store struct {
	db  *database.DB
	enc *crypto.Encryptor
}

// New creates a Store. enc is used to protect provider tokens at rest.
func New(db *database.DB, enc *crypto.Encryptor) *Store {
	return &Store{db: db, enc: enc}
}

// ThreadsForOwner loads every thread reachable from the owner's accounts,
// with nested emails, addresses and attachments. A non-nil folder narrows the
// read to threads carrying that status flag; this is the single authoritative
// place folder filtering happens. Threads come back ordered by
// last_message_date descending, emails newest-first.
func (s *Store) ThreadsForOwner(ctx context.Context, ownerID string, folder *mail.Folder) ([]mail.Thread, error) {
	query := `
		SELECT t.id, t.account_id, t.subject, t.last_message_date, t.participant_ids,
		       t.inbox_status, t.draft_status, t.sent_status
		FROM threads t
		JOIN accounts a ON t.account_id = a.id
		WHERE a.owner_id = ?`
	args := []any{ownerID}

	if folder != nil {
		switch *folder {
		case mail.FolderInbox:
			query += " AND t.inbox_status"
		case mail.FolderSent:
			query += " AND t.sent_status"
		case mail.FolderDraft:
			query += " AND t.draft_status"
		}
	}
	query += " ORDER BY t.last_message_date DESC, t.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	threads := make([]mail.Thread, 0)
	for rows.Next() {
		var t mail.Thread
		var participants string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Subject, &t.LastMessageDate,
			&participants, &t.InboxStatus, &t.DraftStatus, &t.SentStatus); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.ParticipantIDs = splitParticipants(participants)
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}

	for i := range threads {
		emails, err := s.loadEmails(ctx, threads[i].ID, false)
		if err != nil {
			return nil, err
		}
		threads[i].Emails = emails
	}

	return threads, nil
}

// GetThread fetches a single thread scoped to the owner. Emails come back
// oldest-first so the conversation reads top to bottom.
func (s *Store) GetThread(ctx context.Context, ownerID, threadID string) (*mail.Thread, error) {
	var t mail.Thread
	var participants string
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.account_id, t.subject, t.last_message_date, t.participant_ids,
		       t.inbox_status, t.draft_status, t.sent_status
		FROM threads t
		JOIN accounts a ON t.account_id = a.id
		WHERE t.id = ? AND a.owner_id = ?
	`, threadID, ownerID).Scan(&t.ID, &t.AccountID, &t.Subject, &t.LastMessageDate,
		&participants, &t.InboxStatus, &t.DraftStatus, &t.SentStatus)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query thread: %w", err)
	}
	t.ParticipantIDs = splitParticipants(participants)

	emails, err := s.loadEmails(ctx, t.ID, true)
	if err != nil {
		return nil, err
	}
	t.Emails = emails

	return &t, nil
}

func (s *Store) loadEmails(ctx context.Context, threadID string, oldestFirst bool) ([]mail.Email, error) {
	order := "DESC"
	if oldestFirst {
		order = "ASC"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.thread_id, e.subject, e.body_snippet, e.body,
		       e.sent_at, e.received_at, e.has_attachments, e.label, e.sensitivity,
		       fa.name, fa.address
		FROM emails e
		JOIN email_addresses fa ON e.from_id = fa.id
		WHERE e.thread_id = ?
		ORDER BY e.sent_at `+order+`, e.id ASC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}
	defer rows.Close()

	emails := make([]mail.Email, 0)
	for rows.Next() {
		var e mail.Email
		var snippet, body, fromName sql.NullString
		if err := rows.Scan(&e.ID, &e.ThreadID, &e.Subject, &snippet, &body,
			&e.SentAt, &e.ReceivedAt, &e.HasAttachments, &e.Label, &e.Sensitivity,
			&fromName, &e.From.Address); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		e.BodySnippet = snippet.String
		e.Body = body.String
		e.From.Name = fromName.String
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}

	for i := range emails {
		if err := s.loadRecipients(ctx, &emails[i]); err != nil {
			return nil, err
		}
		if err := s.loadAttachments(ctx, &emails[i]); err != nil {
			return nil, err
		}
	}

	return emails, nil
}

func (s *Store) loadRecipients(ctx context.Context, e *mail.Email) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.name, a.address, r.kind
		FROM email_recipients r
		JOIN email_addresses a ON r.address_id = a.id
		WHERE r.email_id = ?
		ORDER BY r.kind, r.position
	`, e.ID)
	if err != nil {
		return fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr mail.Address
		var name sql.NullString
		var kind string
		if err := rows.Scan(&name, &addr.Address, &kind); err != nil {
			return fmt.Errorf("scan recipient: %w", err)
		}
		addr.Name = name.String
		switch kind {
		case "to":
			e.To = append(e.To, addr)
		case "cc":
			e.Cc = append(e.Cc, addr)
		case "bcc":
			e.Bcc = append(e.Bcc, addr)
		}
	}
	return rows.Err()
}

func (s *Store) loadAttachments(ctx context.Context, e *mail.Email) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, mime_type, size, inline
		FROM attachments
		WHERE email_id = ?
		ORDER BY name
	`, e.ID)
	if err != nil {
		return fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a mail.Attachment
		if err := rows.Scan(&a.ID, &a.Name, &a.MimeType, &a.Size, &a.Inline); err != nil {
			return fmt.Errorf("scan attachment: %w", err)
		}
		e.Attachments = append(e.Attachments, a)
	}
	return rows.Err()
}

func splitParticipants(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// AccountParams describes an account provisioned by the identity webhook or
// the IMAP importer.
type AccountParams struct {
	OwnerID      string
	Provider     string
	EmailAddress string
	Name         string
	Token        string
}

// UpsertAccount creates or refreshes the account for (owner, provider) and
// returns its id. The provider token is encrypted before it touches disk.
func (s *Store) UpsertAccount(ctx context.Context, p AccountParams) (string, error) {
	token, err := s.enc.Encrypt(p.Token)
	if err != nil {
		return "", fmt.Errorf("encrypt token: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, provider, email_address, name, token_encrypted)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, provider) DO UPDATE SET
			email_address = excluded.email_address,
			name = excluded.name,
			token_encrypted = excluded.token_encrypted,
			updated_at = CURRENT_TIMESTAMP
	`, id, p.OwnerID, p.Provider, p.EmailAddress, p.Name, token)
	if err != nil {
		return "", fmt.Errorf("upsert account: %w", err)
	}

	// The insert id is discarded on conflict, so read it back
	var accountID string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE owner_id = ? AND provider = ?",
		p.OwnerID, p.Provider).Scan(&accountID)
	if err != nil {
		return "", fmt.Errorf("select account: %w", err)
	}
	return accountID, nil
}

// EnsureAddress returns the id of the address row for (account, address),
// creating it when missing.
func (s *Store) EnsureAddress(ctx context.Context, accountID string, addr mail.Address) (string, error) {
	raw := addr.Address
	if addr.Name != "" {
		raw = fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_addresses (id, account_id, name, address, raw)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id, address) DO NOTHING
	`, uuid.NewString(), accountID, addr.Name, addr.Address, raw)
	if err != nil {
		return "", fmt.Errorf("insert address: %w", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM email_addresses WHERE account_id = ? AND address = ?",
		accountID, addr.Address).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("select address: %w", err)
	}
	return id, nil
}

// InsertThread stores the thread row. Emails are inserted separately with
// InsertEmail.
func (s *Store) InsertThread(ctx context.Context, t *mail.Thread) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, account_id, subject, last_message_date, participant_ids,
		                     inbox_status, draft_status, sent_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.AccountID, t.Subject, t.LastMessageDate, strings.Join(t.ParticipantIDs, ","),
		t.InboxStatus, t.DraftStatus, t.SentStatus)
	if err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// InsertEmail stores one email with its sender, recipients and attachments,
// and advances the thread's last_message_date when the email is newer.
func (s *Store) InsertEmail(ctx context.Context, accountID string, e *mail.Email) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	fromID, err := s.EnsureAddress(ctx, accountID, e.From)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emails (id, thread_id, subject, body_snippet, body, sent_at, received_at,
		                    has_attachments, label, sensitivity, from_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ThreadID, e.Subject, nullable(e.BodySnippet), nullable(e.Body),
		e.SentAt, e.ReceivedAt, e.HasAttachments, string(e.Label), string(e.Sensitivity), fromID)
	if err != nil {
		return fmt.Errorf("insert email: %w", err)
	}

	for kind, addrs := range map[string][]mail.Address{"to": e.To, "cc": e.Cc, "bcc": e.Bcc} {
		for i, addr := range addrs {
			addrID, err := s.EnsureAddress(ctx, accountID, addr)
			if err != nil {
				return err
			}
			_, err = s.db.ExecContext(ctx, `
				INSERT OR IGNORE INTO email_recipients (email_id, address_id, kind, position)
				VALUES (?, ?, ?, ?)
			`, e.ID, addrID, kind, i)
			if err != nil {
				return fmt.Errorf("insert recipient: %w", err)
			}
		}
	}

	for _, a := range e.Attachments {
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO attachments (id, email_id, name, mime_type, size, inline)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, e.ID, a.Name, a.MimeType, a.Size, a.Inline)
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE threads SET last_message_date = ?
		WHERE id = ? AND last_message_date < ?
	`, e.SentAt, e.ThreadID, e.SentAt)
	if err != nil {
		return fmt.Errorf("update thread date: %w", err)
	}

	return nil
}

// DeleteOwner removes every account, thread and session belonging to the
// owner. Used by the identity webhook on user deletion.
func (s *Store) DeleteOwner(ctx context.Context, ownerID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM accounts WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
