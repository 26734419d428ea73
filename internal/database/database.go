package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	migrations := []string{
		migrationAccounts,
		migrationEmailAddresses,
		migrationThreads,
		migrationEmails,
		migrationEmailRecipients,
		migrationAttachments,
		migrationSessions,
		migrationChatInteractions,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Migration SQL statements

// An account links one mail provider mailbox to an owning principal. The
// provider token is stored AES-GCM encrypted.
const migrationAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    email_address TEXT NOT NULL,
    name TEXT,
    token_encrypted TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(owner_id, provider)
);
CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id);
`

const migrationEmailAddresses = `
CREATE TABLE IF NOT EXISTS email_addresses (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    name TEXT,
    address TEXT NOT NULL,
    raw TEXT,
    UNIQUE(account_id, address)
);
CREATE INDEX IF NOT EXISTS idx_email_addresses_account ON email_addresses(account_id);
`

const migrationThreads = `
CREATE TABLE IF NOT EXISTS threads (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    subject TEXT NOT NULL,
    last_message_date DATETIME NOT NULL,
    participant_ids TEXT NOT NULL DEFAULT '',
    inbox_status BOOLEAN NOT NULL DEFAULT TRUE,
    draft_status BOOLEAN NOT NULL DEFAULT FALSE,
    sent_status BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_threads_account ON threads(account_id);
CREATE INDEX IF NOT EXISTS idx_threads_last_message ON threads(last_message_date);
`

const migrationEmails = `
CREATE TABLE IF NOT EXISTS emails (
    id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
    subject TEXT NOT NULL,
    body_snippet TEXT,
    body TEXT,
    sent_at DATETIME NOT NULL,
    received_at DATETIME NOT NULL,
    has_attachments BOOLEAN NOT NULL DEFAULT FALSE,
    label TEXT NOT NULL CHECK (label IN ('inbox', 'sent', 'draft')),
    sensitivity TEXT NOT NULL DEFAULT 'normal'
        CHECK (sensitivity IN ('normal', 'private', 'personal', 'confidential')),
    from_id TEXT NOT NULL REFERENCES email_addresses(id)
);
CREATE INDEX IF NOT EXISTS idx_emails_thread ON emails(thread_id);
CREATE INDEX IF NOT EXISTS idx_emails_sent_at ON emails(sent_at);
`

const migrationEmailRecipients = `
CREATE TABLE IF NOT EXISTS email_recipients (
    email_id TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
    address_id TEXT NOT NULL REFERENCES email_addresses(id),
    kind TEXT NOT NULL CHECK (kind IN ('to', 'cc', 'bcc')),
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY(email_id, address_id, kind)
);
CREATE INDEX IF NOT EXISTS idx_email_recipients_email ON email_recipients(email_id);
`

const migrationAttachments = `
CREATE TABLE IF NOT EXISTS attachments (
    id TEXT PRIMARY KEY,
    email_id TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    inline BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_attachments_email ON attachments(email_id);
`

// Sessions are provisioned by the identity provider webhook, never by a
// password login path.
const migrationSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    token_hash TEXT NOT NULL UNIQUE,
    owner_id TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    expires_at DATETIME NOT NULL,
    last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
    ip_address TEXT,
    user_agent TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token_hash);
CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

const migrationChatInteractions = `
CREATE TABLE IF NOT EXISTS chat_interactions (
    owner_id TEXT NOT NULL,
    day TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY(owner_id, day)
);
`
