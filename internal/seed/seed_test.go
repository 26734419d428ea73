package seed

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartinbox/smartinbox/internal/crypto"
	"github.com/smartinbox/smartinbox/internal/database"
	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "seed_test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	enc, err := crypto.NewEncryptor(strings.Repeat("s", 32))
	if err != nil {
		t.Fatalf("encryptor: %v", err)
	}
	return store.New(db, enc)
}

func TestRunCreatesSampleMailbox(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := Run(ctx, st, "owner1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	all, err := st.ThreadsForOwner(ctx, "owner1", nil)
	if err != nil {
		t.Fatalf("ThreadsForOwner: %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("got %d threads, want 8", len(all))
	}

	counts := map[mail.Folder]int{}
	for _, f := range []mail.Folder{mail.FolderInbox, mail.FolderDraft, mail.FolderSent} {
		folder := f
		threads, err := st.ThreadsForOwner(ctx, "owner1", &folder)
		if err != nil {
			t.Fatalf("ThreadsForOwner(%s): %v", folder, err)
		}
		counts[f] = len(threads)
	}
	if counts[mail.FolderInbox] != 6 || counts[mail.FolderDraft] != 1 || counts[mail.FolderSent] != 1 {
		t.Errorf("folder counts = %v, want 6 inbox, 1 draft, 1 sent", counts)
	}
}

func TestRunQ4ThreadShape(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := Run(ctx, st, "owner1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	all, err := st.ThreadsForOwner(ctx, "owner1", nil)
	if err != nil {
		t.Fatalf("ThreadsForOwner: %v", err)
	}

	var q4 *mail.Thread
	var confidential *mail.Thread
	for i := range all {
		if strings.HasPrefix(all[i].Subject, "Q4 Project Update") {
			q4 = &all[i]
		}
		if strings.Contains(all[i].Subject, "Confidential") {
			confidential = &all[i]
		}
	}
	if q4 == nil {
		t.Fatal("Q4 project thread missing")
	}
	if len(q4.Emails) != 1 {
		t.Fatalf("Q4 thread has %d emails, want 1", len(q4.Emails))
	}
	email := q4.Emails[0]
	if !email.HasAttachments || len(email.Attachments) != 1 || email.Attachments[0].Name != "Q4_Report.pdf" {
		t.Errorf("Q4 attachment = %+v", email.Attachments)
	}
	if email.From.Name != "John Smith" {
		t.Errorf("Q4 sender = %+v", email.From)
	}

	if confidential == nil {
		t.Fatal("confidential thread missing")
	}
	if confidential.Emails[0].Sensitivity != mail.SensitivityConfidential {
		t.Errorf("sensitivity = %s, want confidential", confidential.Emails[0].Sensitivity)
	}
}

func TestRunDeterministicAcrossOwners(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := Run(ctx, st, "owner1"); err != nil {
		t.Fatalf("Run owner1: %v", err)
	}
	if err := Run(ctx, st, "owner2"); err != nil {
		t.Fatalf("Run owner2: %v", err)
	}

	first, err := st.ThreadsForOwner(ctx, "owner1", nil)
	if err != nil {
		t.Fatalf("ThreadsForOwner: %v", err)
	}
	second, err := st.ThreadsForOwner(ctx, "owner2", nil)
	if err != nil {
		t.Fatalf("ThreadsForOwner: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("owners got different corpora: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Subject != second[i].Subject {
			t.Errorf("subject mismatch at %d: %q vs %q", i, first[i].Subject, second[i].Subject)
		}
	}
}
