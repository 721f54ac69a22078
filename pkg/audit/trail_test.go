package audit

import (
	"path/filepath"
	"testing"

	"github.com/pigeonworks-llc/go-ledger/pkg/db"
	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

func openTrail(t *testing.T) *Trail {
	t.Helper()

	trail, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to open trail: %v", err)
	}
	t.Cleanup(func() {
		_ = trail.Close()
	})
	return trail
}

func TestRecordAndList(t *testing.T) {
	trail := openTrail(t)

	err := trail.RecordPosted(ledger.PostedSummary{
		EntryID:     1,
		EntryNumber: "JE-20240115-0001",
		Date:        "2024-01-15",
		Description: "cash sale",
		LineCount:   2,
		TotalDebit:  100,
		TotalCredit: 100,
	})
	if err != nil {
		t.Fatalf("RecordPosted() failed: %v", err)
	}

	err = trail.RecordReversed(ledger.ReversedSummary{
		EntryID:     1,
		EntryNumber: "JE-20240115-0001",
		Date:        "2024-01-15",
		Reason:      "duplicate posting",
	})
	if err != nil {
		t.Fatalf("RecordReversed() failed: %v", err)
	}

	events, err := trail.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("List() returned %d events, expected 2", len(events))
	}

	// Recording order is preserved.
	if events[0].Kind != KindPosted {
		t.Errorf("first event kind = %q, expected posted", events[0].Kind)
	}
	if events[1].Kind != KindReversed {
		t.Errorf("second event kind = %q, expected reversed", events[1].Kind)
	}
	if events[1].Reason != "duplicate posting" {
		t.Errorf("reversed event reason = %q", events[1].Reason)
	}

	// Every event carries a unique ID and a timestamp.
	if events[0].ID == "" || events[0].ID == events[1].ID {
		t.Error("event IDs should be unique and non-empty")
	}
	if events[0].RecordedAt.IsZero() {
		t.Error("event timestamp should be set")
	}
}

// A trail wired as poster hooks must hold the events once the poster
// is drained, so a process can close the trail right after posting
// without losing them.
func TestHookedTrailDurableAfterDrain(t *testing.T) {
	trail := openTrail(t)

	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	accounts := ledger.NewAccounts(conn)
	cash, err := accounts.Create("1000", "Cash", ledger.AccountAsset)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	revenue, err := accounts.Create("4000", "Sales Revenue", ledger.AccountIncome)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	onPosted, onReversed := trail.Hooks()
	poster := ledger.NewPoster(conn, ledger.PosterConfig{
		OnPosted:   onPosted,
		OnReversed: onReversed,
	})

	entry, err := poster.Post(ledger.EntryHeader{
		Date:          "2024-01-15",
		Description:   "cash sale",
		ReferenceType: ledger.ReferenceJournal,
		CreatedBy:     "tester",
	}, []ledger.Line{
		{AccountID: cash.ID, Debit: 100},
		{AccountID: revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}
	if err := poster.Reverse(entry.ID, "undo"); err != nil {
		t.Fatalf("Reverse() failed: %v", err)
	}

	poster.Wait()

	events, err := trail.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("List() returned %d events after drain, expected 2", len(events))
	}
	if events[0].Kind != KindPosted || events[1].Kind != KindReversed {
		t.Errorf("event kinds = %q, %q; expected posted then reversed", events[0].Kind, events[1].Kind)
	}
}

func TestHooksSwallowNothingOnSuccess(t *testing.T) {
	trail := openTrail(t)

	onPosted, onReversed := trail.Hooks()
	onPosted(ledger.PostedSummary{EntryID: 7, EntryNumber: "JE-20240201-0001", Date: "2024-02-01"})
	onReversed(ledger.ReversedSummary{EntryID: 7, EntryNumber: "JE-20240201-0001", Date: "2024-02-01", Reason: "undo"})

	events, err := trail.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("List() returned %d events, expected 2", len(events))
	}
}
