package ledger

import (
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pigeonworks-llc/go-ledger/pkg/db"
)

type testLedger struct {
	conn     *db.Connection
	poster   *Poster
	accounts *Accounts

	cash    *Account
	bank    *Account
	revenue *Account
	rent    *Account
	payable *Account
}

func setupLedger(t *testing.T, config PosterConfig) *testLedger {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	accounts := NewAccounts(conn)
	tl := &testLedger{
		conn:     conn,
		poster:   NewPoster(conn, config),
		accounts: accounts,
	}

	seed := func(code, name string, accountType AccountType) *Account {
		acct, err := accounts.Create(code, name, accountType)
		if err != nil {
			t.Fatalf("failed to seed account %s: %v", code, err)
		}
		return acct
	}

	tl.cash = seed("1000", "Cash", AccountAsset)
	tl.bank = seed("1100", "Bank Checking", AccountAsset)
	tl.revenue = seed("4000", "Sales Revenue", AccountIncome)
	tl.rent = seed("6000", "Rent Expense", AccountExpense)
	tl.payable = seed("2000", "Accounts Payable", AccountLiability)

	return tl
}

func (tl *testLedger) balance(t *testing.T, id int64) float64 {
	t.Helper()
	acct, err := tl.accounts.Get(id)
	if err != nil {
		t.Fatalf("failed to get account %d: %v", id, err)
	}
	return acct.Balance
}

func manualHeader(date, description string) EntryHeader {
	return EntryHeader{
		Date:          date,
		Description:   description,
		ReferenceType: ReferenceJournal,
		CreatedBy:     "tester",
	}
}

func TestPostBalancedEntry(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	entry, err := tl.poster.Post(manualHeader("2024-01-15", "cash sale"), []Line{
		{AccountID: tl.cash.ID, Debit: 100},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	if entry.EntryNumber != "JE-20240115-0001" {
		t.Errorf("entry number = %q, expected JE-20240115-0001", entry.EntryNumber)
	}
	if len(entry.Lines) != 2 {
		t.Fatalf("entry has %d lines, expected 2", len(entry.Lines))
	}

	// Debit-normal cash and credit-normal revenue both increase.
	if got := tl.balance(t, tl.cash.ID); got != 100 {
		t.Errorf("cash balance = %v, expected 100", got)
	}
	if got := tl.balance(t, tl.revenue.ID); got != 100 {
		t.Errorf("revenue balance = %v, expected 100", got)
	}
}

func TestPostBalanceDeltasPerNormalSide(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	// Rent paid from bank: expense up, asset down on the credit side.
	_, err := tl.poster.Post(manualHeader("2024-02-01", "february rent"), []Line{
		{AccountID: tl.rent.ID, Debit: 1200},
		{AccountID: tl.bank.ID, Credit: 1200},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	if got := tl.balance(t, tl.rent.ID); got != 1200 {
		t.Errorf("rent expense balance = %v, expected 1200", got)
	}
	if got := tl.balance(t, tl.bank.ID); got != -1200 {
		t.Errorf("bank balance = %v, expected -1200", got)
	}

	// Bill received: liability increases with its credit.
	_, err = tl.poster.Post(manualHeader("2024-02-02", "utility bill"), []Line{
		{AccountID: tl.rent.ID, Debit: 300},
		{AccountID: tl.payable.ID, Credit: 300},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	if got := tl.balance(t, tl.payable.ID); got != 300 {
		t.Errorf("payable balance = %v, expected 300", got)
	}
}

func TestPostValidationFailures(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	tests := []struct {
		name   string
		header EntryHeader
		lines  []Line
	}{
		{
			"imbalanced lines",
			manualHeader("2024-01-15", "imbalanced"),
			[]Line{
				{AccountID: tl.cash.ID, Debit: 100},
				{AccountID: tl.revenue.ID, Credit: 90},
			},
		},
		{
			"single line",
			manualHeader("2024-01-15", "one-sided"),
			[]Line{{AccountID: tl.cash.ID, Debit: 100}},
		},
		{
			"no lines",
			manualHeader("2024-01-15", "empty"),
			nil,
		},
		{
			"line with both sides",
			manualHeader("2024-01-15", "both sides"),
			[]Line{
				{AccountID: tl.cash.ID, Debit: 100, Credit: 100},
				{AccountID: tl.revenue.ID, Credit: 100},
			},
		},
		{
			"line with neither side",
			manualHeader("2024-01-15", "neither side"),
			[]Line{
				{AccountID: tl.cash.ID},
				{AccountID: tl.revenue.ID, Credit: 0},
			},
		},
		{
			"negative amount",
			manualHeader("2024-01-15", "negative"),
			[]Line{
				{AccountID: tl.cash.ID, Debit: -100},
				{AccountID: tl.revenue.ID, Credit: -100},
			},
		},
		{
			"bad date",
			manualHeader("01/15/2024", "bad date"),
			[]Line{
				{AccountID: tl.cash.ID, Debit: 100},
				{AccountID: tl.revenue.ID, Credit: 100},
			},
		},
		{
			"unknown reference type",
			EntryHeader{Date: "2024-01-15", Description: "bad ref", ReferenceType: "Webhook", CreatedBy: "tester"},
			[]Line{
				{AccountID: tl.cash.ID, Debit: 100},
				{AccountID: tl.revenue.ID, Credit: 100},
			},
		},
		{
			"unknown account",
			manualHeader("2024-01-15", "missing account"),
			[]Line{
				{AccountID: 9999, Debit: 100},
				{AccountID: tl.revenue.ID, Credit: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tl.poster.Post(tt.header, tt.lines)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Post() error = %v, expected *ValidationError", err)
			}

			// No balance may move and no entry may persist.
			if got := tl.balance(t, tl.cash.ID); got != 0 {
				t.Errorf("cash balance = %v after rejected post, expected 0", got)
			}
			if got := tl.balance(t, tl.revenue.ID); got != 0 {
				t.Errorf("revenue balance = %v after rejected post, expected 0", got)
			}

			stats, err := tl.poster.Stats()
			if err != nil {
				t.Fatalf("Stats() failed: %v", err)
			}
			if stats.TotalEntries != 0 {
				t.Errorf("%d entries persisted after rejected post, expected 0", stats.TotalEntries)
			}
		})
	}
}

func TestPostInactiveAccount(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	if err := tl.accounts.SetActive(tl.revenue.ID, false); err != nil {
		t.Fatalf("SetActive() failed: %v", err)
	}

	_, err := tl.poster.Post(manualHeader("2024-01-15", "inactive account"), []Line{
		{AccountID: tl.cash.ID, Debit: 100},
		{AccountID: tl.revenue.ID, Credit: 100},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Post() error = %v, expected *ValidationError", err)
	}
}

func TestEntryNumbersSequencePerDay(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	post := func(date string) string {
		t.Helper()
		entry, err := tl.poster.Post(manualHeader(date, "seq test"), []Line{
			{AccountID: tl.cash.ID, Debit: 10},
			{AccountID: tl.revenue.ID, Credit: 10},
		})
		if err != nil {
			t.Fatalf("Post() failed: %v", err)
		}
		return entry.EntryNumber
	}

	if got := post("2024-03-01"); got != "JE-20240301-0001" {
		t.Errorf("first entry number = %q", got)
	}
	if got := post("2024-03-01"); got != "JE-20240301-0002" {
		t.Errorf("second entry number = %q", got)
	}
	if got := post("2024-03-02"); got != "JE-20240302-0001" {
		t.Errorf("next-day entry number = %q", got)
	}

	// A failed post must not consume a sequence number.
	_, err := tl.poster.Post(manualHeader("2024-03-01", "rejected"), []Line{
		{AccountID: tl.cash.ID, Debit: 10},
		{AccountID: tl.revenue.ID, Credit: 5},
	})
	if err == nil {
		t.Fatal("Post() should have failed")
	}
	if got := post("2024-03-01"); got != "JE-20240301-0003" {
		t.Errorf("entry number after rejected post = %q, expected JE-20240301-0003", got)
	}
}

func TestReverseRestoresBalances(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	// Establish non-zero starting balances.
	_, err := tl.poster.Post(manualHeader("2024-01-01", "opening"), []Line{
		{AccountID: tl.cash.ID, Debit: 500},
		{AccountID: tl.revenue.ID, Credit: 500},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	cashBefore := tl.balance(t, tl.cash.ID)
	revenueBefore := tl.balance(t, tl.revenue.ID)

	entry, err := tl.poster.Post(manualHeader("2024-01-10", "to be reversed"), []Line{
		{AccountID: tl.cash.ID, Debit: 250},
		{AccountID: tl.revenue.ID, Credit: 250},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	if err := tl.poster.Reverse(entry.ID, "duplicate posting"); err != nil {
		t.Fatalf("Reverse() failed: %v", err)
	}

	if got := tl.balance(t, tl.cash.ID); got != cashBefore {
		t.Errorf("cash balance = %v after reverse, expected %v", got, cashBefore)
	}
	if got := tl.balance(t, tl.revenue.ID); got != revenueBefore {
		t.Errorf("revenue balance = %v after reverse, expected %v", got, revenueBefore)
	}

	// The entry is gone.
	if _, err := tl.poster.GetEntry(entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("GetEntry() after reverse = %v, expected ErrEntryNotFound", err)
	}
}

func TestReverseRejectsNonManualEntries(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	refID := int64(77)
	entry, err := tl.poster.Post(EntryHeader{
		Date:          "2024-01-15",
		Description:   "invoice revenue",
		ReferenceType: ReferenceInvoice,
		ReferenceID:   &refID,
		CreatedBy:     "billing",
	}, []Line{
		{AccountID: tl.cash.ID, Debit: 100},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	if err := tl.poster.Reverse(entry.ID, "attempted void"); !errors.Is(err, ErrNotReversible) {
		t.Errorf("Reverse() error = %v, expected ErrNotReversible", err)
	}

	// Entry and balances untouched.
	if _, err := tl.poster.GetEntry(entry.ID); err != nil {
		t.Errorf("GetEntry() after refused reverse failed: %v", err)
	}
	if got := tl.balance(t, tl.cash.ID); got != 100 {
		t.Errorf("cash balance = %v, expected 100", got)
	}
}

func TestReverseMissingEntry(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	if err := tl.poster.Reverse(12345, "no such entry"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Reverse() error = %v, expected ErrEntryNotFound", err)
	}
}

func TestVerifyEntry(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	entry, err := tl.poster.Post(manualHeader("2024-01-15", "verify me"), []Line{
		{AccountID: tl.cash.ID, Debit: 60},
		{AccountID: tl.bank.ID, Debit: 40},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	balanced, err := tl.poster.VerifyEntry(entry.ID)
	if err != nil {
		t.Fatalf("VerifyEntry() failed: %v", err)
	}
	if !balanced {
		t.Error("VerifyEntry() = false for a posted entry")
	}
}

func TestListEntriesDateFilter(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	for _, date := range []string{"2024-01-10", "2024-02-10", "2024-03-10"} {
		_, err := tl.poster.Post(manualHeader(date, "entry "+date), []Line{
			{AccountID: tl.cash.ID, Debit: 10},
			{AccountID: tl.revenue.ID, Credit: 10},
		})
		if err != nil {
			t.Fatalf("Post() failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		from, to string
		expected int
	}{
		{"open range", "", "", 3},
		{"from only", "2024-02-01", "", 2},
		{"to only", "", "2024-01-31", 1},
		{"bounded", "2024-02-01", "2024-02-28", 1},
		{"empty window", "2024-05-01", "2024-05-31", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := tl.poster.ListEntries(tt.from, tt.to)
			if err != nil {
				t.Fatalf("ListEntries() failed: %v", err)
			}
			if len(entries) != tt.expected {
				t.Errorf("ListEntries() returned %d entries, expected %d", len(entries), tt.expected)
			}
		})
	}
}

func TestPostedAndReversedHooks(t *testing.T) {
	posted := make(chan PostedSummary, 1)
	reversed := make(chan ReversedSummary, 1)

	tl := setupLedger(t, PosterConfig{
		OnPosted:   func(s PostedSummary) { posted <- s },
		OnReversed: func(s ReversedSummary) { reversed <- s },
	})

	entry, err := tl.poster.Post(manualHeader("2024-01-15", "hooked"), []Line{
		{AccountID: tl.cash.ID, Debit: 100},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	select {
	case s := <-posted:
		if s.EntryID != entry.ID || s.TotalDebit != 100 || s.LineCount != 2 {
			t.Errorf("unexpected posted summary: %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("posted hook not called")
	}

	if err := tl.poster.Reverse(entry.ID, "undo"); err != nil {
		t.Fatalf("Reverse() failed: %v", err)
	}

	select {
	case s := <-reversed:
		if s.EntryID != entry.ID || s.Reason != "undo" {
			t.Errorf("unexpected reversed summary: %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reversed hook not called")
	}
}

func TestWaitDrainsHooks(t *testing.T) {
	var recorded atomic.Int32

	tl := setupLedger(t, PosterConfig{
		OnPosted:   func(PostedSummary) { recorded.Add(1) },
		OnReversed: func(ReversedSummary) { recorded.Add(1) },
	})

	entry, err := tl.poster.Post(manualHeader("2024-01-15", "drained"), []Line{
		{AccountID: tl.cash.ID, Debit: 100},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	// Hooks run asynchronously, so the event may not exist yet. After
	// Wait it must.
	tl.poster.Wait()
	if got := recorded.Load(); got != 1 {
		t.Fatalf("recorded = %d after Post and Wait, expected 1", got)
	}

	if err := tl.poster.Reverse(entry.ID, "undo"); err != nil {
		t.Fatalf("Reverse() failed: %v", err)
	}
	tl.poster.Wait()
	if got := recorded.Load(); got != 2 {
		t.Fatalf("recorded = %d after Reverse and Wait, expected 2", got)
	}
}

func TestSequenceQueryPerDriver(t *testing.T) {
	if q := sequenceQuery(db.DriverMySQL); !strings.HasSuffix(q, "FOR UPDATE") {
		t.Errorf("mysql sequence query %q does not lock the row", q)
	}
	if q := sequenceQuery(db.DriverSQLite); strings.Contains(q, "FOR UPDATE") {
		t.Errorf("sqlite sequence query %q should not use FOR UPDATE", q)
	}
}

func TestPostRoundTripsOptionalFields(t *testing.T) {
	tl := setupLedger(t, PosterConfig{})

	refID := int64(42)
	posted, err := tl.poster.Post(EntryHeader{
		Date:          "2024-01-15",
		Description:   "invoice 42",
		ReferenceType: ReferenceInvoice,
		ReferenceID:   &refID,
		CreatedBy:     "billing",
	}, []Line{
		{AccountID: tl.cash.ID, Debit: 100, Description: "cash received"},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	entry, err := tl.poster.GetEntry(posted.ID)
	if err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}

	if entry.ReferenceID == nil || *entry.ReferenceID != 42 {
		t.Errorf("ReferenceID = %v, expected 42", entry.ReferenceID)
	}
	if got := entry.Lines[0].Description; got == nil || *got != "cash received" {
		t.Errorf("line 1 description = %v, expected %q", got, "cash received")
	}
	if got := entry.Lines[1].Description; got != nil {
		t.Errorf("line 2 description = %q, expected nil", *got)
	}
}

func TestCustomEpsilon(t *testing.T) {
	tl := setupLedger(t, PosterConfig{Epsilon: 1.0})

	// A whole-unit epsilon admits sub-unit drift.
	_, err := tl.poster.Post(manualHeader("2024-01-15", "loose epsilon"), []Line{
		{AccountID: tl.cash.ID, Debit: 100.5},
		{AccountID: tl.revenue.ID, Credit: 100},
	})
	if err != nil {
		t.Fatalf("Post() with epsilon 1.0 failed: %v", err)
	}
}
