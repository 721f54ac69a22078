package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pigeonworks-llc/go-ledger/pkg/db"
)

// PostedSummary describes a committed entry, as passed to the audit hook.
type PostedSummary struct {
	EntryID       int64
	EntryNumber   string
	Date          string
	Description   string
	ReferenceType ReferenceType
	CreatedBy     string
	LineCount     int
	TotalDebit    float64
	TotalCredit   float64
}

// ReversedSummary describes a reversed entry, as passed to the audit hook.
type ReversedSummary struct {
	EntryID     int64
	EntryNumber string
	Date        string
	Reason      string
}

// PosterConfig configures a Poster.
type PosterConfig struct {
	// Epsilon is the balance tolerance in currency units.
	// Default: DefaultEpsilon (0.01).
	Epsilon float64

	// OnPosted is called after a successful commit. It runs on its own
	// goroutine and is not part of the atomic unit; failures inside the
	// hook are the hook's problem. Hook goroutines are tracked, and
	// Poster.Wait drains them.
	OnPosted func(PostedSummary)

	// OnReversed is called after a successful reversal, same contract
	// as OnPosted.
	OnReversed func(ReversedSummary)
}

// Poster posts and reverses journal entries.
type Poster struct {
	conn       *db.Connection
	epsilon    float64
	onPosted   func(PostedSummary)
	onReversed func(ReversedSummary)
	hooks      sync.WaitGroup
}

// NewPoster creates a new Poster.
func NewPoster(conn *db.Connection, config PosterConfig) *Poster {
	epsilon := config.Epsilon
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	return &Poster{
		conn:       conn,
		epsilon:    epsilon,
		onPosted:   config.OnPosted,
		onReversed: config.OnReversed,
	}
}

// Post validates and persists a journal entry, updating every referenced
// account's running balance inside one transaction. On any failure the
// transaction rolls back in full; callers never observe a partially
// posted entry.
func (p *Poster) Post(header EntryHeader, lines []Line) (*JournalEntry, error) {
	if err := p.validate(header, lines); err != nil {
		return nil, err
	}

	var entry *JournalEntry
	err := p.conn.Transaction(func(tx *sql.Tx) error {
		// Resolve accounts first so validation failures surface
		// before any write.
		accounts := make(map[int64]*Account, len(lines))
		for _, line := range lines {
			if _, ok := accounts[line.AccountID]; ok {
				continue
			}
			acct, err := getAccountTx(tx, line.AccountID)
			if err == ErrAccountNotFound {
				return validationErrorf("account %d does not exist", line.AccountID)
			}
			if err != nil {
				return err
			}
			if !acct.Active {
				return validationErrorf("account %s (%s) is inactive", acct.Code, acct.Name)
			}
			accounts[line.AccountID] = acct
		}

		entryNumber, err := nextEntryNumber(tx, p.conn.Driver(), header.Date)
		if err != nil {
			return err
		}

		result, err := tx.Exec(`
			INSERT INTO journal_entries (entry_number, entry_date, description, reference_type, reference_id, created_by)
			VALUES (?, ?, ?, ?, ?, ?)
		`, entryNumber, header.Date, header.Description, string(header.ReferenceType), header.ReferenceID, header.CreatedBy)
		if err != nil {
			return fmt.Errorf("failed to insert entry header: %w", err)
		}

		entryID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get entry id: %w", err)
		}

		for i, line := range lines {
			var desc interface{}
			if line.Description != "" {
				desc = line.Description
			}

			if _, err := tx.Exec(`
				INSERT INTO journal_lines (entry_id, line_no, account_id, debit, credit, description)
				VALUES (?, ?, ?, ?, ?, ?)
			`, entryID, i+1, line.AccountID, line.Debit, line.Credit, desc); err != nil {
				return fmt.Errorf("failed to insert line %d: %w", i+1, err)
			}

			delta := balanceDelta(line, accounts[line.AccountID].Type.DebitNormal())
			if _, err := tx.Exec(
				`UPDATE accounts SET balance = balance + ? WHERE id = ?`,
				delta, line.AccountID,
			); err != nil {
				return fmt.Errorf("failed to update balance for account %d: %w", line.AccountID, err)
			}
		}

		loaded, err := getEntryTx(tx, entryID)
		if err != nil {
			return err
		}
		entry = loaded
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "post", Err: err}
	}

	debit, credit := Totals(lines)
	slog.Info("journal entry posted",
		"entry_id", entry.ID,
		"entry_number", entry.EntryNumber,
		"date", entry.Date,
		"lines", len(lines),
		"total", debit,
	)

	if p.onPosted != nil {
		summary := PostedSummary{
			EntryID:       entry.ID,
			EntryNumber:   entry.EntryNumber,
			Date:          entry.Date,
			Description:   entry.Description,
			ReferenceType: entry.ReferenceType,
			CreatedBy:     entry.CreatedBy,
			LineCount:     len(lines),
			TotalDebit:    debit,
			TotalCredit:   credit,
		}
		p.dispatch(func() { p.onPosted(summary) })
	}

	return entry, nil
}

// Wait blocks until every in-flight post-commit hook has returned.
// Callers must drain the poster before closing the stores the hooks
// write to, or a process exiting right after Post can lose the event.
func (p *Poster) Wait() {
	p.hooks.Wait()
}

// dispatch runs a hook on its own goroutine, tracked so Wait can
// drain it.
func (p *Poster) dispatch(hook func()) {
	p.hooks.Add(1)
	go func() {
		defer p.hooks.Done()
		hook()
	}()
}

// Reverse undoes a manually created entry: every affected account balance
// is restored by the inverse delta, then the lines and header are deleted.
// Only entries with reference type Journal are reversible.
func (p *Poster) Reverse(entryID int64, reason string) error {
	var summary ReversedSummary
	err := p.conn.Transaction(func(tx *sql.Tx) error {
		entry, err := getEntryTx(tx, entryID)
		if err != nil {
			return err
		}
		if entry.ReferenceType != ReferenceJournal {
			return fmt.Errorf("%w: entry %s has reference type %s",
				ErrNotReversible, entry.EntryNumber, entry.ReferenceType)
		}

		for _, stored := range entry.Lines {
			acct, err := getAccountTx(tx, stored.AccountID)
			if err != nil {
				return err
			}

			// Swap debit/credit roles to apply the inverse delta.
			inverse := Line{
				AccountID: stored.AccountID,
				Debit:     stored.Credit,
				Credit:    stored.Debit,
			}
			delta := balanceDelta(inverse, acct.Type.DebitNormal())
			if _, err := tx.Exec(
				`UPDATE accounts SET balance = balance + ? WHERE id = ?`,
				delta, stored.AccountID,
			); err != nil {
				return fmt.Errorf("failed to restore balance for account %d: %w", stored.AccountID, err)
			}
		}

		if _, err := tx.Exec(`DELETE FROM journal_lines WHERE entry_id = ?`, entryID); err != nil {
			return fmt.Errorf("failed to delete lines: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM journal_entries WHERE id = ?`, entryID); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		summary = ReversedSummary{
			EntryID:     entry.ID,
			EntryNumber: entry.EntryNumber,
			Date:        entry.Date,
			Reason:      reason,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrNotReversible) {
			return err
		}
		return &PersistenceError{Op: "reverse", Err: err}
	}

	slog.Info("journal entry reversed",
		"entry_id", summary.EntryID,
		"entry_number", summary.EntryNumber,
		"reason", reason,
	)

	if p.onReversed != nil {
		p.dispatch(func() { p.onReversed(summary) })
	}

	return nil
}

// validate checks the line set before any database work.
func (p *Poster) validate(header EntryHeader, lines []Line) error {
	if _, err := time.Parse("2006-01-02", header.Date); err != nil {
		return validationErrorf("invalid entry date %q, want YYYY-MM-DD", header.Date)
	}
	if !header.ReferenceType.Valid() {
		return validationErrorf("unknown reference type %q", header.ReferenceType)
	}
	if len(lines) < 2 {
		return validationErrorf("entry requires at least 2 lines, got %d", len(lines))
	}

	for i, line := range lines {
		if line.Debit < 0 || line.Credit < 0 {
			return validationErrorf("line %d has a negative amount", i+1)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return validationErrorf("line %d has both debit and credit amounts", i+1)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return validationErrorf("line %d has neither debit nor credit amount", i+1)
		}
	}

	if !IsBalanced(lines, p.epsilon) {
		debit, credit := Totals(lines)
		return validationErrorf("debits (%.2f) do not equal credits (%.2f)", debit, credit)
	}

	return nil
}

// nextEntryNumber allocates the next entry number for the entry's date.
// The sequence row is read and written inside the posting transaction, so
// a rolled-back post also rolls back its sequence increment.
func nextEntryNumber(tx *sql.Tx, driver db.Driver, date string) (string, error) {
	day := strings.ReplaceAll(date, "-", "")

	var seq int64
	err := tx.QueryRow(sequenceQuery(driver), day).Scan(&seq)
	switch {
	case err == sql.ErrNoRows:
		seq = 1
		if _, err := tx.Exec(`INSERT INTO entry_sequences (day, next_seq) VALUES (?, 2)`, day); err != nil {
			return "", fmt.Errorf("failed to create entry sequence: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to read entry sequence: %w", err)
	default:
		if _, err := tx.Exec(`UPDATE entry_sequences SET next_seq = next_seq + 1 WHERE day = ?`, day); err != nil {
			return "", fmt.Errorf("failed to advance entry sequence: %w", err)
		}
	}

	return fmt.Sprintf("JE-%s-%04d", day, seq), nil
}

// sequenceQuery returns the sequence read for the driver. MySQL needs
// FOR UPDATE to lock the row under REPEATABLE READ, otherwise two
// same-day posts read the same next_seq and one dies on the
// entry_number unique constraint. SQLite's single writer already
// serializes the read.
func sequenceQuery(driver db.Driver) string {
	query := `SELECT next_seq FROM entry_sequences WHERE day = ?`
	if driver == db.DriverMySQL {
		query += ` FOR UPDATE`
	}
	return query
}
