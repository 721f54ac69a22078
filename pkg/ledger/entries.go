package ledger

import (
	"database/sql"
	"fmt"
)

// GetEntry retrieves a posted entry with its lines in order.
// Returns ErrEntryNotFound if the entry does not exist.
func (p *Poster) GetEntry(entryID int64) (*JournalEntry, error) {
	var entry *JournalEntry
	err := p.conn.Transaction(func(tx *sql.Tx) error {
		loaded, err := getEntryTx(tx, entryID)
		if err != nil {
			return err
		}
		entry = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries retrieves entries within the given date range, newest first.
// Empty from/to bounds are open.
func (p *Poster) ListEntries(from, to string) ([]JournalEntry, error) {
	query := `
		SELECT id, entry_number, entry_date, description, reference_type, reference_id, created_by, created_at
		FROM journal_entries
	`
	var args []interface{}
	var conds []string
	if from != "" {
		conds = append(conds, "entry_date >= ?")
		args = append(args, from)
	}
	if to != "" {
		conds = append(conds, "entry_date <= ?")
		args = append(args, to)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY entry_date DESC, id DESC"

	rows, err := p.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		var refType string
		var refID sql.NullInt64

		if err := rows.Scan(
			&entry.ID,
			&entry.EntryNumber,
			&entry.Date,
			&entry.Description,
			&refType,
			&refID,
			&entry.CreatedBy,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		entry.ReferenceType = ReferenceType(refType)
		if refID.Valid {
			entry.ReferenceID = &refID.Int64
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// VerifyEntry recomputes the balance invariant from an entry's stored
// lines. A posted entry should always verify; a failure indicates the
// store was modified outside the poster.
func (p *Poster) VerifyEntry(entryID int64) (bool, error) {
	entry, err := p.GetEntry(entryID)
	if err != nil {
		return false, err
	}

	lines := make([]Line, len(entry.Lines))
	for i, stored := range entry.Lines {
		lines[i] = Line{
			AccountID: stored.AccountID,
			Debit:     stored.Debit,
			Credit:    stored.Credit,
		}
	}

	return IsBalanced(lines, p.epsilon), nil
}

// Stats retrieves ledger statistics.
func (p *Poster) Stats() (*Stats, error) {
	var stats Stats

	err := p.conn.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&stats.TotalEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry count: %w", err)
	}

	err = p.conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&stats.TotalAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to get account count: %w", err)
	}

	err = p.conn.QueryRow(`SELECT MAX(created_at) FROM journal_entries`).Scan(&stats.LastPosted)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last posted time: %w", err)
	}

	return &stats, nil
}

// getEntryTx loads an entry header and its lines inside a transaction.
func getEntryTx(tx *sql.Tx, entryID int64) (*JournalEntry, error) {
	var entry JournalEntry
	var refType string
	var refID sql.NullInt64

	err := tx.QueryRow(`
		SELECT id, entry_number, entry_date, description, reference_type, reference_id, created_by, created_at
		FROM journal_entries
		WHERE id = ?
	`, entryID).Scan(
		&entry.ID,
		&entry.EntryNumber,
		&entry.Date,
		&entry.Description,
		&refType,
		&refID,
		&entry.CreatedBy,
		&entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	entry.ReferenceType = ReferenceType(refType)
	if refID.Valid {
		entry.ReferenceID = &refID.Int64
	}

	rows, err := tx.Query(`
		SELECT id, entry_id, line_no, account_id, debit, credit, description
		FROM journal_lines
		WHERE entry_id = ?
		ORDER BY line_no
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line StoredLine
		var desc sql.NullString
		if err := rows.Scan(
			&line.ID,
			&line.EntryID,
			&line.LineNo,
			&line.AccountID,
			&line.Debit,
			&line.Credit,
			&desc,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		if desc.Valid {
			line.Description = &desc.String
		}
		entry.Lines = append(entry.Lines, line)
	}

	return &entry, rows.Err()
}
