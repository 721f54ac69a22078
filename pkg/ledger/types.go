// Package ledger implements double-entry journal posting against a
// chart of accounts. Every posted entry carries balanced debit and
// credit lines, and each referenced account's running balance is
// updated in the same database transaction as the entry itself.
package ledger

import (
	"database/sql"
	"time"
)

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether the account type is one of the five categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

// DebitNormal reports whether an account of this type increases with debits.
// Assets and expenses are debit-normal; liabilities, equity and income
// are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == AccountAsset || t == AccountExpense
}

// Account represents an entry in the chart of accounts.
type Account struct {
	ID        int64       `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Balance   float64     `json:"balance"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// ReferenceType links a journal entry to its originating document.
type ReferenceType string

const (
	// ReferenceJournal marks a manually created entry. Only these
	// may be reversed.
	ReferenceJournal ReferenceType = "Journal"
	ReferenceInvoice ReferenceType = "Invoice"
	ReferencePayment ReferenceType = "Payment"
	ReferenceExpense ReferenceType = "Expense"
)

// Valid reports whether the reference type is known.
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferenceJournal, ReferenceInvoice, ReferencePayment, ReferenceExpense:
		return true
	}
	return false
}

// EntryHeader describes a journal entry to be posted.
type EntryHeader struct {
	Date          string        `json:"date"` // YYYY-MM-DD
	Description   string        `json:"description"`
	ReferenceType ReferenceType `json:"reference_type"`
	ReferenceID   *int64        `json:"reference_id,omitempty"`
	CreatedBy     string        `json:"created_by"`
}

// Line describes a single debit or credit against one account.
// Exactly one of Debit/Credit must be positive.
type Line struct {
	AccountID   int64   `json:"account_id"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description,omitempty"`
}

// JournalEntry is a posted entry as stored, header plus ordered lines.
type JournalEntry struct {
	ID            int64         `json:"id"`
	EntryNumber   string        `json:"entry_number"`
	Date          string        `json:"date"`
	Description   string        `json:"description"`
	ReferenceType ReferenceType `json:"reference_type"`
	ReferenceID   *int64        `json:"reference_id,omitempty"`
	CreatedBy     string        `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	Lines         []StoredLine  `json:"lines"`
}

// StoredLine is a persisted journal line.
type StoredLine struct {
	ID          int64   `json:"id"`
	EntryID     int64   `json:"entry_id"`
	LineNo      int     `json:"line_no"`
	AccountID   int64   `json:"account_id"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description *string `json:"description,omitempty"`
}

// Stats summarizes the ledger's contents.
type Stats struct {
	TotalEntries  int
	TotalAccounts int
	LastPosted    sql.NullString
}
