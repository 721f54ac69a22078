package ledger

import (
	"database/sql"
	"fmt"

	"github.com/pigeonworks-llc/go-ledger/pkg/db"
)

// Accounts manages the chart of accounts.
type Accounts struct {
	conn *db.Connection
}

// NewAccounts creates a new Accounts instance.
func NewAccounts(conn *db.Connection) *Accounts {
	return &Accounts{conn: conn}
}

// Create inserts a new account with a zero opening balance.
func (a *Accounts) Create(code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, validationErrorf("account code is required")
	}
	if name == "" {
		return nil, validationErrorf("account name is required")
	}
	if !accountType.Valid() {
		return nil, validationErrorf("unknown account type %q", accountType)
	}

	query := `
		INSERT INTO accounts (code, name, type, balance, active)
		VALUES (?, ?, ?, 0, 1)
	`

	result, err := a.conn.Exec(query, code, name, string(accountType))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account id: %w", err)
	}

	return a.Get(id)
}

// Get retrieves an account by ID. Returns ErrAccountNotFound if missing.
func (a *Accounts) Get(id int64) (*Account, error) {
	return scanAccount(a.conn.QueryRow(`
		SELECT id, code, name, type, balance, active, created_at
		FROM accounts
		WHERE id = ?
	`, id))
}

// GetByCode retrieves an account by its chart code.
func (a *Accounts) GetByCode(code string) (*Account, error) {
	return scanAccount(a.conn.QueryRow(`
		SELECT id, code, name, type, balance, active, created_at
		FROM accounts
		WHERE code = ?
	`, code))
}

// List retrieves accounts ordered by code, optionally active only.
func (a *Accounts) List(activeOnly bool) ([]Account, error) {
	query := `
		SELECT id, code, name, type, balance, active, created_at
		FROM accounts
	`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY code`

	rows, err := a.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acct Account
		var typeStr string
		var active int

		if err := rows.Scan(
			&acct.ID,
			&acct.Code,
			&acct.Name,
			&typeStr,
			&acct.Balance,
			&active,
			&acct.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}

		acct.Type = AccountType(typeStr)
		acct.Active = active != 0
		accounts = append(accounts, acct)
	}

	return accounts, rows.Err()
}

// SetActive enables or disables an account. Inactive accounts keep their
// balance but reject new postings.
func (a *Accounts) SetActive(id int64, active bool) error {
	flag := 0
	if active {
		flag = 1
	}

	result, err := a.conn.Exec(`UPDATE accounts SET active = ? WHERE id = ?`, flag, id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// scanAccount scans a single account row.
func scanAccount(row *sql.Row) (*Account, error) {
	var acct Account
	var typeStr string
	var active int

	err := row.Scan(
		&acct.ID,
		&acct.Code,
		&acct.Name,
		&typeStr,
		&acct.Balance,
		&active,
		&acct.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	acct.Type = AccountType(typeStr)
	acct.Active = active != 0
	return &acct, nil
}

// getAccountTx resolves an account inside a posting transaction.
func getAccountTx(tx *sql.Tx, id int64) (*Account, error) {
	var acct Account
	var typeStr string
	var active int

	err := tx.QueryRow(`
		SELECT id, code, name, type, balance, active, created_at
		FROM accounts
		WHERE id = ?
	`, id).Scan(
		&acct.ID,
		&acct.Code,
		&acct.Name,
		&typeStr,
		&acct.Balance,
		&active,
		&acct.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	acct.Type = AccountType(typeStr)
	acct.Active = active != 0
	return &acct, nil
}
