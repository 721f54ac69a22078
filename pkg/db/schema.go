// Package db provides SQL database management for the ledger store.
package db

// SchemaSQLite defines the SQL statements to create ledger tables on SQLite.
const SchemaSQLite = `
-- Chart of accounts
-- balance is the running balance maintained by posting transactions
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    type TEXT NOT NULL,                -- asset, liability, equity, income, expense
    balance REAL NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(type);

-- Journal entry headers
CREATE TABLE IF NOT EXISTS journal_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_number TEXT NOT NULL UNIQUE, -- JE-YYYYMMDD-NNNN
    entry_date TEXT NOT NULL,          -- YYYY-MM-DD
    description TEXT NOT NULL,
    reference_type TEXT NOT NULL,      -- Journal, Invoice, Payment, Expense
    reference_id INTEGER,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_date
    ON journal_entries(entry_date);

CREATE INDEX IF NOT EXISTS idx_journal_entries_reference
    ON journal_entries(reference_type, reference_id);

-- Journal entry lines
-- Exactly one of debit/credit is positive per line
CREATE TABLE IF NOT EXISTS journal_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id INTEGER NOT NULL REFERENCES journal_entries(id),
    line_no INTEGER NOT NULL,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    debit REAL NOT NULL DEFAULT 0,
    credit REAL NOT NULL DEFAULT 0,
    description TEXT,
    UNIQUE(entry_id, line_no)
);

CREATE INDEX IF NOT EXISTS idx_journal_lines_entry ON journal_lines(entry_id);
CREATE INDEX IF NOT EXISTS idx_journal_lines_account ON journal_lines(account_id);

-- Per-day sequence for entry numbers
-- Read-modify-written inside the posting transaction so a rollback
-- also rolls back the sequence
CREATE TABLE IF NOT EXISTS entry_sequences (
    day TEXT PRIMARY KEY,              -- YYYYMMDD
    next_seq INTEGER NOT NULL
);
`

// SchemaMySQL is the MySQL rendering of the same schema.
const SchemaMySQL = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    code VARCHAR(32) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    type VARCHAR(16) NOT NULL,
    balance DOUBLE NOT NULL DEFAULT 0,
    active TINYINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_accounts_type (type)
);

CREATE TABLE IF NOT EXISTS journal_entries (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    entry_number VARCHAR(32) NOT NULL UNIQUE,
    entry_date VARCHAR(10) NOT NULL,
    description TEXT NOT NULL,
    reference_type VARCHAR(16) NOT NULL,
    reference_id BIGINT,
    created_by VARCHAR(255) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_journal_entries_date (entry_date),
    INDEX idx_journal_entries_reference (reference_type, reference_id)
);

CREATE TABLE IF NOT EXISTS journal_lines (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    entry_id BIGINT NOT NULL REFERENCES journal_entries(id),
    line_no INT NOT NULL,
    account_id BIGINT NOT NULL REFERENCES accounts(id),
    debit DOUBLE NOT NULL DEFAULT 0,
    credit DOUBLE NOT NULL DEFAULT 0,
    description TEXT,
    UNIQUE (entry_id, line_no),
    INDEX idx_journal_lines_account (account_id)
);

CREATE TABLE IF NOT EXISTS entry_sequences (
    day VARCHAR(8) PRIMARY KEY,
    next_seq BIGINT NOT NULL
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if conn.Driver() == DriverMySQL {
		// MySQL's driver rejects multi-statement Exec by default,
		// so each statement runs on its own.
		for _, stmt := range splitStatements(SchemaMySQL) {
			if _, err := conn.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := conn.Exec(SchemaSQLite); err != nil {
		return err
	}
	return nil
}

// splitStatements splits a schema script into semicolon-terminated statements.
func splitStatements(schema string) []string {
	var stmts []string
	start := 0
	depth := 0
	for i := 0; i < len(schema); i++ {
		switch schema[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ';':
			if depth == 0 {
				stmts = append(stmts, schema[start:i+1])
				start = i + 1
			}
		}
	}
	return stmts
}
