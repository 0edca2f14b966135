package ledger

import _ "embed"

//go:embed 001_create_transactions.sql
var postgresMigrationSQL string

// occurred_at holds RFC 3339 UTC timestamps so string comparison orders them.
const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      INTEGER NOT NULL,
    category     TEXT    NOT NULL,
    amount       TEXT    NOT NULL,
    occurred_at  TEXT    NOT NULL,
    created_at   TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, occurred_at);
`
