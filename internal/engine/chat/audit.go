package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// AuditLog is the append-only record of completion calls, per chat session.
// It lives in an in-memory SQLite database and dies with the process.
type AuditLog struct {
	db *sql.DB
}

// OpenAuditLog creates an empty in-memory audit log.
func OpenAuditLog() (*AuditLog, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	// Every connection to :memory: is a separate database: pin exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS exchanges (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session    TEXT NOT NULL,
		prompt     TEXT NOT NULL,
		response   TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: init schema: %w", err)
	}
	return &AuditLog{db: db}, nil
}

// Append stores rec at the end of session's log.
func (a *AuditLog) Append(ctx context.Context, session string, rec *ExchangeRecord) error {
	prompt, err := json.Marshal(rec.Messages)
	if err != nil {
		return fmt.Errorf("audit: encode prompt: %w", err)
	}
	raw := rec.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO exchanges (session, prompt, response, created_at) VALUES (?, ?, ?, ?)`,
		session, string(prompt), string(raw), rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// List returns session's records in append order.
func (a *AuditLog) List(ctx context.Context, session string) ([]ExchangeRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT prompt, response, created_at FROM exchanges WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []ExchangeRecord
	for rows.Next() {
		var prompt, response, created string
		if err := rows.Scan(&prompt, &response, &created); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		var rec ExchangeRecord
		if err := json.Unmarshal([]byte(prompt), &rec.Messages); err != nil {
			return nil, fmt.Errorf("audit: decode prompt: %w", err)
		}
		rec.Raw = json.RawMessage(response)
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear drops every record of session.
func (a *AuditLog) Clear(ctx context.Context, session string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM exchanges WHERE session = ?`, session); err != nil {
		return fmt.Errorf("audit: clear: %w", err)
	}
	return nil
}

// Close releases the database; all records are lost.
func (a *AuditLog) Close() error {
	return a.db.Close()
}
